package trigger

import (
	"fmt"
	"path/filepath"
)

// Address and data widths of the five tracker memories.
const (
	MEM_ROW_ADDRESS_SIZE    = GEIGER_LEVEL_ONE_SUBZONE_ROW_SIZE
	MEM_ROW_DATA_SIZE       = 1
	MEM_LAYER_ADDRESS_SIZE  = GEIGER_LEVEL_ONE_SUBZONE_LAYER_SIZE
	MEM_LAYER_DATA_SIZE     = 1
	MEM_ZONE_ADDRESS_SIZE   = GEIGER_LEVEL_ONE_ZONING_BITSET_SIZE
	MEM_ZONE_DATA_SIZE      = GEIGER_LEVEL_TWO_SIZE
	MEM_SIDE_ADDRESS_SIZE   = 2 * GEIGER_LEVEL_TWO_SIZE
	MEM_SIDE_DATA_SIZE      = GEIGER_LEVEL_TWO_SIZE
	MEM_FINALE_ADDRESS_SIZE = 2 * GEIGER_LEVEL_TWO_SIZE
	MEM_FINALE_DATA_SIZE    = GEIGER_LEVEL_TWO_SIZE
)

var memoryFilenames = [5]string{"mem1.conf", "mem2.conf", "mem3.conf", "mem4.conf", "mem5.conf"}

// TrackerMemories are the truth tables of the tracker pipeline:
// mem1 row projection, mem2 layer projection, mem3 zone class,
// mem4 side fold and mem5 finale decision. They are read-only once
// loaded and may be shared by several tracker algorithms.
type TrackerMemories struct {
	Row    LookupTable
	Layer  LookupTable
	Zone   LookupTable
	Side   LookupTable
	Finale LookupTable
}

type memoryLayout struct {
	table        LookupTable
	name         string
	addressWidth uint
	dataWidth    uint
}

func (t TrackerMemories) tables() []memoryLayout {
	return []memoryLayout{
		{t.Row, "row", MEM_ROW_ADDRESS_SIZE, MEM_ROW_DATA_SIZE},
		{t.Layer, "layer", MEM_LAYER_ADDRESS_SIZE, MEM_LAYER_DATA_SIZE},
		{t.Zone, "zone", MEM_ZONE_ADDRESS_SIZE, MEM_ZONE_DATA_SIZE},
		{t.Side, "side", MEM_SIDE_ADDRESS_SIZE, MEM_SIDE_DATA_SIZE},
		{t.Finale, "finale", MEM_FINALE_ADDRESS_SIZE, MEM_FINALE_DATA_SIZE},
	}
}

// Validate checks that every memory is present with the expected widths.
func (t TrackerMemories) Validate() error {
	for _, m := range t.tables() {
		if m.table == nil {
			return &ErrMemory{Name: m.name, Reason: "memory not loaded"}
		}
		if m.table.AddressWidth() != m.addressWidth || m.table.DataWidth() != m.dataWidth {
			return &ErrMemory{Name: m.table.Name(), Reason: fmt.Sprintf("expected %d -> %d bits, got %d -> %d",
				m.addressWidth, m.dataWidth, m.table.AddressWidth(), m.table.DataWidth())}
		}
	}
	return nil
}

func LoadTrackerMemories(config TrackerConfig) (TrackerMemories, error) {
	files := []string{config.MemRowFile, config.MemLayerFile, config.MemZoneFile, config.MemSideFile, config.MemFinaleFile}
	memories := make([]*Memory, len(files))
	for i, layout := range (TrackerMemories{}).tables() {
		if files[i] == "" {
			return TrackerMemories{}, &ErrMemory{Name: layout.name, Reason: "no truth table file configured"}
		}
		mem, err := NewMemory(layout.name, layout.addressWidth, layout.dataWidth)
		if err != nil {
			return TrackerMemories{}, err
		}
		if err := mem.LoadFile(files[i]); err != nil {
			return TrackerMemories{}, err
		}
		memories[i] = mem
	}
	return TrackerMemories{
		Row:    memories[0],
		Layer:  memories[1],
		Zone:   memories[2],
		Side:   memories[3],
		Finale: memories[4],
	}, nil
}

// MemoryMaker computes the standard truth tables of the tracker memories.
type MemoryMaker struct {
	// Minimum number of fired rows in a subzone row projection
	RowThreshold int
	// Minimum number of fired layers in a subzone layer projection
	LayerThreshold int
}

func (mm MemoryMaker) fill(name string, addressWidth uint, dataWidth uint, rule func(address uint32) uint16) (*Memory, error) {
	mem, err := NewMemory(name, addressWidth, dataWidth)
	if err != nil {
		return nil, err
	}
	for address := uint32(0); address < uint32(mem.Size()); address++ {
		if err := mem.Fill(address, rule(address)); err != nil {
			return nil, err
		}
	}
	return mem, nil
}

func (mm MemoryMaker) MakeRowMemory() (*Memory, error) {
	return mm.fill("row", MEM_ROW_ADDRESS_SIZE, MEM_ROW_DATA_SIZE, func(address uint32) uint16 {
		return uint16(boolToBit(CountBits(address) >= mm.RowThreshold))
	})
}

func (mm MemoryMaker) MakeLayerMemory() (*Memory, error) {
	return mm.fill("layer", MEM_LAYER_ADDRESS_SIZE, MEM_LAYER_DATA_SIZE, func(address uint32) uint16 {
		return uint16(boolToBit(CountBits(address) >= mm.LayerThreshold))
	})
}

// MakeZoneMemory classifies the level one pattern of a zone. A subzone with
// both projections fired holds a track, a subzone with one projection a
// pretrack; seeing both kinds in the same zone is ambiguous.
func (mm MemoryMaker) MakeZoneMemory() (*Memory, error) {
	return mm.fill("zone", MEM_ZONE_ADDRESS_SIZE, MEM_ZONE_DATA_SIZE, func(address uint32) uint16 {
		track, pretrack := false, false
		for subzone := uint(0); subzone < NUMBER_OF_SUBZONES; subzone++ {
			row := CheckBit(address, 2*subzone)
			layer := CheckBit(address, 2*subzone+1)
			switch {
			case row && layer:
				track = true
			case row || layer:
				pretrack = true
			}
		}
		switch {
		case track && pretrack:
			return uint16(TRACKER_DECISION_AMBIGUOUS)
		case track:
			return uint16(TRACKER_DECISION_TRACK)
		case pretrack:
			return uint16(TRACKER_DECISION_PRETRACK)
		}
		return uint16(TRACKER_DECISION_NONE)
	})
}

// MakeSideMemory folds a zone class into the side accumulator:
// address = accumulator<<2 | class.
func (mm MemoryMaker) MakeSideMemory() (*Memory, error) {
	return mm.fill("side", MEM_SIDE_ADDRESS_SIZE, MEM_SIDE_DATA_SIZE, func(address uint32) uint16 {
		return uint16((address >> GEIGER_LEVEL_TWO_SIZE) | (address & 0b11))
	})
}

// MakeFinaleMemory combines both sides: address = side1<<2 | side0.
func (mm MemoryMaker) MakeFinaleMemory() (*Memory, error) {
	return mm.fill("finale", MEM_FINALE_ADDRESS_SIZE, MEM_FINALE_DATA_SIZE, func(address uint32) uint16 {
		return uint16((address >> GEIGER_LEVEL_TWO_SIZE) | (address & 0b11))
	})
}

func (mm MemoryMaker) MakeAll() (TrackerMemories, error) {
	makers := []func() (*Memory, error){mm.MakeRowMemory, mm.MakeLayerMemory, mm.MakeZoneMemory, mm.MakeSideMemory, mm.MakeFinaleMemory}
	memories := make([]*Memory, len(makers))
	for i, maker := range makers {
		mem, err := maker()
		if err != nil {
			return TrackerMemories{}, err
		}
		memories[i] = mem
	}
	return TrackerMemories{
		Row:    memories[0],
		Layer:  memories[1],
		Zone:   memories[2],
		Side:   memories[3],
		Finale: memories[4],
	}, nil
}

// WriteAll writes mem1.conf to mem5.conf in dir and returns the matching
// tracker configuration.
func (mm MemoryMaker) WriteAll(dir string) (TrackerConfig, error) {
	memories, err := mm.MakeAll()
	if err != nil {
		return TrackerConfig{}, err
	}
	tables := memories.tables()
	paths := make([]string, len(tables))
	for i, t := range tables {
		paths[i] = filepath.Join(dir, memoryFilenames[i])
		if err := t.table.(*Memory).WriteFile(paths[i]); err != nil {
			return TrackerConfig{}, err
		}
	}
	return TrackerConfig{
		MemRowFile:    paths[0],
		MemLayerFile:  paths[1],
		MemZoneFile:   paths[2],
		MemSideFile:   paths[3],
		MemFinaleFile: paths[4],
	}, nil
}
