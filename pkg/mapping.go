package trigger

const (
	NUMBER_OF_CALO_COLUMNS = 20
	NUMBER_OF_CALO_ROWS    = 13

	// Non control boards in a crate
	FEBS_BY_CRATE = NUMBER_OF_FEBS_BY_CRATE - 1
	// Each tracker board reads two rows of both sides
	GEIGER_ROWS_BY_FEB   = 2
	GEIGER_CELLS_BY_SIDE = GEIGER_CHANNELS_BY_FEB / NUMBER_OF_SIDES
)

// ElectronicMapping resolves front-end addresses to detector cells and back.
// Implementations are read-only once built and can be shared.
type ElectronicMapping interface {
	GeigerCell(id ElectronicID) (GeigerCellID, error)
	GeigerElectronicID(cell GeigerCellID) (ElectronicID, error)
	CaloBlock(id ElectronicID) (CaloBlockID, error)
	CaloElectronicID(block CaloBlockID) (ElectronicID, error)
}

// StandardMapping is the cabling of the detector as installed:
// geiger channel = side*18 + rowOffset*9 + layer, two rows per board,
// crates filled in row order. Calorimeter crates 0 and 1 read the main
// walls of side 0 and 1, 16 channels per board in column major order.
type StandardMapping struct{}

func (StandardMapping) GeigerCell(id ElectronicID) (GeigerCellID, error) {
	if _, err := NewGeigerElectronicID(id.CrateID, id.BoardID, id.ChannelID); err != nil {
		return GeigerCellID{}, err
	}
	channel := int(id.ChannelID)
	side := channel / GEIGER_CELLS_BY_SIDE
	rowOffset := (channel % GEIGER_CELLS_BY_SIDE) / NUMBER_OF_LAYERS
	layer := channel % NUMBER_OF_LAYERS
	row := (int(id.CrateID)*FEBS_BY_CRATE+febIndex(id.BoardID))*GEIGER_ROWS_BY_FEB + rowOffset
	if row >= NUMBER_OF_GEIGER_ROWS {
		return GeigerCellID{}, &ErrUnmapped{Subsystem: "geiger", Address: id.String()}
	}
	return GeigerCellID{Side: side, Layer: layer, Row: row}, nil
}

func (StandardMapping) GeigerElectronicID(cell GeigerCellID) (ElectronicID, error) {
	if err := cell.Validate(); err != nil {
		return ElectronicID{}, err
	}
	pair := cell.Row / GEIGER_ROWS_BY_FEB
	crate := pair / FEBS_BY_CRATE
	board := boardFromFebIndex(pair % FEBS_BY_CRATE)
	channel := cell.Side*GEIGER_CELLS_BY_SIDE + (cell.Row%GEIGER_ROWS_BY_FEB)*NUMBER_OF_LAYERS + cell.Layer
	return ElectronicID{CrateID: uint16(crate), BoardID: board, ChannelID: uint16(channel)}, nil
}

func (StandardMapping) CaloBlock(id ElectronicID) (CaloBlockID, error) {
	if _, err := NewCaloElectronicID(id.CrateID, id.BoardID, id.ChannelID); err != nil {
		return CaloBlockID{}, err
	}
	if id.CrateID >= NUMBER_OF_SIDES {
		return CaloBlockID{}, &ErrUnmapped{Subsystem: "main wall", Address: id.String()}
	}
	linear := febIndex(id.BoardID)*CALO_CHANNELS_BY_FEB + int(id.ChannelID)
	column := linear / NUMBER_OF_CALO_ROWS
	if column >= NUMBER_OF_CALO_COLUMNS {
		return CaloBlockID{}, &ErrUnmapped{Subsystem: "main wall", Address: id.String()}
	}
	return CaloBlockID{Side: int(id.CrateID), Column: column, Row: linear % NUMBER_OF_CALO_ROWS}, nil
}

func (StandardMapping) CaloElectronicID(block CaloBlockID) (ElectronicID, error) {
	if err := block.Validate(); err != nil {
		return ElectronicID{}, err
	}
	linear := block.Column*NUMBER_OF_CALO_ROWS + block.Row
	return ElectronicID{
		CrateID:   uint16(block.Side),
		BoardID:   boardFromFebIndex(linear / CALO_CHANNELS_BY_FEB),
		ChannelID: uint16(linear % CALO_CHANNELS_BY_FEB),
	}, nil
}

// MappingTable is an explicit channel map, usually read from the
// database for a given run.
type MappingTable struct {
	geigerToCell map[ElectronicID]GeigerCellID
	cellToGeiger map[GeigerCellID]ElectronicID
	caloToBlock  map[ElectronicID]CaloBlockID
	blockToCalo  map[CaloBlockID]ElectronicID
}

func NewMappingTable() *MappingTable {
	return &MappingTable{
		geigerToCell: make(map[ElectronicID]GeigerCellID),
		cellToGeiger: make(map[GeigerCellID]ElectronicID),
		caloToBlock:  make(map[ElectronicID]CaloBlockID),
		blockToCalo:  make(map[CaloBlockID]ElectronicID),
	}
}

// StandardMappingTable tabulates every channel of StandardMapping.
func StandardMappingTable() *MappingTable {
	table := NewMappingTable()
	var standard StandardMapping
	for side := 0; side < NUMBER_OF_SIDES; side++ {
		for layer := 0; layer < NUMBER_OF_LAYERS; layer++ {
			for row := 0; row < NUMBER_OF_GEIGER_ROWS; row++ {
				cell := GeigerCellID{Side: side, Layer: layer, Row: row}
				id, _ := standard.GeigerElectronicID(cell)
				table.geigerToCell[id] = cell
				table.cellToGeiger[cell] = id
			}
		}
		for column := 0; column < NUMBER_OF_CALO_COLUMNS; column++ {
			for row := 0; row < NUMBER_OF_CALO_ROWS; row++ {
				block := CaloBlockID{Side: side, Column: column, Row: row}
				id, _ := standard.CaloElectronicID(block)
				table.caloToBlock[id] = block
				table.blockToCalo[block] = id
			}
		}
	}
	return table
}

func (m *MappingTable) AddGeiger(id ElectronicID, cell GeigerCellID) error {
	if _, err := NewGeigerElectronicID(id.CrateID, id.BoardID, id.ChannelID); err != nil {
		return err
	}
	if err := cell.Validate(); err != nil {
		return err
	}
	m.geigerToCell[id] = cell
	m.cellToGeiger[cell] = id
	return nil
}

func (m *MappingTable) AddCalo(id ElectronicID, block CaloBlockID) error {
	if _, err := NewCaloElectronicID(id.CrateID, id.BoardID, id.ChannelID); err != nil {
		return err
	}
	if err := block.Validate(); err != nil {
		return err
	}
	m.caloToBlock[id] = block
	m.blockToCalo[block] = id
	return nil
}

func (m *MappingTable) NumberOfGeigerChannels() int { return len(m.geigerToCell) }
func (m *MappingTable) NumberOfCaloChannels() int   { return len(m.caloToBlock) }

func (m *MappingTable) GeigerCell(id ElectronicID) (GeigerCellID, error) {
	cell, ok := m.geigerToCell[id]
	if !ok {
		return GeigerCellID{}, &ErrUnmapped{Subsystem: "geiger", Address: id.String()}
	}
	return cell, nil
}

func (m *MappingTable) GeigerElectronicID(cell GeigerCellID) (ElectronicID, error) {
	id, ok := m.cellToGeiger[cell]
	if !ok {
		return ElectronicID{}, &ErrUnmapped{Subsystem: "geiger", Address: cell.String()}
	}
	return id, nil
}

func (m *MappingTable) CaloBlock(id ElectronicID) (CaloBlockID, error) {
	block, ok := m.caloToBlock[id]
	if !ok {
		return CaloBlockID{}, &ErrUnmapped{Subsystem: "main wall", Address: id.String()}
	}
	return block, nil
}

func (m *MappingTable) CaloElectronicID(block CaloBlockID) (ElectronicID, error) {
	id, ok := m.blockToCalo[block]
	if !ok {
		return ElectronicID{}, &ErrUnmapped{Subsystem: "main wall", Address: block.String()}
	}
	return id, nil
}
