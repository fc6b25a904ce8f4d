package trigger

import "fmt"

const (
	NUMBER_OF_SIDES       = 2
	NUMBER_OF_LAYERS      = 9
	NUMBER_OF_GEIGER_ROWS = 113
	NUMBER_OF_ZONES       = 10
	NUMBER_OF_SUBZONES    = 4

	GEIGER_LEVEL_ONE_SUBZONE_ROW_SIZE   = 6
	GEIGER_LEVEL_ONE_SUBZONE_LAYER_SIZE = 5
	GEIGER_LEVEL_ONE_ZONING_BITSET_SIZE = 2 * NUMBER_OF_SUBZONES
	GEIGER_LEVEL_TWO_SIZE               = 2

	// Zone row boundaries, both ends included
	ZONE_0_BEGIN = 0
	ZONE_0_END   = 8
	ZONE_1_BEGIN = 9
	ZONE_1_END   = 20
	ZONE_2_BEGIN = 21
	ZONE_2_END   = 32
	ZONE_3_BEGIN = 33
	ZONE_3_END   = 44
	ZONE_4_BEGIN = 45
	ZONE_4_END   = 55
	ZONE_5_BEGIN = 56
	ZONE_5_END   = 66
	ZONE_6_BEGIN = 67
	ZONE_6_END   = 78
	ZONE_7_BEGIN = 79
	ZONE_7_END   = 90
	ZONE_8_BEGIN = 91
	ZONE_8_END   = 102
	ZONE_9_BEGIN = 103
	ZONE_9_END   = 112

	// Subzones split the layers between inner and outer halves
	SUBZONE_INNER_LAYER_BEGIN = 0
	SUBZONE_INNER_LAYER_END   = 4
	SUBZONE_OUTER_LAYER_BEGIN = 5
	SUBZONE_OUTER_LAYER_END   = 8
)

// Level two tracker classes
const (
	TRACKER_DECISION_NONE      uint8 = 0b00
	TRACKER_DECISION_PRETRACK  uint8 = 0b01
	TRACKER_DECISION_TRACK     uint8 = 0b10
	TRACKER_DECISION_AMBIGUOUS uint8 = 0b11
)

type ZoneLimits struct {
	RowBegin int
	RowEnd   int
}

type SubzoneLimits struct {
	RowBegin   int
	RowEnd     int
	LayerBegin int
	LayerEnd   int
}

func (s SubzoneLimits) NumberOfRows() int   { return s.RowEnd - s.RowBegin + 1 }
func (s SubzoneLimits) NumberOfLayers() int { return s.LayerEnd - s.LayerBegin + 1 }

func (s SubzoneLimits) Contains(layer int, row int) bool {
	return layer >= s.LayerBegin && layer <= s.LayerEnd && row >= s.RowBegin && row <= s.RowEnd
}

type zoneEntry struct {
	zone     ZoneLimits
	subzones [NUMBER_OF_SUBZONES]SubzoneLimits
}

var zoneTable = [NUMBER_OF_ZONES]zoneEntry{
	newZoneEntry(ZONE_0_BEGIN, 4, ZONE_0_END),
	newZoneEntry(ZONE_1_BEGIN, 14, ZONE_1_END),
	newZoneEntry(ZONE_2_BEGIN, 26, ZONE_2_END),
	newZoneEntry(ZONE_3_BEGIN, 38, ZONE_3_END),
	newZoneEntry(ZONE_4_BEGIN, 50, ZONE_4_END),
	newZoneEntry(ZONE_5_BEGIN, 61, ZONE_5_END),
	newZoneEntry(ZONE_6_BEGIN, 72, ZONE_6_END),
	newZoneEntry(ZONE_7_BEGIN, 84, ZONE_7_END),
	newZoneEntry(ZONE_8_BEGIN, 96, ZONE_8_END),
	newZoneEntry(ZONE_9_BEGIN, 107, ZONE_9_END),
}

// newZoneEntry lays out the four subzones of a zone: 0 and 1 are the
// two row halves of the inner layers, 2 and 3 those of the outer layers.
func newZoneEntry(begin int, firstHalfEnd int, end int) zoneEntry {
	halves := [2]ZoneLimits{{begin, firstHalfEnd}, {firstHalfEnd + 1, end}}
	layers := [2][2]int{
		{SUBZONE_INNER_LAYER_BEGIN, SUBZONE_INNER_LAYER_END},
		{SUBZONE_OUTER_LAYER_BEGIN, SUBZONE_OUTER_LAYER_END},
	}
	entry := zoneEntry{zone: ZoneLimits{begin, end}}
	for subzone := 0; subzone < NUMBER_OF_SUBZONES; subzone++ {
		half := halves[subzone%2]
		layer := layers[subzone/2]
		entry.subzones[subzone] = SubzoneLimits{
			RowBegin:   half.RowBegin,
			RowEnd:     half.RowEnd,
			LayerBegin: layer[0],
			LayerEnd:   layer[1],
		}
	}
	return entry
}

func FetchZoneLimits(zone int) ZoneLimits {
	return zoneTable[zone].zone
}

func FetchSubzoneLimits(zone int, subzone int) SubzoneLimits {
	return zoneTable[zone].subzones[subzone]
}

// ZoneOfRow returns the tracker zone containing the row.
func ZoneOfRow(row int) (int, error) {
	for zone := range zoneTable {
		if row >= zoneTable[zone].zone.RowBegin && row <= zoneTable[zone].zone.RowEnd {
			return zone, nil
		}
	}
	return -1, &ErrRange{Field: "row", Value: int64(row), Limit: NUMBER_OF_GEIGER_ROWS}
}

// ZoningWord holds one bit per trigger zone of a side.
type ZoningWord uint16

func (z ZoningWord) Test(zone int) bool {
	if zone < 0 || zone >= NUMBER_OF_ZONES {
		return false
	}
	return CheckBit(z, uint(zone))
}

func (z ZoningWord) Set(zone int) ZoningWord {
	if zone < 0 || zone >= NUMBER_OF_ZONES {
		return z
	}
	return SetBit(z, uint(zone))
}

func (z ZoningWord) Any() bool {
	return z != 0
}

func (z ZoningWord) String() string {
	return fmt.Sprintf("%0*b", NUMBER_OF_ZONES, uint16(z))
}

// ActiveNextZone also sets zone k+1 for every zone k set in the word. The
// top zone has no neighbour and is left as is.
func ActiveNextZone(z ZoningWord) ZoningWord {
	smeared := z
	for zone := 0; zone < NUMBER_OF_ZONES-1; zone++ {
		if z.Test(zone) {
			smeared = smeared.Set(zone + 1)
		}
	}
	return smeared
}
