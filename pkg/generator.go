package trigger

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// Drift time window of a geiger cell after the crossing, ns
	GEIGER_DRIFT_MIN = 1600
	GEIGER_DRIFT_MAX = 4800
	// Flight time from the tracker to the main wall, ns
	CALO_TIME_OF_FLIGHT = 5
	// Time between two generated events, ns
	GENERATOR_EVENT_SPACING = 100000
)

type geigerBoardTick struct {
	board     ElectronicID
	clocktick int64
}

// EventGenerator produces synthetic events: a straight track through the
// nine layers of one side and the main wall block it points to.
type EventGenerator struct {
	mapping ElectronicMapping
	clock   ClockUtils
	src     rand.Source
	hitID   uint32
}

func NewEventGenerator(mapping ElectronicMapping, seed uint64) *EventGenerator {
	g := &EventGenerator{mapping: mapping, src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
	g.clock.ComputeClockticksRef(g.src)
	return g
}

func (g *EventGenerator) Clock() ClockUtils {
	return g.clock
}

func (g *EventGenerator) nextHitID() uint32 {
	id := g.hitID
	g.hitID++
	return id
}

func (g *EventGenerator) Generate(runNumber uint32, eventID uint32) (Event, error) {
	event := Event{RunNumber: runNumber, EventID: eventID}
	t0 := float64(eventID) * GENERATOR_EVENT_SPACING

	side := int(distuv.Bernoulli{P: 0.5, Src: g.src}.Rand())
	startRow := distuv.Uniform{Min: 0, Max: NUMBER_OF_GEIGER_ROWS, Src: g.src}.Rand()
	slope := distuv.Uniform{Min: -1, Max: 1, Src: g.src}.Rand()
	drift := distuv.Uniform{Min: GEIGER_DRIFT_MIN, Max: GEIGER_DRIFT_MAX, Src: g.src}

	boards := make(map[geigerBoardTick]uint64)
	lastRow := 0
	for layer := 0; layer < NUMBER_OF_LAYERS; layer++ {
		row := int(math.Floor(startRow + slope*float64(layer)))
		row = min(max(row, 0), NUMBER_OF_GEIGER_ROWS-1)
		lastRow = row
		id, err := g.mapping.GeigerElectronicID(GeigerCellID{Side: side, Layer: layer, Row: row})
		if err != nil {
			return event, err
		}
		clocktick, err := g.clock.ClocktickFromTime800(t0 + drift.Rand())
		if err != nil {
			return event, err
		}
		key := geigerBoardTick{board: id.Board(), clocktick: clocktick}
		boards[key] = SetBit(boards[key], uint(id.ChannelID))
	}

	keys := make([]geigerBoardTick, 0, len(boards))
	for key := range boards {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b geigerBoardTick) int {
		if c := cmp.Compare(a.clocktick, b.clocktick); c != 0 {
			return c
		}
		if c := cmp.Compare(a.board.CrateID, b.board.CrateID); c != 0 {
			return c
		}
		return cmp.Compare(a.board.BoardID, b.board.BoardID)
	})
	for _, key := range keys {
		builder := NewGeigerTPBuilder()
		if err := builder.SetHeader(g.nextHitID(), key.board, key.clocktick,
			TRACKER_TRIGGER_MODE_MULTIPLICITY, TRACKER_SIDE_MODE_NOT_CONTRACTED, GEIGER_ROWS_BY_FEB); err != nil {
			return event, err
		}
		if err := builder.SetData(boards[key]); err != nil {
			return event, err
		}
		tp, err := builder.Lock()
		if err != nil {
			return event, err
		}
		event.GeigerTPs = append(event.GeigerTPs, tp)
	}

	block := CaloBlockID{
		Side:   side,
		Column: lastRow * NUMBER_OF_CALO_COLUMNS / NUMBER_OF_GEIGER_ROWS,
		Row:    int(distuv.Uniform{Min: 0, Max: NUMBER_OF_CALO_ROWS, Src: g.src}.Rand()),
	}
	id, err := g.mapping.CaloElectronicID(block)
	if err != nil {
		return event, err
	}
	clocktick, err := g.clock.ClocktickFromTime25(t0 + CALO_TIME_OF_FLIGHT)
	if err != nil {
		return event, err
	}
	caloTP, err := NewCaloTP(g.nextHitID(), id.Board(), clocktick, SetBit(uint16(0), uint(id.ChannelID)), 1, true, false)
	if err != nil {
		return event, err
	}
	event.CaloTPs = append(event.CaloTPs, caloTP)

	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("generated event %d: side %d, rows %d to %d, calo %v",
			eventID, side, int(startRow), lastRow, block)
		logger.Info(message, "generator")
	}
	return event, nil
}
