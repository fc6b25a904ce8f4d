package trigger

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Clock periods in ns
const (
	MAIN_CLOCKTICK    = 25
	TRACKER_CLOCKTICK = 800
	TRIGGER_CLOCKTICK = 1600

	INVALID_CLOCKTICK = -1

	// Reference clockticks are drawn in [0, CLOCKTICK_REF_RANGE)
	CLOCKTICK_REF_RANGE = 1000
)

// Clock domain conversions truncate like the hardware counters do:
// 63 ticks of 25 ns are still clocktick 0 at 1600 ns. Do not round.

func Clocktick25To1600(clocktick25ns int64) int64 {
	return clocktick25ns * MAIN_CLOCKTICK / TRIGGER_CLOCKTICK
}

func Clocktick25To800(clocktick25ns int64) int64 {
	return clocktick25ns * MAIN_CLOCKTICK / TRACKER_CLOCKTICK
}

func Clocktick800To1600(clocktick800ns int64) int64 {
	return clocktick800ns * TRACKER_CLOCKTICK / TRIGGER_CLOCKTICK
}

// ClockUtils holds the random clock references of one simulated run. The
// front-end clocks are not in phase with the physics, so each run draws a
// reference clocktick and a sub-tick shift. The tracker clock is divided
// from the main clock, its reference and shift follow from the main ones.
type ClockUtils struct {
	Clocktick25Ref    int64
	Clocktick800Ref   int64
	Clocktick25Shift  float64
	Clocktick800Shift float64
	initialized       bool
}

func (c *ClockUtils) ComputeClockticksRef(src rand.Source) {
	ref := distuv.Uniform{Min: 0, Max: CLOCKTICK_REF_RANGE, Src: src}
	c.Clocktick25Ref = int64(math.Floor(ref.Rand()))
	c.Clocktick25Shift = distuv.Uniform{Min: 0, Max: MAIN_CLOCKTICK, Src: src}.Rand()
	c.Clocktick800Ref = Clocktick25To800(c.Clocktick25Ref)
	c.Clocktick800Shift = float64(c.Clocktick25Ref*MAIN_CLOCKTICK%TRACKER_CLOCKTICK) + c.Clocktick25Shift
	c.initialized = true

	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("Clock references: ct25 %d (shift %.2f ns), ct800 %d (shift %.2f ns)",
			c.Clocktick25Ref, c.Clocktick25Shift, c.Clocktick800Ref, c.Clocktick800Shift)
		logger.Info(message, "clock")
	}
}

func (c *ClockUtils) IsInitialized() bool {
	return c.initialized
}

// ClocktickFromTime25 returns the 25 ns clocktick of a time in ns.
func (c *ClockUtils) ClocktickFromTime25(timeNs float64) (int64, error) {
	if !c.initialized {
		return INVALID_CLOCKTICK, &ErrState{Component: "clock utils", Op: "compute clocktick", State: "references not computed"}
	}
	return c.Clocktick25Ref + int64(math.Floor((timeNs+c.Clocktick25Shift)/MAIN_CLOCKTICK)), nil
}

// ClocktickFromTime800 returns the 800 ns clocktick of a time in ns.
func (c *ClockUtils) ClocktickFromTime800(timeNs float64) (int64, error) {
	if !c.initialized {
		return INVALID_CLOCKTICK, &ErrState{Component: "clock utils", Op: "compute clocktick", State: "references not computed"}
	}
	return c.Clocktick800Ref + int64(math.Floor((timeNs+c.Clocktick800Shift)/TRACKER_CLOCKTICK)), nil
}
