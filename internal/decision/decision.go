// Package decision judges a freshly initialised world's weather cycles
// against configured thresholds.
//
// Each world is judged exactly once: the first time it is observed with both
// cycle start ticks set while auto reset is armed. Later observations of the
// same world are no-ops.
package decision

import (
	"strings"

	"thunderwatch/internal/gametime"
	"thunderwatch/internal/levelsave"
)

const (
	// ThunderCycleTicks is the nominal thunder cycle length (10 minutes).
	ThunderCycleTicks = 10 * gametime.TicksPerMinute
	// RainCycleTicks is the nominal rain cycle length (3 minutes).
	RainCycleTicks = 3 * gametime.TicksPerMinute
)

type Decision int

const (
	NoAction Decision = iota
	Reset
)

func (d Decision) String() string {
	if d == Reset {
		return "reset"
	}
	return "no_action"
}

type Reason string

const (
	ReasonOutOfBounds      Reason = "out_of_bounds"
	ReasonThunderAfterRain Reason = "thunder_after_rain"
	ReasonRainAfterThunder Reason = "rain_after_thunder"
)

// Thresholds are the configured bounds, in ticks.
type Thresholds struct {
	MinStartTick          uint64
	MaxStartTick          uint64
	MinCycleDurationTicks uint64
}

// State is carried between evaluations. The zero value is the startup state.
type State struct {
	LastWorld string
	Seen      bool
	Armed     bool
}

// Outcome is the result of one evaluation.
type Outcome struct {
	Decision Decision
	// Judged is true when the world was evaluated against the thresholds,
	// whether or not a reset resulted.
	Judged  bool
	Reasons []Reason
}

func (o Outcome) ReasonString() string {
	parts := make([]string, len(o.Reasons))
	for i, r := range o.Reasons {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

// Evaluate applies the reset rules to one observation of world. It never
// mutates st; the returned State is the one to carry forward.
func Evaluate(t levelsave.Timing, world string, th Thresholds, st State) (Outcome, State) {
	if !st.Armed {
		return Outcome{}, st
	}
	if !t.Initialized() {
		return Outcome{}, st
	}
	if st.Seen && st.LastWorld == world {
		return Outcome{}, st
	}

	out := Outcome{Judged: true}
	rain, thunder := t.RainStartTick, t.ThunderStartTick

	if thunder > th.MaxStartTick || rain > th.MaxStartTick ||
		thunder < th.MinStartTick || rain < th.MinStartTick {
		out.Reasons = append(out.Reasons, ReasonOutOfBounds)
	}
	if thunder > rain && thunder-rain > gapLimit(ThunderCycleTicks, th.MinCycleDurationTicks) {
		out.Reasons = append(out.Reasons, ReasonThunderAfterRain)
	}
	if rain > thunder && rain-thunder > gapLimit(RainCycleTicks, th.MinCycleDurationTicks) {
		out.Reasons = append(out.Reasons, ReasonRainAfterThunder)
	}
	if len(out.Reasons) > 0 {
		out.Decision = Reset
	}

	st.LastWorld = world
	st.Seen = true
	return out, st
}

// gapLimit is nominal-minDuration, saturating at zero.
func gapLimit(nominal, minDuration uint64) uint64 {
	if minDuration >= nominal {
		return 0
	}
	return nominal - minDuration
}

// Engine owns the evaluation state for the lifetime of the watcher. It is
// not safe for concurrent use; the watch loop is its only caller.
type Engine struct {
	th    Thresholds
	state State
}

func NewEngine(th Thresholds) *Engine {
	return &Engine{th: th}
}

// Evaluate judges one observation. armed is sampled by the caller from the
// shared toggle.
func (e *Engine) Evaluate(t levelsave.Timing, world string, armed bool) Outcome {
	st := e.state
	st.Armed = armed
	out, next := Evaluate(t, world, e.th, st)
	e.state = next
	return out
}

// LastWorld returns the last judged world, if any.
func (e *Engine) LastWorld() (string, bool) {
	return e.state.LastWorld, e.state.Seen
}

func (e *Engine) Thresholds() Thresholds { return e.th }
