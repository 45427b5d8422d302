package motion

import "math"

// State is the animation cursor of the active mode.
type State struct {
	Step      uint64
	Direction int // +1 or -1
}

// Reset returns the cursor every mode starts from.
func Reset() State {
	return State{Step: 0, Direction: +1}
}

// Position is a pair of servo angles in degrees.
type Position struct {
	Pan  int
	Tilt int
}

// Range is an inclusive angle interval.
type Range struct {
	Min, Max int
}

// Clamp limits v to r.
func (r Range) Clamp(v int) int {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v is inside r.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Trajectory is the motion pattern of one mode: a pure function of the
// cursor plus the rule that advances it.
type Trajectory struct {
	Name      string
	PanRange  Range
	TiltRange Range
	position  func(step uint64) Position
	advance   func(State) State
}

// Step computes the position for s, clamped to the trajectory ranges,
// and returns the cursor for the next tick.
func (t Trajectory) Step(s State) (Position, State) {
	p := t.position(s.Step)
	p.Pan = t.PanRange.Clamp(p.Pan)
	p.Tilt = t.TiltRange.Clamp(p.Tilt)
	return p, t.advance(s)
}

const (
	idleSpan   = 60
	searchStep = 5
	searchSpan = 180
	trackStep  = 5
)

// Idle is a slow triangle sweep of pan across [60,120] with a gentle
// sinusoidal nod of tilt around 90.
var Idle = Trajectory{
	Name:      "idle",
	PanRange:  Range{60, 120},
	TiltRange: Range{80, 100},
	position:  func(step uint64) Position {
		s := float64(step)
		return Position{
			Pan:  60 + int(step),
			Tilt: 90 + int(math.Round(10*math.Sin(s*math.Pi/30))),
		}
	},
	advance:   func(s State) State {
		if s.Direction < 0 {
			if s.Step > 0 {
				s.Step--
			}
		} else {
			s.Step++
		}
		switch {
		case s.Step >= idleSpan:
			s.Step = idleSpan
			s.Direction = -1
		case s.Step == 0:
			s.Direction = +1
		}
		return s
	},
}

// Search sweeps pan over the full half circle, alternating tilt between
// 60 and 120 on every sweep.
var Search = Trajectory{
	Name:      "search",
	PanRange:  Range{0, 180},
	TiltRange: Range{60, 120},
	position:  func(step uint64) Position {
		tilt := 60
		if (step/searchSpan)%2 == 1 {
			tilt = 120
		}
		return Position{
			Pan:  int(step % searchSpan),
			Tilt: tilt,
		}
	},
	advance:   func(s State) State {
		s.Step += searchStep
		return s
	},
}

// Track traces an ellipse around the center. The counter is unbounded;
// sin and cos keep the output periodic.
var Track = Trajectory{
	Name:      "track",
	PanRange:  Range{60, 120},
	TiltRange: Range{70, 110},
	position:  func(step uint64) Position {
		a := float64(step) * 0.1
		return Position{
			Pan:  90 + int(math.Round(30*math.Sin(a))),
			Tilt: 90 + int(math.Round(20*math.Cos(a))),
		}
	},
	advance:   func(s State) State {
		s.Step += trackStep
		return s
	},
}
