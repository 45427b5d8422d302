package control

import (
	"context"
	"fmt"
	"time"

	"github.com/cjeanneret/mattoscam/internal/debug"
	"github.com/cjeanneret/mattoscam/internal/hw/display"
	"github.com/cjeanneret/mattoscam/internal/hw/keypad"
	"github.com/cjeanneret/mattoscam/internal/hw/sound"
	"github.com/cjeanneret/mattoscam/internal/logic/motion"
	"github.com/cjeanneret/mattoscam/internal/logic/statemachine"
)

// DefaultInterval is the tick period when none is configured.
const DefaultInterval = 50 * time.Millisecond

// Laser is the auxiliary output toggled by the D key.
type Laser interface {
	Toggle() error
	Off() error
	On() bool
}

// Params tunes the loop.
type Params struct {
	Interval       time.Duration // tick period
	SoundThreshold int           // ADC counts
	SoundWindow    time.Duration // sampling window per tick
	ShowClock      bool          // add the wall-clock time to rendered status
}

// Deps are the collaborators driven by the loop. Sound and Laser are optional.
type Deps struct {
	Input    keypad.Source
	Sound    sound.Detector
	Motion   *motion.Controller
	Renderer display.Renderer
	Laser    Laser
}

// Snapshot is the observable state published on render and on confirmed codes.
type Snapshot struct {
	Event     string    `json:"event"` // "render" or "confirm"
	Mode      string    `json:"mode"`
	Code      string    `json:"code"`
	Confirmed string    `json:"confirmed,omitempty"`
	Laser     bool      `json:"laser"`
	Pan       int       `json:"pan"`
	Tilt      int       `json:"tilt"`
	Tick      uint64    `json:"tick"`
	Time      time.Time `json:"time"`
}

// Loop is the single cooperative control loop. Everything it touches is
// owned by the goroutine calling Tick or Run.
type Loop struct {
	machine  *statemachine.Machine
	deps     Deps
	params   Params
	now      func() time.Time
	observer func(Snapshot)

	ticks    uint64
	rendered bool
	last     motion.Position
}

// NewLoop wires m to its collaborators.
func NewLoop(m *statemachine.Machine, deps Deps, p Params) *Loop {
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	return &Loop{
		machine: m,
		deps:    deps,
		params:  p,
		now:     time.Now,
	}
}

// OnSnapshot registers a hook called with every published snapshot.
func (l *Loop) OnSnapshot(f func(Snapshot)) {
	l.observer = f
}

// Tick runs one iteration: poll, transition, one motion step, actuate,
// and render when the mode or the code changed.
func (l *Loop) Tick() error {
	var res statemachine.Result

	soundFired := false
	if l.deps.Sound != nil {
		hit, err := l.deps.Sound.DetectOnce(l.params.SoundThreshold, l.params.SoundWindow)
		if err != nil {
			return fmt.Errorf("sound trigger: %w", err)
		}
		if hit {
			res = l.machine.ForceIdle()
			soundFired = true
		}
	}

	// A sound transition takes this tick's single event slot.
	if !soundFired && l.deps.Input != nil {
		k, ok, err := l.deps.Input.Poll()
		if err != nil {
			return fmt.Errorf("input: %w", err)
		}
		if ok {
			res = l.machine.HandleKey(k)
		}
	}

	if res.ToggleLaser && l.deps.Laser != nil {
		if err := l.deps.Laser.Toggle(); err != nil {
			return fmt.Errorf("laser: %w", err)
		}
	}

	pos := l.machine.Advance()
	if err := l.deps.Motion.MoveTo(pos); err != nil {
		return err
	}
	l.last = pos
	l.ticks++
	debug.Angles(l.ticks, pos.Pan, pos.Tilt)

	if res.Confirmed {
		l.publish("confirm", res.Code)
	}
	if !l.rendered || res.NeedsRender() {
		if err := l.render(); err != nil {
			return err
		}
	}
	return nil
}

// Run ticks at the configured interval until ctx is cancelled or a
// collaborator fails. Either way the mount is parked before returning.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.params.Interval)
	defer ticker.Stop()
	defer l.shutdown()

	debug.Info("Control loop started (tick %v, mode %s)", l.params.Interval, l.machine.Mode())
	for {
		if err := l.Tick(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			debug.Info("Control loop stopped after %d ticks", l.ticks)
			return nil
		case <-ticker.C:
		}
	}
}

// Ticks returns the number of completed ticks.
func (l *Loop) Ticks() uint64 { return l.ticks }

func (l *Loop) render() error {
	s := display.Status{
		Mode: l.machine.Mode().String(),
		Code: l.machine.Code(),
	}
	if l.params.ShowClock {
		s.Timestamp = l.now()
	}
	if err := l.deps.Renderer.Show(s); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	l.rendered = true
	l.publish("render", "")
	return nil
}

func (l *Loop) publish(event, confirmed string) {
	if l.observer == nil {
		return
	}
	laserOn := false
	if l.deps.Laser != nil {
		laserOn = l.deps.Laser.On()
	}
	l.observer(Snapshot{
		Event:     event,
		Mode:      l.machine.Mode().String(),
		Code:      l.machine.Code(),
		Confirmed: confirmed,
		Laser:     laserOn,
		Pan:       l.last.Pan,
		Tilt:      l.last.Tilt,
		Tick:      l.ticks,
		Time:      l.now(),
	})
}

// shutdown leaves the rig safe: servos centered, laser off.
func (l *Loop) shutdown() {
	debug.Live("Parking mount at neutral")
	if err := l.deps.Motion.Park(); err != nil {
		debug.Error(fmt.Errorf("park: %w", err))
	}
	if l.deps.Laser != nil {
		if err := l.deps.Laser.Off(); err != nil {
			debug.Error(fmt.Errorf("laser off: %w", err))
		}
	}
}
