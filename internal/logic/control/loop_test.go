package control

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cjeanneret/mattoscam/internal/hw/display"
	"github.com/cjeanneret/mattoscam/internal/hw/keypad"
	"github.com/cjeanneret/mattoscam/internal/hw/servo"
	"github.com/cjeanneret/mattoscam/internal/logic/motion"
	"github.com/cjeanneret/mattoscam/internal/logic/statemachine"
)

// scriptedInput returns one scripted key per poll; KeyNone means no key.
type scriptedInput struct {
	keys  []keypad.Key
	polls int
	err   error
}

func (s *scriptedInput) Poll() (keypad.Key, bool, error) {
	s.polls++
	if s.err != nil {
		return keypad.KeyNone, false, s.err
	}
	if len(s.keys) == 0 {
		return keypad.KeyNone, false, nil
	}
	k := s.keys[0]
	s.keys = s.keys[1:]
	return k, k != keypad.KeyNone, nil
}

// scriptedSound returns one scripted detection per call.
type scriptedSound struct {
	hits []bool
}

func (s *scriptedSound) DetectOnce(threshold int, window time.Duration) (bool, error) {
	if len(s.hits) == 0 {
		return false, nil
	}
	h := s.hits[0]
	s.hits = s.hits[1:]
	return h, nil
}

// recordingActuator records (pan, tilt) pairs.
type recordingActuator struct {
	mu    sync.Mutex
	calls []int
	axes  []servo.Axis
	err   error
}

func (r *recordingActuator) SetAngle(axis servo.Axis, deg int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.axes = append(r.axes, axis)
	r.calls = append(r.calls, deg)
	return nil
}

func (r *recordingActuator) lastPosition() motion.Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.calls)
	return motion.Position{Pan: r.calls[n-2], Tilt: r.calls[n-1]}
}

func (r *recordingActuator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// recordingRenderer records shown statuses.
type recordingRenderer struct {
	shown []display.Status
	err   error
}

func (r *recordingRenderer) Show(s display.Status) error {
	if r.err != nil {
		return r.err
	}
	r.shown = append(r.shown, s)
	return nil
}

type fakeLaser struct {
	on      bool
	toggles int
}

func (f *fakeLaser) Toggle() error { f.on = !f.on; f.toggles++; return nil }
func (f *fakeLaser) Off() error    { f.on = false; return nil }
func (f *fakeLaser) On() bool      { return f.on }

type fixture struct {
	loop     *Loop
	machine  *statemachine.Machine
	input    *scriptedInput
	act      *recordingActuator
	renderer *recordingRenderer
	laser    *fakeLaser
	snaps    []Snapshot
}

func newFixture(keys ...keypad.Key) *fixture {
	f := &fixture{
		machine:  statemachine.New(),
		input:    &scriptedInput{keys: keys},
		act:      &recordingActuator{},
		renderer: &recordingRenderer{},
		laser:    &fakeLaser{},
	}
	f.loop = NewLoop(f.machine, Deps{
		Input:    f.input,
		Motion:   motion.NewController(f.act),
		Renderer: f.renderer,
		Laser:    f.laser,
	}, Params{Interval: time.Millisecond})
	f.loop.OnSnapshot(func(s Snapshot) { f.snaps = append(f.snaps, s) })
	return f
}

func (f *fixture) tick(t *testing.T) motion.Position {
	t.Helper()
	if err := f.loop.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	return f.act.lastPosition()
}

func TestTick_FirstTickSearch(t *testing.T) {
	f := newFixture()
	if p := f.tick(t); p != (motion.Position{Pan: 0, Tilt: 60}) {
		t.Errorf("first tick = %+v, want {0 60}", p)
	}
	if len(f.renderer.shown) != 1 || f.renderer.shown[0].Mode != "Busqueda" {
		t.Errorf("first tick should render Busqueda, got %+v", f.renderer.shown)
	}
	if !f.renderer.shown[0].Timestamp.IsZero() {
		t.Error("timestamp set without ShowClock")
	}
}

func TestTick_ScenarioKeyA(t *testing.T) {
	f := newFixture(keypad.KeyNone, keypad.KeyA)
	f.tick(t)
	p := f.tick(t)
	if f.machine.Mode() != statemachine.Idle {
		t.Fatalf("mode = %v, want Chill", f.machine.Mode())
	}
	if p != (motion.Position{Pan: 60, Tilt: 90}) {
		t.Errorf("tick after A = %+v, want {60 90}", p)
	}
	if c := f.machine.Cursor(); c.Step != 1 || c.Direction != +1 {
		t.Errorf("cursor after one Idle step = %+v, want {1 +1}", c)
	}
	if n := len(f.renderer.shown); n != 2 {
		t.Errorf("renders = %d, want 2 (boot + mode change)", n)
	}
}

func TestTick_ActuatesEveryTick(t *testing.T) {
	f := newFixture()
	for i := 0; i < 10; i++ {
		f.tick(t)
	}
	if f.act.count() != 20 {
		t.Errorf("actuator calls = %d, want 20", f.act.count())
	}
	if len(f.renderer.shown) != 1 {
		t.Errorf("renders = %d, want 1 (no change after boot)", len(f.renderer.shown))
	}
	if f.loop.Ticks() != 10 {
		t.Errorf("Ticks() = %d, want 10", f.loop.Ticks())
	}
}

func TestTick_CodeEntryAndConfirm(t *testing.T) {
	f := newFixture(keypad.KeyNone, keypad.Key1, keypad.Key2, keypad.Key3, keypad.Key4, keypad.Key5, keypad.KeyHash)
	for i := 0; i < 7; i++ {
		f.tick(t)
	}
	// boot render, then one per accepted digit (4), then the clear
	if n := len(f.renderer.shown); n != 6 {
		t.Errorf("renders = %d, want 6", n)
	}
	if got := f.renderer.shown[4].Code; got != "1234" {
		t.Errorf("code shown after 4 digits = %q, want 1234", got)
	}
	if got := f.renderer.shown[5].Code; got != "" {
		t.Errorf("code shown after # = %q, want empty", got)
	}

	var confirmed []string
	for _, s := range f.snaps {
		if s.Event == "confirm" {
			confirmed = append(confirmed, s.Confirmed)
		}
	}
	if len(confirmed) != 1 || confirmed[0] != "1234" {
		t.Errorf("confirmed = %v, want [1234]", confirmed)
	}
}

func TestTick_LaserToggleDoesNotRender(t *testing.T) {
	f := newFixture(keypad.KeyNone, keypad.KeyD)
	f.tick(t)
	f.tick(t)
	if !f.laser.on || f.laser.toggles != 1 {
		t.Errorf("laser = %+v, want toggled on once", f.laser)
	}
	if len(f.renderer.shown) != 1 {
		t.Errorf("renders = %d, want 1", len(f.renderer.shown))
	}
}

func TestTick_SoundForcesIdleAndSkipsInput(t *testing.T) {
	f := newFixture(keypad.KeyC, keypad.KeyC)
	f.loop.deps.Sound = &scriptedSound{hits: []bool{false, true}}

	f.tick(t) // C -> Track
	if f.machine.Mode() != statemachine.Track {
		t.Fatalf("mode = %v, want Seguimiento", f.machine.Mode())
	}
	polls := f.input.polls

	p := f.tick(t) // sound -> Idle, keypad not polled
	if f.machine.Mode() != statemachine.Idle {
		t.Errorf("mode = %v, want Chill", f.machine.Mode())
	}
	if f.input.polls != polls {
		t.Error("input must not be polled in a tick where sound fired")
	}
	if p != (motion.Position{Pan: 60, Tilt: 90}) {
		t.Errorf("first tick after sound = %+v, want {60 90}", p)
	}
	if last := f.renderer.shown[len(f.renderer.shown)-1]; last.Mode != "Chill" {
		t.Errorf("last render mode = %q, want Chill", last.Mode)
	}
}

func TestTick_SoundInSearch(t *testing.T) {
	f := newFixture()
	f.loop.deps.Sound = &scriptedSound{hits: []bool{true}}
	f.tick(t)
	if f.machine.Mode() != statemachine.Idle {
		t.Errorf("mode = %v, want Chill", f.machine.Mode())
	}
	if c := f.machine.Cursor(); c.Step != 1 {
		t.Errorf("cursor = %+v, want one Idle step from reset", c)
	}
}

func TestTick_ShowClock(t *testing.T) {
	f := newFixture()
	fixed := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	f.loop.params.ShowClock = true
	f.loop.now = func() time.Time { return fixed }
	f.tick(t)
	if !f.renderer.shown[0].Timestamp.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", f.renderer.shown[0].Timestamp, fixed)
	}
}

func TestTick_CollaboratorErrors(t *testing.T) {
	t.Run("input", func(t *testing.T) {
		f := newFixture()
		f.input.err = errors.New("gpio gone")
		if err := f.loop.Tick(); err == nil {
			t.Error("expected input error")
		}
	})
	t.Run("actuator", func(t *testing.T) {
		f := newFixture()
		f.act.err = errors.New("i2c nack")
		if err := f.loop.Tick(); err == nil {
			t.Error("expected actuator error")
		}
	})
	t.Run("renderer", func(t *testing.T) {
		f := newFixture()
		f.renderer.err = errors.New("panel gone")
		if err := f.loop.Tick(); err == nil {
			t.Error("expected renderer error")
		}
	})
}

func TestRun_StopsOnCancelAndParks(t *testing.T) {
	f := newFixture()
	f.laser.on = true
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := f.loop.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.loop.Ticks() == 0 {
		t.Error("no ticks ran")
	}
	if p := f.act.lastPosition(); p != (motion.Position{Pan: 90, Tilt: 90}) {
		t.Errorf("final position = %+v, want parked {90 90}", p)
	}
	if f.laser.on {
		t.Error("laser should be off after Run")
	}
}

func TestRun_ReturnsCollaboratorError(t *testing.T) {
	f := newFixture()
	f.renderer.err = errors.New("panel gone")
	err := f.loop.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if p := f.act.lastPosition(); p != (motion.Position{Pan: 90, Tilt: 90}) {
		t.Errorf("final position = %+v, want parked {90 90}", p)
	}
}

func TestNewLoop_DefaultInterval(t *testing.T) {
	l := NewLoop(statemachine.New(), Deps{}, Params{})
	if l.params.Interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", l.params.Interval, DefaultInterval)
	}
}
