package statemachine

import (
	"github.com/cjeanneret/mattoscam/internal/debug"
	"github.com/cjeanneret/mattoscam/internal/hw/keypad"
	"github.com/cjeanneret/mattoscam/internal/logic/motion"
)

// InitialMode is the mode the rig boots into.
const InitialMode = Search

// Result describes the effects of one event. The machine only mutates its
// own state; everything else is left to the caller.
type Result struct {
	ModeChanged bool   // a mode transition happened (cursor reset)
	CodeChanged bool   // the entry code buffer changed
	Confirmed   bool   // '#' was pressed
	Code        string // confirmed value when Confirmed
	ToggleLaser bool   // 'D' was pressed
}

// NeedsRender reports whether the display should be refreshed.
func (r Result) NeedsRender() bool {
	return r.ModeChanged || r.CodeChanged
}

// Machine owns the mode, the entry code and the motion cursor.
// It is not safe for concurrent use; the control loop is its only user.
type Machine struct {
	mode   Mode
	code   EntryCode
	cursor motion.State
}

// New returns a machine in InitialMode with a fresh cursor.
func New() *Machine {
	return &Machine{
		mode:   InitialMode,
		cursor: motion.Reset(),
	}
}

func (m *Machine) Mode() Mode           { return m.mode }
func (m *Machine) Code() string         { return m.code.String() }
func (m *Machine) Cursor() motion.State { return m.cursor }

// HandleKey applies one key event.
func (m *Machine) HandleKey(k keypad.Key) Result {
	switch k {
	case keypad.KeyA:
		return m.enter(Idle, "key A")
	case keypad.KeyB:
		return m.enter(Search, "key B")
	case keypad.KeyC:
		return m.enter(Track, "key C")
	case keypad.KeyD:
		return Result{ToggleLaser: true}
	case keypad.KeyStar:
		return Result{CodeChanged: m.code.Backspace()}
	case keypad.KeyHash:
		code := m.code.Take()
		debug.Code(code)
		return Result{Confirmed: true, Code: code, CodeChanged: code != ""}
	case keypad.Key0, keypad.Key1, keypad.Key2, keypad.Key3, keypad.Key4,
		keypad.Key5, keypad.Key6, keypad.Key7, keypad.Key8, keypad.Key9:
		return Result{CodeChanged: m.code.Append(k.Digit())}
	default:
		return Result{}
	}
}

// ForceIdle is the sound-trigger transition: it pre-empts any mode.
func (m *Machine) ForceIdle() Result {
	return m.enter(Idle, "sound")
}

// Advance computes this tick's position from the cursor and moves the
// cursor one step. Called exactly once per tick.
func (m *Machine) Advance() motion.Position {
	var p motion.Position
	p, m.cursor = m.mode.trajectory().Step(m.cursor)
	return p
}

func (m *Machine) enter(mode Mode, cause string) Result {
	debug.Transition(m.mode.String(), mode.String(), cause)
	m.mode = mode
	m.cursor = motion.Reset()
	return Result{ModeChanged: true}
}
