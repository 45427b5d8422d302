package servo

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/mattoscam/internal/debug"
)

// Axis names one of the two rotational axes of the mount.
type Axis int

const (
	Pan Axis = iota
	Tilt
)

func (a Axis) String() string {
	switch a {
	case Pan:
		return "pan"
	case Tilt:
		return "tilt"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Angle limits accepted by every actuator.
const (
	MinAngle     = 0
	MaxAngle     = 180
	NeutralAngle = 90
)

// Actuator drives one servo per axis. Degrees arrive pre-clamped to
// [MinAngle, MaxAngle]; the actuator only translates them into its own
// drive units.
type Actuator interface {
	SetAngle(axis Axis, degrees int) error
}

// DutyRange maps angles linearly onto PWM counts.
type DutyRange struct {
	Min int // counts at 0°
	Max int // counts at 180°
}

// DefaultDutyRange matches common SG90/MG90 servos on a 12-bit, 50 Hz
// PCA9685 (~0.65 ms to ~2.45 ms).
var DefaultDutyRange = DutyRange{Min: 130, Max: 510}

// Counts returns the off-count for degrees. Out-of-range angles are
// clamped; the mapping is monotonic.
func (r DutyRange) Counts(degrees int) int {
	if degrees < MinAngle {
		degrees = MinAngle
	} else if degrees > MaxAngle {
		degrees = MaxAngle
	}
	return r.Min + degrees*(r.Max-r.Min)/MaxAngle
}

// Mock records angles and logs them instead of moving anything.
type Mock struct {
	mu   sync.Mutex
	last map[Axis]int
	n    int
}

// NewMock returns a logging actuator.
func NewMock() *Mock {
	return &Mock{last: make(map[Axis]int)}
}

func (m *Mock) SetAngle(axis Axis, degrees int) error {
	m.mu.Lock()
	m.last[axis] = degrees
	m.n++
	m.mu.Unlock()
	debug.Trace("Servo %s -> %d° (mock)", axis, degrees)
	return nil
}

// Last returns the last angle sent to axis.
func (m *Mock) Last(axis Axis) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.last[axis]
	return v, ok
}

// Calls returns the number of SetAngle calls.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}
