package statemachine

import (
	"fmt"

	"github.com/cjeanneret/mattoscam/internal/logic/motion"
)

// Mode is the operating mode of the rig.
type Mode int

const (
	Idle Mode = iota
	Search
	Track
)

// String returns the label shown on the display.
func (m Mode) String() string {
	switch m {
	case Idle:
		return "Chill"
	case Search:
		return "Busqueda"
	case Track:
		return "Seguimiento"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) trajectory() motion.Trajectory {
	switch m {
	case Idle:
		return motion.Idle
	case Track:
		return motion.Track
	default:
		return motion.Search
	}
}
