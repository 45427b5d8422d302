package laser

import (
	"github.com/cjeanneret/mattoscam/internal/debug"
	"github.com/cjeanneret/mattoscam/internal/hw/gpio"
)

// Laser is the pointer module on the camera mount, switched by one GPIO
// (HIGH = on). Pin 0 means not wired: the state still toggles and is
// logged, nothing is driven.
type Laser struct {
	gpio gpio.Driver
	pin  int
	on   bool
}

// New configures pin as an output and switches the laser off.
func New(g gpio.Driver, pin int) (*Laser, error) {
	l := &Laser{gpio: g, pin: pin}
	if pin > 0 {
		if err := g.SetupPin(pin, gpio.Output); err != nil {
			return nil, err
		}
		if err := g.WritePin(pin, gpio.Low); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// On reports the current state.
func (l *Laser) On() bool { return l.on }

// Toggle flips the laser.
func (l *Laser) Toggle() error {
	return l.set(!l.on)
}

// Off switches the laser off.
func (l *Laser) Off() error {
	return l.set(false)
}

func (l *Laser) set(on bool) error {
	if l.pin > 0 {
		lvl := gpio.Low
		if on {
			lvl = gpio.High
		}
		if err := l.gpio.WritePin(l.pin, lvl); err != nil {
			return err
		}
	}
	l.on = on
	if on {
		debug.Live("Laser on")
	} else {
		debug.Live("Laser off")
	}
	return nil
}
