package motion

import (
	"fmt"

	"github.com/cjeanneret/mattoscam/internal/hw/servo"
)

// Controller orchestrates pan/tilt movements via the servo actuator.
// It is the layer between the state machine and the hardware, and the
// last place angles are clamped before reaching it.
type Controller struct {
	act   servo.Actuator
	limit Range
}

func NewController(act servo.Actuator) *Controller {
	return &Controller{
		act:   act,
		limit: Range{servo.MinAngle, servo.MaxAngle},
	}
}

func (c *Controller) MovePan(deg int) error {
	return c.move(servo.Pan, deg)
}

func (c *Controller) MoveTilt(deg int) error {
	return c.move(servo.Tilt, deg)
}

// MoveTo sends both angles, pan first. There is no change suppression:
// every call reaches the actuator.
func (c *Controller) MoveTo(p Position) error {
	if err := c.MovePan(p.Pan); err != nil {
		return err
	}
	return c.MoveTilt(p.Tilt)
}

// Park centers both axes.
func (c *Controller) Park() error {
	return c.MoveTo(Position{Pan: servo.NeutralAngle, Tilt: servo.NeutralAngle})
}

func (c *Controller) move(axis servo.Axis, deg int) error {
	if err := c.act.SetAngle(axis, c.limit.Clamp(deg)); err != nil {
		return fmt.Errorf("move %s to %d: %w", axis, deg, err)
	}
	return nil
}
