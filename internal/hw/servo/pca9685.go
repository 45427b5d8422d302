package servo

import (
	"fmt"

	"github.com/cjeanneret/mattoscam/internal/debug"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
)

// PCA9685Config describes the PWM board and which channel drives which axis.
type PCA9685Config struct {
	Address     uint16 // I2C address, usually 0x40
	FreqHz      int    // PWM frequency, 50 for servos
	PanChannel  int
	TiltChannel int
	Duty        DutyRange
}

// pwmDevice is the part of pca9685.Dev the actuator uses.
type pwmDevice interface {
	SetPwm(channel int, on, off gpio.Duty) error
	SetFullOff(channel int) error
}

// PCA9685 drives both servos from a PCA9685 16-channel PWM board.
type PCA9685 struct {
	dev      pwmDevice
	cfg      PCA9685Config
	channels map[Axis]int
}

// NewPCA9685 configures the board on bus and sets the servo frequency.
func NewPCA9685(bus i2c.Bus, cfg PCA9685Config) (*PCA9685, error) {
	if cfg.Address == 0 {
		cfg.Address = pca9685.I2CAddr
	}
	if cfg.FreqHz <= 0 {
		cfg.FreqHz = 50
	}
	dev, err := pca9685.NewI2C(bus, cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("pca9685 at %#x: %w", cfg.Address, err)
	}
	if err := dev.SetPwmFreq(physic.Frequency(cfg.FreqHz) * physic.Hertz); err != nil {
		return nil, fmt.Errorf("pca9685 set frequency: %w", err)
	}
	debug.Verbose("PCA9685 at %#x, %d Hz, pan=ch%d tilt=ch%d", cfg.Address, cfg.FreqHz, cfg.PanChannel, cfg.TiltChannel)
	return newPCA9685(dev, cfg), nil
}

func newPCA9685(dev pwmDevice, cfg PCA9685Config) *PCA9685 {
	if cfg.Duty == (DutyRange{}) {
		cfg.Duty = DefaultDutyRange
	}
	return &PCA9685{
		dev: dev,
		cfg: cfg,
		channels: map[Axis]int{
			Pan:  cfg.PanChannel,
			Tilt: cfg.TiltChannel,
		},
	}
}

// SetAngle writes the duty for degrees to the axis channel.
func (p *PCA9685) SetAngle(axis Axis, degrees int) error {
	ch, ok := p.channels[axis]
	if !ok {
		return fmt.Errorf("no channel for axis %s", axis)
	}
	counts := p.cfg.Duty.Counts(degrees)
	debug.I2C("pca9685", "SetPwm", fmt.Sprintf("ch=%d axis=%s deg=%d off=%d", ch, axis, degrees, counts))
	if err := p.dev.SetPwm(ch, 0, gpio.Duty(counts)); err != nil {
		return fmt.Errorf("set %s angle: %w", axis, err)
	}
	return nil
}

// Close cuts the pulses on both channels so the servos go limp.
func (p *PCA9685) Close() error {
	var first error
	for axis, ch := range p.channels {
		if err := p.dev.SetFullOff(ch); err != nil && first == nil {
			first = fmt.Errorf("release %s: %w", axis, err)
		}
	}
	return first
}
