package main

import (
	"fmt"
	"log"

	"github.com/cjeanneret/mattoscam/internal/config"
	"github.com/cjeanneret/mattoscam/internal/debug"
	"github.com/cjeanneret/mattoscam/internal/hw/adc"
	"github.com/cjeanneret/mattoscam/internal/hw/display"
	"github.com/cjeanneret/mattoscam/internal/hw/gpio"
	"github.com/cjeanneret/mattoscam/internal/hw/keypad"
	"github.com/cjeanneret/mattoscam/internal/hw/laser"
	"github.com/cjeanneret/mattoscam/internal/hw/servo"
	"github.com/cjeanneret/mattoscam/internal/hw/sound"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// rig holds every device the control loop drives.
type rig struct {
	keypad  *keypad.Scanner
	sound   *sound.Trigger // nil when the microphone is disabled
	servos  servo.Actuator
	display display.Renderer
	laser   *laser.Laser

	closers []func() error
}

// openRig opens the devices described by cfg. With mock_gpio the I2C
// devices are replaced by a recording servo mock and a log renderer.
func openRig(cfg *config.Config, g gpio.Driver) (*rig, error) {
	r := &rig{}
	ok := false
	defer func() {
		if !ok {
			r.Close()
		}
	}()

	debug.Step(2, "Initializing keypad")
	rows, cols := cfg.KeypadPins()
	kp, err := keypad.NewScanner(g, keypad.Config{RowPins: rows, ColPins: cols, Debounce: cfg.Debounce()})
	if err != nil {
		return nil, fmt.Errorf("keypad: %w", err)
	}
	r.keypad = kp
	debug.PrintStruct("Keypad config", cfg.Keypad)

	debug.Step(3, "Initializing laser")
	if r.laser, err = laser.New(g, cfg.Laser.Pin); err != nil {
		return nil, fmt.Errorf("laser: %w", err)
	}

	if cfg.Microphone.Enabled {
		debug.Step(4, "Initializing microphone")
		reader, err := adc.NewReader(cfg.Defaults.MockGPIO, adc.MCP3208Config{ChipSelect: cfg.Microphone.ChipSelect})
		if err != nil {
			return nil, fmt.Errorf("microphone adc: %w", err)
		}
		r.closers = append(r.closers, reader.Close)
		r.sound = sound.NewTrigger(reader, soundConfig(cfg))
		debug.PrintStruct("Microphone config", cfg.Microphone)
	}

	debug.Step(5, "Initializing servos and display")
	if cfg.Defaults.MockGPIO {
		debug.Info("Using MOCK servos and log display")
		r.servos = servo.NewMock()
		r.display = display.Log{}
		ok = true
		return r, nil
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	buses := map[string]i2c.Bus{}
	openBus := func(name string) (i2c.Bus, error) {
		if b, found := buses[name]; found {
			return b, nil
		}
		b, err := i2creg.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
		}
		buses[name] = b
		r.closers = append(r.closers, b.Close)
		return b, nil
	}

	bus, err := openBus(cfg.Servos.I2CBus)
	if err != nil {
		return nil, err
	}
	pca, err := servo.NewPCA9685(bus, servo.PCA9685Config{
		Address:     uint16(cfg.Servos.Address),
		FreqHz:      cfg.Servos.FreqHz,
		PanChannel:  cfg.Servos.PanChannel,
		TiltChannel: cfg.Servos.TiltChannel,
		Duty:        servo.DutyRange{Min: cfg.Servos.MinDuty, Max: cfg.Servos.MaxDuty},
	})
	if err != nil {
		return nil, err
	}
	r.servos = pca
	r.closers = append(r.closers, pca.Close)
	debug.PrintStruct("Servo config", cfg.Servos)

	if !cfg.Display.Enabled {
		r.display = display.Log{}
		ok = true
		return r, nil
	}
	bus, err = openBus(cfg.Display.I2CBus)
	if err != nil {
		return nil, err
	}
	oled, err := display.NewSSD1306(bus, cfg.Display.Width, cfg.Display.Height)
	if err != nil {
		return nil, err
	}
	r.display = oled
	r.closers = append(r.closers, oled.Close)

	ok = true
	return r, nil
}

// Close releases devices in reverse opening order.
func (r *rig) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			log.Printf("closing device failed: %v", err)
		}
	}
	r.closers = nil
}

func soundConfig(cfg *config.Config) sound.Config {
	return sound.Config{
		Channel: cfg.Microphone.ADCChannel,
		Poll:    cfg.SoundPoll(),
		MaxHold: cfg.SoundMaxHold(),
	}
}
