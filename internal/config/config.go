package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxConfigFileBytes caps the size of a config file.
const MaxConfigFileBytes = 64 << 10

// KeypadConfig holds the wiring of the 4x4 matrix keypad (BCM numbering).
type KeypadConfig struct {
	RowPins    []int `yaml:"row_pins"`    // driven HIGH one at a time
	ColPins    []int `yaml:"col_pins"`    // inputs with pull-down
	DebounceMs int   `yaml:"debounce_ms"` // minimum interval between accepted keys
}

// ServoConfig describes the PCA9685 board and the two servos on it.
type ServoConfig struct {
	I2CBus      string `yaml:"i2c_bus"`      // periph bus name, "" = first available
	Address     int    `yaml:"address"`      // I2C address (0x40)
	FreqHz      int    `yaml:"freq_hz"`      // PWM frequency (50 Hz for servos)
	PanChannel  int    `yaml:"pan_channel"`  // PCA9685 channel of the pan servo
	TiltChannel int    `yaml:"tilt_channel"` // PCA9685 channel of the tilt servo
	MinDuty     int    `yaml:"min_duty"`     // counts at 0° (out of 4096)
	MaxDuty     int    `yaml:"max_duty"`     // counts at 180°
}

// MicrophoneConfig describes the sound trigger.
type MicrophoneConfig struct {
	Enabled      bool  `yaml:"enabled"`       // clap forces Chill mode
	ADCChannel   int   `yaml:"adc_channel"`   // MCP3208 channel 0-7
	ChipSelect   uint8 `yaml:"chip_select"`   // SPI0 CE line
	Threshold    int   `yaml:"threshold"`     // ADC counts (0-4095)
	WindowMs     int   `yaml:"window_ms"`     // sampling window per tick
	PollMs       int   `yaml:"poll_ms"`       // sampling interval
	MaxHoldMs    int   `yaml:"max_hold_ms"`   // cap on the trailing-edge wait
	ClapWindowMs int   `yaml:"clap_window_ms"` // window of the clap counting diagnostic
}

// DisplayConfig describes the SSD1306 OLED.
type DisplayConfig struct {
	Enabled   bool   `yaml:"enabled"`
	I2CBus    string `yaml:"i2c_bus"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	ShowClock bool   `yaml:"show_clock"` // first line shows the host time
}

// LaserConfig describes the laser pointer output.
type LaserConfig struct {
	Pin int `yaml:"pin"` // BCM pin, 0 = not wired
}

// LoopConfig tunes the control loop.
type LoopConfig struct {
	TickMs int `yaml:"tick_ms"` // control loop period
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio"`   // mock every device (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Keypad     KeypadConfig     `yaml:"keypad"`
	Servos     ServoConfig      `yaml:"servos"`
	Microphone MicrophoneConfig `yaml:"microphone"`
	Display    DisplayConfig    `yaml:"display"`
	Laser      LaserConfig      `yaml:"laser"`
	Loop       LoopConfig       `yaml:"loop"`
	Defaults   DefaultsConfig   `yaml:"defaults"`
}

// ValidateConfigPath accepts only *.yaml files directly inside a
// directory named "configs".
func ValidateConfigPath(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	clean := filepath.Clean(path)
	if filepath.Ext(clean) != ".yaml" {
		return fmt.Errorf("config file must have .yaml extension: %s", path)
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config file must be inside a configs/ directory: %s", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if len(data) > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file larger than %d bytes", MaxConfigFileBytes)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if len(cfg.Keypad.RowPins) == 0 {
		cfg.Keypad.RowPins = []int{5, 6, 13, 19}
	}
	if len(cfg.Keypad.ColPins) == 0 {
		cfg.Keypad.ColPins = []int{12, 16, 20, 21}
	}
	if cfg.Keypad.DebounceMs <= 0 {
		cfg.Keypad.DebounceMs = 300
	}

	if cfg.Servos.Address == 0 {
		cfg.Servos.Address = 0x40
	}
	if cfg.Servos.FreqHz <= 0 {
		cfg.Servos.FreqHz = 50
	}
	if cfg.Servos.PanChannel == 0 && cfg.Servos.TiltChannel == 0 {
		cfg.Servos.PanChannel = 1 // tilt stays on channel 0
	}
	if cfg.Servos.MinDuty <= 0 {
		cfg.Servos.MinDuty = 130 // ~0.65 ms
	}
	if cfg.Servos.MaxDuty <= 0 {
		cfg.Servos.MaxDuty = 510 // ~2.45 ms
	}

	if cfg.Microphone.Threshold <= 0 {
		cfg.Microphone.Threshold = 500
	}
	if cfg.Microphone.WindowMs <= 0 {
		cfg.Microphone.WindowMs = 20
	}
	if cfg.Microphone.PollMs <= 0 {
		cfg.Microphone.PollMs = 10
	}
	if cfg.Microphone.MaxHoldMs <= 0 {
		cfg.Microphone.MaxHoldMs = 1000
	}
	if cfg.Microphone.ClapWindowMs <= 0 {
		cfg.Microphone.ClapWindowMs = 2000
	}

	if cfg.Display.Width <= 0 {
		cfg.Display.Width = 128
	}
	if cfg.Display.Height <= 0 {
		cfg.Display.Height = 64
	}

	if cfg.Loop.TickMs <= 0 {
		cfg.Loop.TickMs = 50
	}
}

func (cfg *Config) validate() error {
	if len(cfg.Keypad.RowPins) != 4 || len(cfg.Keypad.ColPins) != 4 {
		return fmt.Errorf("keypad needs 4 row_pins and 4 col_pins, got %d and %d",
			len(cfg.Keypad.RowPins), len(cfg.Keypad.ColPins))
	}
	if cfg.Servos.Address < 0x03 || cfg.Servos.Address > 0x77 {
		return fmt.Errorf("servos.address must be a 7-bit I2C address, got %#x", cfg.Servos.Address)
	}
	for name, ch := range map[string]int{"pan_channel": cfg.Servos.PanChannel, "tilt_channel": cfg.Servos.TiltChannel} {
		if ch < 0 || ch > 15 {
			return fmt.Errorf("servos.%s must be between 0 and 15, got %d", name, ch)
		}
	}
	if cfg.Servos.PanChannel == cfg.Servos.TiltChannel {
		return fmt.Errorf("pan and tilt servos share channel %d", cfg.Servos.PanChannel)
	}
	if cfg.Servos.MaxDuty <= cfg.Servos.MinDuty || cfg.Servos.MaxDuty > 4095 {
		return fmt.Errorf("servo duty range must satisfy 0 < min_duty < max_duty <= 4095, got %d..%d",
			cfg.Servos.MinDuty, cfg.Servos.MaxDuty)
	}
	if cfg.Microphone.Threshold > 4095 {
		return fmt.Errorf("microphone.threshold must be <= 4095, got %d", cfg.Microphone.Threshold)
	}
	if cfg.Microphone.ADCChannel < 0 || cfg.Microphone.ADCChannel > 7 {
		return fmt.Errorf("microphone.adc_channel must be between 0 and 7, got %d", cfg.Microphone.ADCChannel)
	}
	if cfg.Microphone.ChipSelect > 1 {
		return fmt.Errorf("microphone.chip_select must be 0 or 1, got %d", cfg.Microphone.ChipSelect)
	}
	if cfg.Loop.TickMs > 1000 {
		return fmt.Errorf("loop.tick_ms must be <= 1000, got %d", cfg.Loop.TickMs)
	}
	if cfg.Laser.Pin < 0 {
		return fmt.Errorf("laser.pin must be >= 0, got %d", cfg.Laser.Pin)
	}
	return nil
}

// TickInterval returns the control loop period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Loop.TickMs) * time.Millisecond
}

// Debounce returns the keypad debounce interval.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Keypad.DebounceMs) * time.Millisecond
}

// SoundWindow returns the per-tick microphone sampling window.
func (c *Config) SoundWindow() time.Duration {
	return time.Duration(c.Microphone.WindowMs) * time.Millisecond
}

// SoundPoll returns the microphone sampling interval.
func (c *Config) SoundPoll() time.Duration {
	return time.Duration(c.Microphone.PollMs) * time.Millisecond
}

// SoundMaxHold returns the cap on the trailing-edge wait.
func (c *Config) SoundMaxHold() time.Duration {
	return time.Duration(c.Microphone.MaxHoldMs) * time.Millisecond
}

// ClapWindow returns the window of the clap counting diagnostic.
func (c *Config) ClapWindow() time.Duration {
	return time.Duration(c.Microphone.ClapWindowMs) * time.Millisecond
}

// KeypadPins returns the row and column pins as fixed arrays.
func (c *Config) KeypadPins() (rows, cols [4]int) {
	copy(rows[:], c.Keypad.RowPins)
	copy(cols[:], c.Keypad.ColPins)
	return rows, cols
}
