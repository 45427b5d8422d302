package keypad

import (
	"fmt"
	"time"

	"github.com/cjeanneret/mattoscam/internal/debug"
	"github.com/cjeanneret/mattoscam/internal/hw/gpio"
)

// DefaultDebounce is the minimum interval between two accepted keys.
const DefaultDebounce = 300 * time.Millisecond

// Source yields at most one key per call and never blocks.
type Source interface {
	Poll() (Key, bool, error)
}

// Config holds the wiring of the key matrix.
type Config struct {
	RowPins  [4]int        // driven HIGH one at a time (BCM)
	ColPins  [4]int        // read with pull-down (BCM)
	Debounce time.Duration // 0 = DefaultDebounce
}

// Scanner reads the 4x4 matrix through a GPIO driver.
type Scanner struct {
	gpio       gpio.Driver
	cfg        Config
	now        func() time.Time
	lastAccept time.Time
}

// NewScanner configures row pins as outputs (LOW) and column pins as
// pulled-down inputs.
func NewScanner(g gpio.Driver, cfg Config) (*Scanner, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	for _, pin := range cfg.RowPins {
		if err := g.SetupPin(pin, gpio.Output); err != nil {
			return nil, fmt.Errorf("setup row pin %d: %w", pin, err)
		}
		if err := g.WritePin(pin, gpio.Low); err != nil {
			return nil, fmt.Errorf("reset row pin %d: %w", pin, err)
		}
	}
	for _, pin := range cfg.ColPins {
		if err := g.SetupPin(pin, gpio.InputPullDown); err != nil {
			return nil, fmt.Errorf("setup col pin %d: %w", pin, err)
		}
	}
	return &Scanner{
		gpio: g,
		cfg:  cfg,
		now:  time.Now,
	}, nil
}

// Poll scans the matrix once. Within the debounce interval after an
// accepted key it returns nothing without touching the pins.
func (s *Scanner) Poll() (Key, bool, error) {
	now := s.now()
	if !s.lastAccept.IsZero() && now.Sub(s.lastAccept) < s.cfg.Debounce {
		return KeyNone, false, nil
	}

	for r, rowPin := range s.cfg.RowPins {
		if err := s.gpio.WritePin(rowPin, gpio.High); err != nil {
			return KeyNone, false, fmt.Errorf("drive row %d: %w", r, err)
		}
		for c, colPin := range s.cfg.ColPins {
			lvl, err := s.gpio.ReadPin(colPin)
			if err != nil {
				_ = s.gpio.WritePin(rowPin, gpio.Low)
				return KeyNone, false, fmt.Errorf("read col %d: %w", c, err)
			}
			if lvl == gpio.High {
				if err := s.gpio.WritePin(rowPin, gpio.Low); err != nil {
					return KeyNone, false, fmt.Errorf("release row %d: %w", r, err)
				}
				s.lastAccept = now
				key := Layout[r][c]
				debug.Key("keypad", key.String())
				return key, true, nil
			}
		}
		if err := s.gpio.WritePin(rowPin, gpio.Low); err != nil {
			return KeyNone, false, fmt.Errorf("release row %d: %w", r, err)
		}
	}
	return KeyNone, false, nil
}
