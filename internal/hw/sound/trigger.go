package sound

import (
	"fmt"
	"strings"
	"time"

	"github.com/cjeanneret/mattoscam/internal/debug"
	"github.com/cjeanneret/mattoscam/internal/hw/adc"
)

// Detector is what the control loop needs from a sound trigger.
type Detector interface {
	DetectOnce(threshold int, window time.Duration) (bool, error)
}

// Config holds the sampling parameters of the microphone.
type Config struct {
	Channel int           // ADC channel of the microphone module
	Poll    time.Duration // sampling interval, 0 = 10ms
	MaxHold time.Duration // cap on the trailing-edge wait, 0 = 1s
}

// Trigger turns raw microphone samples into discrete sound events.
type Trigger struct {
	adc   adc.Reader
	cfg   Config
	now   func() time.Time
	sleep func(time.Duration)
}

// NewTrigger creates a trigger sampling r.
func NewTrigger(r adc.Reader, cfg Config) *Trigger {
	if cfg.Poll <= 0 {
		cfg.Poll = 10 * time.Millisecond
	}
	if cfg.MaxHold <= 0 {
		cfg.MaxHold = time.Second
	}
	return &Trigger{
		adc:   r,
		cfg:   cfg,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// DetectOnce samples until a reading exceeds threshold or window elapses.
// After a crossing it waits for the signal to fall back under threshold
// (bounded by MaxHold) so one clap yields one event. At least one sample
// is always taken.
func (t *Trigger) DetectOnce(threshold int, window time.Duration) (bool, error) {
	start := t.now()
	for {
		v, err := t.adc.Read(t.cfg.Channel)
		if err != nil {
			return false, fmt.Errorf("read microphone: %w", err)
		}
		if v > threshold {
			debug.Live("Sound: %d > %d", v, threshold)
			if err := t.waitRelease(threshold); err != nil {
				return false, err
			}
			return true, nil
		}
		if t.now().Sub(start) >= window {
			return false, nil
		}
		t.sleep(t.cfg.Poll)
	}
}

// CountClaps counts distinct threshold crossings during the whole window.
func (t *Trigger) CountClaps(threshold int, window time.Duration) (int, error) {
	start := t.now()
	claps := 0
	for t.now().Sub(start) < window {
		v, err := t.adc.Read(t.cfg.Channel)
		if err != nil {
			return claps, fmt.Errorf("read microphone: %w", err)
		}
		if v > threshold {
			claps++
			if err := t.waitRelease(threshold); err != nil {
				return claps, err
			}
		}
		t.sleep(t.cfg.Poll)
	}
	return claps, nil
}

func (t *Trigger) waitRelease(threshold int) error {
	start := t.now()
	for {
		t.sleep(t.cfg.Poll)
		v, err := t.adc.Read(t.cfg.Channel)
		if err != nil {
			return fmt.Errorf("read microphone: %w", err)
		}
		if v <= threshold {
			return nil
		}
		if t.now().Sub(start) >= t.cfg.MaxHold {
			debug.Verbose("Sound: signal still above %d after %v, giving up wait", threshold, t.cfg.MaxHold)
			return nil
		}
	}
}

// LevelBar renders a reading as a console bar graph, e.g. " 512 |#######".
func LevelBar(value, max, width int) string {
	if max <= 0 {
		max = adc.MaxValue
	}
	n := value * width / max
	if n < 0 {
		n = 0
	} else if n > width {
		n = width
	}
	return fmt.Sprintf("%4d |%s", value, strings.Repeat("#", n))
}
