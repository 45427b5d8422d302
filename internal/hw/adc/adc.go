package adc

import (
	"sync"

	"github.com/cjeanneret/mattoscam/internal/debug"
)

// MaxValue is the full-scale reading of a 12-bit converter.
const MaxValue = 4095

// Reader samples one analog channel.
type Reader interface {
	Read(channel int) (int, error)
	Close() error
}

// NewReader returns the MCP3208 reader, or a silent mock when mock is set.
// The real reader needs go-rpio already opened (see gpio.NewRPiRealDriver).
func NewReader(mock bool, cfg MCP3208Config) (Reader, error) {
	if mock {
		debug.Info("Using MOCK ADC (silent microphone)")
		return &Mock{}, nil
	}
	return NewMCP3208(cfg)
}

// Mock replays a scripted sequence of samples, then repeats the last one.
// An empty script reads 0 forever.
type Mock struct {
	mu      sync.Mutex
	Samples []int
	pos     int
	n       int
}

// NewMock returns a mock that replays samples.
func NewMock(samples ...int) *Mock {
	return &Mock{Samples: samples}
}

func (m *Mock) Read(channel int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	if len(m.Samples) == 0 {
		return 0, nil
	}
	v := m.Samples[m.pos]
	if m.pos < len(m.Samples)-1 {
		m.pos++
	}
	debug.Trace("ADC read ch=%d value=%d (mock)", channel, v)
	return v, nil
}

// Reads returns how many times Read was called.
func (m *Mock) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}

func (m *Mock) Close() error { return nil }
