package adc

import (
	"fmt"

	"github.com/cjeanneret/mattoscam/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// MCP3208Config selects the SPI wiring of the converter.
type MCP3208Config struct {
	ChipSelect uint8 // CE0 = 0, CE1 = 1
	SpeedHz    int   // 0 = 1 MHz
}

// MCP3208 is an 8-channel 12-bit SPI ADC driven through go-rpio's SPI0.
// The Pi has no analog input, so the microphone module hangs off it.
type MCP3208 struct {
	buf [3]byte
}

// NewMCP3208 claims SPI0 for the converter.
func NewMCP3208(cfg MCP3208Config) (*MCP3208, error) {
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		return nil, fmt.Errorf("spi begin: %w", err)
	}
	speed := cfg.SpeedHz
	if speed <= 0 {
		speed = 1_000_000
	}
	rpio.SpiSpeed(speed)
	rpio.SpiChipSelect(cfg.ChipSelect)
	debug.Verbose("MCP3208 on SPI0 CE%d at %d Hz", cfg.ChipSelect, speed)
	return &MCP3208{}, nil
}

func (m *MCP3208) Read(channel int) (int, error) {
	if channel < 0 || channel > 7 {
		return 0, fmt.Errorf("adc channel %d out of range 0-7", channel)
	}
	m.buf = encodeRequest(channel)
	rpio.SpiExchange(m.buf[:])
	v := decodeResponse(m.buf)
	debug.Trace("ADC read ch=%d value=%d", channel, v)
	return v, nil
}

func (m *MCP3208) Close() error {
	rpio.SpiEnd(rpio.Spi0)
	return nil
}

// encodeRequest builds a single-ended conversion request:
// start bit, SGL=1, then D2 D1 D0.
func encodeRequest(channel int) [3]byte {
	ch := byte(channel)
	return [3]byte{0x06 | (ch >> 2), (ch & 0x03) << 6, 0x00}
}

func decodeResponse(rx [3]byte) int {
	return int(rx[1]&0x0F)<<8 | int(rx[2])
}
