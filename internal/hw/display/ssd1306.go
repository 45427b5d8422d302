package display

import (
	"fmt"
	"image"

	"github.com/cjeanneret/mattoscam/internal/debug"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
)

// panel is the part of ssd1306.Dev the renderer uses.
type panel interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	Halt() error
}

// SSD1306 renders status frames on an I2C SSD1306 OLED.
type SSD1306 struct {
	dev panel
}

// NewSSD1306 opens the panel on bus. Width and height default to 128x64.
func NewSSD1306(bus i2c.Bus, width, height int) (*SSD1306, error) {
	opts := ssd1306.DefaultOpts
	if width > 0 {
		opts.W = width
	}
	if height > 0 {
		opts.H = height
	}
	dev, err := ssd1306.NewI2C(bus, &opts)
	if err != nil {
		return nil, fmt.Errorf("ssd1306 %dx%d: %w", opts.W, opts.H, err)
	}
	debug.Verbose("SSD1306 %dx%d ready", opts.W, opts.H)
	return &SSD1306{dev: dev}, nil
}

// Show redraws the whole panel from s.
func (d *SSD1306) Show(s Status) error {
	bounds := d.dev.Bounds()
	img := Compose(s, bounds)
	debug.I2C("ssd1306", "Draw", fmt.Sprintf("mode=%s code=%q", s.Mode, s.Code))
	if err := d.dev.Draw(bounds, img, image.Point{}); err != nil {
		return fmt.Errorf("draw status: %w", err)
	}
	return nil
}

// Close blanks the panel.
func (d *SSD1306) Close() error {
	return d.dev.Halt()
}
