package display

import (
	"image"
	"image/draw"
	"time"

	"github.com/cjeanneret/mattoscam/internal/debug"
	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Title is printed on the first text line of every frame.
const Title = "MattosCam"

// Status is everything shown on the panel. A zero Timestamp hides the clock.
type Status struct {
	Mode      string
	Code      string
	Timestamp time.Time
}

// Renderer paints a status. Show must be idempotent: rendering the same
// status twice leaves the panel unchanged.
type Renderer interface {
	Show(s Status) error
}

// Text lines, top to bottom, as baselines for the 7x13 face (ascent 11).
const (
	lineClock = 11
	lineTitle = 26
	lineMode  = 41
	lineCode  = 56
)

// Lines returns the text lines of a frame, empty clock line included.
func Lines(s Status) [4]string {
	var clock string
	if !s.Timestamp.IsZero() {
		clock = s.Timestamp.Format("2006-01-02 15:04")
	}
	return [4]string{
		clock,
		Title,
		"Modo: " + s.Mode,
		"Codigo: " + s.Code,
	}
}

// Compose draws the frame for s into a 1-bit image of the given bounds.
func Compose(s Status, bounds image.Rectangle) *image1bit.VerticalLSB {
	dc := gg.NewContext(bounds.Dx(), bounds.Dy())
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)
	dc.SetFontFace(basicfont.Face7x13)

	lines := Lines(s)
	for i, y := range [4]float64{lineClock, lineTitle, lineMode, lineCode} {
		if lines[i] != "" {
			dc.DrawString(lines[i], 0, y)
		}
	}

	img := image1bit.NewVerticalLSB(bounds)
	draw.Draw(img, bounds, dc.Image(), image.Point{}, draw.Src)
	return img
}

// Log is a renderer for headless runs: it prints the frame text.
type Log struct{}

func (Log) Show(s Status) error {
	l := Lines(s)
	debug.Live("Display: [%s] %s | %s | %s", l[0], l[1], l[2], l[3])
	return nil
}
