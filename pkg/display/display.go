// Package display renders frames on a small monochrome screen.
//
// Drawing goes through Presenter, a cursor-and-print API in the style of the
// Adafruit GFX library, so the layout code does not care whether pixels end up
// on an SSD1306 panel, in a PNG file or nowhere.
package display

import (
	"image"
)

const (
	// Width and Height are the panel size in pixels.
	Width  = 128
	Height = 64
)

// Presenter is the set of draw operations the screen layout needs. Nothing
// is visible until Display is called.
type Presenter interface {
	Clear()
	SetCursor(x, y int)
	// SetTextSize scales the 6x8 base glyph cell.
	SetTextSize(n int)
	Print(s string)
	PrintInt(v int)
	DrawRect(x, y, w, h int)
	Display() error
}

// Sink receives finished frames.
type Sink interface {
	Show(img image.Image) error
	Close() error
}

// NopSink discards frames.
type NopSink struct{}

func (NopSink) Show(image.Image) error { return nil }
func (NopSink) Close() error           { return nil }
