package display

import (
	"image"
	"strconv"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gomono"
)

// glyphHeight is the pixel height of one text row at size 1.
const glyphHeight = 8

// Canvas rasterizes Presenter calls into an in-memory image and hands it to
// a Sink on Display. Text is white on black.
type Canvas struct {
	dc     *gg.Context
	source *text.FontSource
	faces  map[int]text.Face
	sink   Sink

	x, y int
	size int
}

var _ Presenter = &Canvas{}

// NewCanvas creates a Width x Height canvas that flushes to sink.
func NewCanvas(sink Sink) (*Canvas, error) {
	source, err := text.NewFontSource(gomono.TTF)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = NopSink{}
	}

	c := &Canvas{
		dc:     gg.NewContext(Width, Height),
		source: source,
		faces:  make(map[int]text.Face),
		sink:   sink,
	}
	c.SetTextSize(1)
	c.Clear()
	return c, nil
}

func (c *Canvas) Clear() {
	c.dc.ClearWithColor(gg.Black)
	c.x, c.y = 0, 0
}

func (c *Canvas) SetCursor(x, y int) {
	c.x, c.y = x, y
}

// Cursor returns the current cursor position.
func (c *Canvas) Cursor() (x, y int) {
	return c.x, c.y
}

func (c *Canvas) SetTextSize(n int) {
	if n < 1 {
		n = 1
	}
	c.size = n
	face, ok := c.faces[n]
	if !ok {
		face = c.source.Face(float64(glyphHeight * n))
		c.faces[n] = face
	}
	c.dc.SetFont(face)
}

// Print draws s with its top-left corner at the cursor and advances the
// cursor past it.
func (c *Canvas) Print(s string) {
	if s == "" {
		return
	}
	c.dc.SetRGB(1, 1, 1)
	c.dc.DrawStringAnchored(s, float64(c.x), float64(c.y), 0, 1)
	w, _ := c.dc.MeasureString(s)
	c.x += int(w + 0.5)
}

func (c *Canvas) PrintInt(v int) {
	c.Print(strconv.Itoa(v))
}

func (c *Canvas) DrawRect(x, y, w, h int) {
	c.dc.SetRGB(1, 1, 1)
	c.dc.SetLineWidth(1)
	// Half-pixel inset keeps a 1px stroke on whole pixels.
	c.dc.DrawRectangle(float64(x)+0.5, float64(y)+0.5, float64(w)-1, float64(h)-1)
	_ = c.dc.Stroke()
}

// Image returns the current raster.
func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

func (c *Canvas) Display() error {
	return c.sink.Show(c.dc.Image())
}

// Close releases the raster and the sink.
func (c *Canvas) Close() error {
	_ = c.dc.Close()
	return c.sink.Close()
}
