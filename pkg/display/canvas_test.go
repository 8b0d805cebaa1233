package display

import (
	"image"
	"os"
	"path/filepath"
	"testing"
)

type captureSink struct {
	img image.Image
}

func (c *captureSink) Show(img image.Image) error {
	c.img = img
	return nil
}

func (c *captureSink) Close() error { return nil }

func lit(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r+g+b > 0
}

func TestCanvas(t *testing.T) {
	sink := &captureSink{}
	c, err := NewCanvas(sink)
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	defer c.Close()

	if err := c.Display(); err != nil {
		t.Fatalf("Display: %v", err)
	}
	if b := sink.img.Bounds(); b.Dx() != Width || b.Dy() != Height {
		t.Fatalf("bounds = %v", b)
	}
	if lit(sink.img, Width/2, Height/2) {
		t.Fatalf("cleared canvas has lit pixels")
	}

	c.DrawRect(0, 0, Width, Height)
	c.SetCursor(10, 20)
	c.Print("Red")
	x, y := c.Cursor()
	if x <= 10 || y != 20 {
		t.Errorf("cursor after print = %d,%d, want x advanced past 10", x, y)
	}
	c.PrintInt(255)
	if x2, _ := c.Cursor(); x2 <= x {
		t.Errorf("cursor did not advance for PrintInt: %d -> %d", x, x2)
	}
	if err := c.Display(); err != nil {
		t.Fatalf("Display: %v", err)
	}
	if !lit(sink.img, 0, Height/2) {
		t.Errorf("border not drawn on left edge")
	}

	c.Clear()
	if x, y := c.Cursor(); x != 0 || y != 0 {
		t.Errorf("cursor after clear = %d,%d", x, y)
	}
}

func TestPNGSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	c, err := NewCanvas(&PNGSink{Path: path})
	if err != nil {
		t.Fatalf("NewCanvas: %v", err)
	}
	NewScreen(c).Refresh()
	if err := c.Display(); err != nil {
		t.Fatalf("Display: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open frame: %v", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if img.Bounds().Dx() != Width {
		t.Errorf("width = %d", img.Bounds().Dx())
	}
}
