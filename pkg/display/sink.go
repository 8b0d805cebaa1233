package display

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// PNGSink writes each frame to a file, replacing it atomically so readers
// never see a partial image.
type PNGSink struct {
	Path string
}

func (s *PNGSink) Show(img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".frame-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp frame file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp frame file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("failed to publish frame to %s: %w", s.Path, err)
	}
	return nil
}

func (s *PNGSink) Close() error { return nil }

// SSD1306Sink drives a 128x64 SSD1306 OLED over I2C.
type SSD1306Sink struct {
	bus i2c.BusCloser
	dev *ssd1306.Dev
}

// OpenSSD1306 opens the named I2C bus ("" for the first one) and initializes
// the panel at its default address.
func OpenSSD1306(bus string) (*SSD1306Sink, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}

	b, err := i2creg.Open(bus)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", bus, err)
	}

	opts := ssd1306.DefaultOpts
	opts.W = Width
	opts.H = Height
	dev, err := ssd1306.NewI2C(b, &opts)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("failed to initialize ssd1306: %w", err)
	}

	return &SSD1306Sink{bus: b, dev: dev}, nil
}

func (s *SSD1306Sink) Show(img image.Image) error {
	return s.dev.Draw(s.dev.Bounds(), img, image.Point{})
}

func (s *SSD1306Sink) Close() error {
	if err := s.dev.Halt(); err != nil {
		_ = s.bus.Close()
		return err
	}
	return s.bus.Close()
}
