package types

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pearlybrook/colordetect/pkg/calibration"
	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/classifier"
	"github.com/pearlybrook/colordetect/pkg/extrema"
)

// ChannelReading is one channel's part of a frame.
type ChannelReading struct {
	// Read is false for channels skipped this cycle (clear, unless enabled).
	Read       bool   `json:"read"`
	Raw        int    `json:"raw"`
	Normalized int    `json:"normalized"`
	Fault      string `json:"fault,omitempty"`
}

// Frame is the outcome of one sensing cycle.
type Frame struct {
	Seq            uint64                        `json:"seq"`
	Time           time.Time                     `json:"time"`
	Channels       [channel.Count]ChannelReading `json:"channels"`
	Classification classifier.Result             `json:"classification"`
	Swatch         string                        `json:"swatch"`
}

// RGB returns the normalized red, green and blue values.
func (f *Frame) RGB() (r, g, b int) {
	return f.Channels[channel.Red].Normalized,
		f.Channels[channel.Green].Normalized,
		f.Channels[channel.Blue].Normalized
}

// Faulted reports whether any classified channel failed to read.
func (f *Frame) Faulted() bool {
	for _, ch := range channel.RGB {
		if f.Channels[ch].Fault != "" {
			return true
		}
	}
	return false
}

// Label is shorthand for the classification label.
func (f *Frame) Label() classifier.Label {
	return f.Classification.Label
}

// Swatch renders normalized values as a hex color, clamping each channel to
// the displayable range.
func Swatch(r, g, b int) string {
	c := colorful.Color{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
	}
	return c.Clamped().Hex()
}

// Extrema is the per-channel extrema report.
type Extrema map[channel.Channel]extrema.Record

// NewExtrema converts a tracker snapshot.
func NewExtrema(snap [channel.Count]extrema.Record) Extrema {
	e := make(Extrema, channel.Count)
	for _, ch := range channel.All {
		e[ch] = snap[ch]
	}
	return e
}

// Calibration is the per-channel calibration report.
type Calibration map[channel.Channel]calibration.Range

// NewCalibration converts a table.
func NewCalibration(t calibration.Table) Calibration {
	c := make(Calibration, channel.Count)
	for _, ch := range channel.All {
		c[ch] = t[ch]
	}
	return c
}

// Table converts back, starting from defaults for missing channels.
func (c Calibration) Table() calibration.Table {
	t := calibration.DefaultTable()
	for ch, r := range c {
		if ch.Valid() {
			t[ch] = r
		}
	}
	return t
}
