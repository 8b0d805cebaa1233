package calibration

import (
	"fmt"

	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/extrema"
)

const (
	// OutLow and OutHigh bound the normalized scale.
	OutLow  = 0
	OutHigh = 255

	// Degenerate is returned by Normalize when a range has no width.
	Degenerate = -1
)

// Range is the empirically measured raw span of one channel.
type Range struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Validate rejects ranges that cannot be used for interpolation. Inverted
// ranges are allowed; they simply flip the slope.
func (r Range) Validate() error {
	if r.Low == r.High {
		return fmt.Errorf("calibration range low and high must differ, both are %d", r.Low)
	}
	return nil
}

// Inverted reports whether Low is above High.
func (r Range) Inverted() bool {
	return r.Low > r.High
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Low, r.High)
}

// Normalize linearly maps raw from [r.Low, r.High] onto [255, 0] with integer
// arithmetic truncating toward zero.
func Normalize(raw int, r Range) int {
	run := r.High - r.Low
	if run == 0 {
		return Degenerate
	}
	return (raw-r.Low)*(OutLow-OutHigh)/run + OutHigh
}

// Table holds one Range per channel, indexed by channel ordinal.
type Table [channel.Count]Range

// DefaultTable returns the ranges measured on the reference build under
// shop lighting.
func DefaultTable() Table {
	return Table{
		channel.Red:   {Low: 1, High: 111},
		channel.Green: {Low: 2, High: 125},
		channel.Blue:  {Low: 1, High: 101},
		channel.Clear: {Low: 0, High: 255},
	}
}

// Normalize maps raw through the range of ch.
func (t *Table) Normalize(ch channel.Channel, raw int) int {
	return Normalize(raw, t[ch])
}

// Validate checks every row.
func (t *Table) Validate() error {
	for _, ch := range channel.All {
		if err := t[ch].Validate(); err != nil {
			return fmt.Errorf("%s: %w", ch, err)
		}
	}
	return nil
}

// Suggest derives a Range from observed extrema: the smallest pulse seen
// becomes Low and the largest becomes High. It fails while either bound is
// still at its initial sentinel or the span is empty.
func Suggest(rec extrema.Record) (Range, bool) {
	if !rec.HasMin() || !rec.HasMax() {
		return Range{}, false
	}
	if rec.Min >= rec.Max {
		return Range{}, false
	}
	return Range{Low: rec.Min, High: rec.Max}, true
}
