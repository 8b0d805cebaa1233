// Package sensor reads raw pulse widths from a TCS230/TCS3200 color sensor.
package sensor

import (
	"context"
	"errors"

	"github.com/pearlybrook/colordetect/pkg/channel"
)

// NoPulse is the raw value reported alongside ErrNoPulse. Real pulse widths
// are never negative.
const NoPulse = -1

// ErrNoPulse is returned when no complete pulse was seen before the timeout.
var ErrNoPulse = errors.New("no pulse detected")

// ChannelReader measures one channel. A successful read returns the width of
// the sensor's low pulse in microseconds; smaller means brighter. Reads block
// for at most the reader's timeout. On failure the value is NoPulse and the
// error is ErrNoPulse or the context's error.
type ChannelReader interface {
	ReadChannel(ctx context.Context, ch channel.Channel) (int, error)
}

// Scaling selects the output frequency divider through S0/S1.
type Scaling string

const (
	Scaling100 Scaling = "100%"
	Scaling20  Scaling = "20%"
	Scaling2   Scaling = "2%"
	ScalingOff Scaling = "off"
)

// levels returns the S0 and S1 levels for s, true meaning HIGH.
func (s Scaling) levels() (s0, s1 bool, ok bool) {
	switch s {
	case Scaling100, "":
		return true, true, true
	case Scaling20:
		return true, false, true
	case Scaling2:
		return false, true, true
	case ScalingOff:
		return false, false, true
	}
	return false, false, false
}
