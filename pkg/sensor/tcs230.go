package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/pearlybrook/colordetect/pkg/channel"
)

// edgePollSlice bounds a single edge wait so cancellation is noticed.
const edgePollSlice = 50 * time.Millisecond

// DefaultTimeout matches the one second Arduino's pulseIn waits by default.
const DefaultTimeout = time.Second

// Pins names the GPIO lines wired to the sensor, as known to gpioreg
// (e.g. "GPIO17"). S0 and S1 are optional; leave them empty when the
// frequency scaling pins are hard-wired.
type Pins struct {
	S0  string `json:"s0,omitempty"`
	S1  string `json:"s1,omitempty"`
	S2  string `json:"s2"`
	S3  string `json:"s3"`
	Out string `json:"out"`
}

type outputPin interface {
	Out(l gpio.Level) error
}

type inputPin interface {
	In(pull gpio.Pull, edge gpio.Edge) error
	Read() gpio.Level
	WaitForEdge(timeout time.Duration) bool
}

// TCS230 drives the sensor's selector pins and times its output pulses.
type TCS230 struct {
	s2, s3  outputPin
	out     inputPin
	timeout time.Duration
}

var _ ChannelReader = &TCS230{}

// OpenTCS230 initializes the host GPIO drivers and claims the pins.
func OpenTCS230(pins Pins, scaling Scaling, timeout time.Duration) (*TCS230, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", err)
	}

	lookup := func(name, role string) (gpio.PinIO, error) {
		if name == "" {
			return nil, fmt.Errorf("pin %s is not configured", role)
		}
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("pin %s: no GPIO named %q", role, name)
		}
		return p, nil
	}

	s2, err := lookup(pins.S2, "s2")
	if err != nil {
		return nil, err
	}
	s3, err := lookup(pins.S3, "s3")
	if err != nil {
		return nil, err
	}
	out, err := lookup(pins.Out, "out")
	if err != nil {
		return nil, err
	}

	if pins.S0 != "" || pins.S1 != "" {
		s0, err := lookup(pins.S0, "s0")
		if err != nil {
			return nil, err
		}
		s1, err := lookup(pins.S1, "s1")
		if err != nil {
			return nil, err
		}
		l0, l1, ok := scaling.levels()
		if !ok {
			return nil, fmt.Errorf("unknown frequency scaling %q", scaling)
		}
		if err := s0.Out(gpio.Level(l0)); err != nil {
			return nil, fmt.Errorf("failed to drive s0: %w", err)
		}
		if err := s1.Out(gpio.Level(l1)); err != nil {
			return nil, fmt.Errorf("failed to drive s1: %w", err)
		}
		logrus.WithField("scaling", scaling).Debug("frequency scaling set")
	}

	return newTCS230(s2, s3, out, timeout)
}

func newTCS230(s2, s3 outputPin, out inputPin, timeout time.Duration) (*TCS230, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := out.In(gpio.PullNoChange, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("failed to configure output pin: %w", err)
	}
	return &TCS230{s2: s2, s3: s3, out: out, timeout: timeout}, nil
}

// ReadChannel selects ch and measures one low pulse.
func (t *TCS230) ReadChannel(ctx context.Context, ch channel.Channel) (int, error) {
	info := ch.Info()
	if err := t.s2.Out(gpio.Level(info.S2)); err != nil {
		return NoPulse, fmt.Errorf("failed to drive s2: %w", err)
	}
	if err := t.s3.Out(gpio.Level(info.S3)); err != nil {
		return NoPulse, fmt.Errorf("failed to drive s3: %w", err)
	}

	width, err := t.pulseLow(ctx)
	if err != nil {
		return NoPulse, err
	}

	logrus.WithFields(logrus.Fields{
		"channel": ch,
		"raw":     width,
	}).Trace("channel read")

	return width, nil
}

// pulseLow waits for any low pulse in progress to end, then times the next
// complete one.
func (t *TCS230) pulseLow(ctx context.Context) (int, error) {
	deadline := time.Now().Add(t.timeout)

	waitFor := func(level gpio.Level) error {
		for t.out.Read() != level {
			if err := ctx.Err(); err != nil {
				return err
			}
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return ErrNoPulse
			}
			t.out.WaitForEdge(min(remaining, edgePollSlice))
		}
		return nil
	}

	if err := waitFor(gpio.High); err != nil {
		return NoPulse, err
	}
	if err := waitFor(gpio.Low); err != nil {
		return NoPulse, err
	}
	start := time.Now()
	if err := waitFor(gpio.High); err != nil {
		return NoPulse, err
	}

	return int(time.Since(start).Microseconds()), nil
}
