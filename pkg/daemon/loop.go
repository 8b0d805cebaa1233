package daemon

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/classifier"
	"github.com/pearlybrook/colordetect/pkg/events"
	"github.com/pearlybrook/colordetect/pkg/types"
)

// frameLogInterval bounds how long an unchanged frame summary stays at trace
// level before it is logged again at debug.
const frameLogInterval = 10 * time.Second

// Loop runs sensing cycles back to back, idling LoopInterval between them,
// until ctx is done.
func (d *Daemon) Loop(ctx context.Context) error {
	for {
		if _, err := d.Cycle(ctx); err != nil {
			return err
		}
		if err := sleepCtx(ctx, d.conf.LoopInterval()); err != nil {
			return err
		}
	}
}

// channels returns the channels read each cycle, in table order.
func (d *Daemon) channels() []channel.Channel {
	if d.conf.ReadClear() {
		return channel.All[:]
	}
	return channel.RGB[:]
}

// Cycle reads every enabled channel, classifies the result, publishes the
// frame and renders it. A failed read marks its channel and turns the label
// into SensorFault; only context cancellation aborts the cycle.
func (d *Daemon) Cycle(ctx context.Context) (*types.Frame, error) {
	table := d.conf.Calibration()
	clf := classifier.New(d.conf.ClassifierParams())

	f := &types.Frame{}
	for _, ch := range d.channels() {
		raw, err := d.reader.ReadChannel(ctx, ch)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		reading := types.ChannelReading{Read: true, Raw: raw, Normalized: table.Normalize(ch, raw)}
		if err != nil {
			reading.Fault = err.Error()
		} else {
			d.mu.Lock()
			d.tracker.Update(ch, raw)
			d.mu.Unlock()
		}
		f.Channels[ch] = reading
	}

	if f.Faulted() {
		f.Classification = classifier.Result{Label: classifier.SensorFault, Stage: classifier.StageFault}
	} else {
		f.Classification = clf.Explain(f.RGB())
	}
	f.Swatch = types.Swatch(f.RGB())
	f.Time = d.now().Round(0)

	d.mu.Lock()
	d.seq++
	f.Seq = d.seq
	stored := *f
	d.last = &stored
	d.mu.Unlock()

	d.hub.Publish(events.FrameClassified, f)
	d.logFrame(f)

	if d.screen != nil {
		if err := d.screen.ShowFrame(f); err != nil {
			logrus.WithError(err).Warn("failed to render frame")
		}
	}

	return f, nil
}

type frameSummary struct {
	label  classifier.Label
	faults [channel.Count]bool
}

func summarize(f *types.Frame) frameSummary {
	s := frameSummary{label: f.Label()}
	for ch := range f.Channels {
		s.faults[ch] = f.Channels[ch].Fault != ""
	}
	return s
}

// logFrame logs every frame at trace level and raises the level when the
// label or the set of failing channels changes.
func (d *Daemon) logFrame(f *types.Frame) {
	r, g, b := f.RGB()
	fields := logrus.Fields{
		"seq":       f.Seq,
		"label":     f.Label(),
		"chromatic": f.Label().Chromatic(),
		"stage":     f.Classification.Stage,
		"r":         r,
		"g":         g,
		"b":         b,
	}

	current := summarize(f)
	previous := d.lastLogged
	first := d.lastLogAt.IsZero()
	changed := current != previous || first

	if !changed && time.Since(d.lastLogAt) < frameLogInterval {
		logrus.WithFields(fields).Trace("frame")
		return
	}
	d.lastLogged = current
	d.lastLogAt = time.Now()

	for _, ch := range d.channels() {
		switch {
		case current.faults[ch] && !previous.faults[ch]:
			logrus.WithField("channel", ch).Warnf("channel read failed: %s", f.Channels[ch].Fault)
		case !current.faults[ch] && previous.faults[ch]:
			logrus.WithField("channel", ch).Info("channel recovered")
		}
	}

	if current.label != previous.label || first {
		logrus.WithFields(fields).Info("label changed")
		return
	}
	logrus.WithFields(fields).Debug("frame")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
