package daemon

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/pearlybrook/colordetect/pkg/calibration"
	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/classifier"
	"github.com/pearlybrook/colordetect/pkg/config"
	"github.com/pearlybrook/colordetect/pkg/display"
	"github.com/pearlybrook/colordetect/pkg/events"
	"github.com/pearlybrook/colordetect/pkg/extrema"
	"github.com/pearlybrook/colordetect/pkg/sensor"
	"github.com/pearlybrook/colordetect/pkg/types"
	"github.com/pearlybrook/colordetect/pkg/utils/ptr"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

type printRecorder struct {
	prints   []string
	displays int
}

func (r *printRecorder) Clear()                  {}
func (r *printRecorder) SetCursor(_, _ int)      {}
func (r *printRecorder) SetTextSize(_ int)       {}
func (r *printRecorder) Print(s string)          { r.prints = append(r.prints, s) }
func (r *printRecorder) PrintInt(v int)          { r.prints = append(r.prints, fmt.Sprint(v)) }
func (r *printRecorder) DrawRect(_, _, _, _ int) {}
func (r *printRecorder) Display() error {
	r.displays++
	return nil
}

func (r *printRecorder) printed(s string) bool {
	for _, p := range r.prints {
		if p == s {
			return true
		}
	}
	return false
}

func newTestDaemon(t *testing.T, raw *config.RawFileConfig, mock *sensor.Mock) (*Daemon, *printRecorder) {
	t.Helper()
	if raw == nil {
		raw = &config.RawFileConfig{}
	}
	if raw.LoopIntervalMs == nil {
		raw.LoopIntervalMs = ptr.To(1)
	}
	conf := config.NewFileFromConfig(raw, filepath.Join(t.TempDir(), "colordetect.json"))
	rec := &printRecorder{}
	d := New(conf, mock, display.NewScreen(rec), nil)
	d.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return d, rec
}

func simulatedMock() *sensor.Mock {
	return sensor.NewMock(map[channel.Channel]int{
		channel.Red:   20,
		channel.Green: 90,
		channel.Blue:  70,
		channel.Clear: 40,
	})
}

func TestDaemon_Cycle(t *testing.T) {
	mock := simulatedMock()
	d, rec := newTestDaemon(t, nil, mock)

	sub := d.Hub().Subscribe()
	defer d.Hub().Unsubscribe(sub)

	f, err := d.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}

	if got := f.Label(); got != classifier.Red {
		t.Errorf("label = %v, want Red", got)
	}
	if f.Seq != 1 {
		t.Errorf("seq = %d, want 1", f.Seq)
	}
	if r, g, b := f.RGB(); r != 211 || g != 73 || b != 80 {
		t.Errorf("rgb = (%d,%d,%d), want (211,73,80)", r, g, b)
	}
	if f.Channels[channel.Clear].Read || mock.Reads(channel.Clear) != 0 {
		t.Errorf("clear channel should not be read by default")
	}
	if f.Swatch != types.Swatch(211, 73, 80) {
		t.Errorf("swatch = %s", f.Swatch)
	}

	if rec.displays != 1 || !rec.printed("Red") || !rec.printed("211") {
		t.Errorf("unexpected render: displays=%d prints=%v", rec.displays, rec.prints)
	}

	ev := <-sub
	if ev.Name != events.FrameClassified {
		t.Fatalf("event = %q", ev.Name)
	}
	published, err := events.DecodeAs[types.Frame](ev)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if published.Label() != classifier.Red || published.Seq != 1 {
		t.Errorf("published frame = %+v", published)
	}

	if last := d.LastFrame(); last == nil || last.Seq != 1 {
		t.Errorf("LastFrame = %+v", last)
	}
}

func TestDaemon_CycleExtrema(t *testing.T) {
	mock := simulatedMock()
	mock.Script(channel.Red, 20, 30, 10)
	d, _ := newTestDaemon(t, nil, mock)

	for i := 0; i < 3; i++ {
		if _, err := d.Cycle(context.Background()); err != nil {
			t.Fatalf("Cycle %d: %v", i, err)
		}
	}

	got := d.Extrema()
	if want := (extrema.Record{Min: 10, Max: 30}); got[channel.Red] != want {
		t.Errorf("red extrema = %+v, want %+v", got[channel.Red], want)
	}
	// The first reading sets the minimum, the repeat sets the maximum.
	if want := (extrema.Record{Min: 90, Max: 90}); got[channel.Green] != want {
		t.Errorf("green extrema = %+v, want %+v", got[channel.Green], want)
	}
	if got[channel.Clear].HasMin() {
		t.Errorf("clear extrema should be untouched, got %+v", got[channel.Clear])
	}

	d.ResetExtrema()
	if got := d.Extrema(); got[channel.Red].HasMin() || got[channel.Red].HasMax() {
		t.Errorf("extrema not reset: %+v", got[channel.Red])
	}
}

func TestDaemon_CycleSensorFault(t *testing.T) {
	mock := simulatedMock()
	mock.Script(channel.Green, sensor.NoPulse)
	d, rec := newTestDaemon(t, nil, mock)

	f, err := d.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}

	if f.Label() != classifier.SensorFault || f.Classification.Stage != classifier.StageFault {
		t.Errorf("classification = %+v, want SensorFault", f.Classification)
	}
	green := f.Channels[channel.Green]
	if green.Fault != sensor.ErrNoPulse.Error() {
		t.Errorf("green fault = %q", green.Fault)
	}
	// The sentinel still goes through normalization.
	if green.Normalized != 261 {
		t.Errorf("green normalized = %d, want 261", green.Normalized)
	}
	if d.Extrema()[channel.Green].HasMin() {
		t.Errorf("failed read must not reach the extrema tracker")
	}
	if !rec.printed("NO SIG") || !rec.printed("--") {
		t.Errorf("fault not rendered: %v", rec.prints)
	}

	// Recovery on the next cycle.
	mock.Script(channel.Green, 90)
	f, err = d.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if f.Label() != classifier.Red || f.Faulted() {
		t.Errorf("after recovery: label=%v faulted=%v", f.Label(), f.Faulted())
	}
}

func TestDaemon_CycleReadClear(t *testing.T) {
	mock := simulatedMock()
	d, rec := newTestDaemon(t, &config.RawFileConfig{ReadClear: ptr.To(true)}, mock)

	f, err := d.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	cr := f.Channels[channel.Clear]
	if !cr.Read || cr.Raw != 40 || cr.Normalized != 215 {
		t.Errorf("clear reading = %+v", cr)
	}
	if f.Label() != classifier.Red {
		t.Errorf("clear channel must not affect the label, got %v", f.Label())
	}
	if !rec.printed("C:") || !rec.printed("215") {
		t.Errorf("clear channel not rendered: %v", rec.prints)
	}
}

func TestDaemon_CycleCalibrationOverride(t *testing.T) {
	mock := simulatedMock()
	d, _ := newTestDaemon(t, nil, mock)

	if err := d.conf.SetCalibrationRange(channel.Red, calibration.Range{Low: 20, High: 120}); err != nil {
		t.Fatalf("SetCalibrationRange: %v", err)
	}
	f, err := d.Cycle(context.Background())
	if err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if got := f.Channels[channel.Red].Normalized; got != 255 {
		t.Errorf("red normalized = %d, want 255", got)
	}
}

func TestDaemon_CycleCanceled(t *testing.T) {
	d, rec := newTestDaemon(t, nil, simulatedMock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f, err := d.Cycle(ctx)
	if !errors.Is(err, context.Canceled) || f != nil {
		t.Fatalf("Cycle = %v, %v; want nil, context.Canceled", f, err)
	}
	if d.LastFrame() != nil || rec.displays != 0 {
		t.Errorf("canceled cycle must not publish")
	}
}

func TestDaemon_Loop(t *testing.T) {
	mock := simulatedMock()
	d, _ := newTestDaemon(t, nil, mock)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := d.Loop(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Loop returned %v", err)
	}
	if mock.Reads(channel.Red) < 2 {
		t.Errorf("expected several cycles, red was read %d times", mock.Reads(channel.Red))
	}
	if last := d.LastFrame(); last == nil || last.Seq < 2 {
		t.Errorf("LastFrame = %+v", last)
	}
}

func TestDaemon_CycleLogsLabelChange(t *testing.T) {
	tests := []struct {
		name      string
		script    func(m *sensor.Mock)
		label     classifier.Label
		chromatic bool
	}{
		{
			name:      "hue",
			script:    func(*sensor.Mock) {},
			label:     classifier.Red,
			chromatic: true,
		},
		{
			name:      "sensor fault",
			script:    func(m *sensor.Mock) { m.Script(channel.Green, sensor.NoPulse) },
			label:     classifier.SensorFault,
			chromatic: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := logtest.NewGlobal()
			defer hook.Reset()

			mock := simulatedMock()
			tt.script(mock)
			d, _ := newTestDaemon(t, nil, mock)
			if _, err := d.Cycle(context.Background()); err != nil {
				t.Fatalf("Cycle: %v", err)
			}

			var found bool
			for _, e := range hook.AllEntries() {
				if e.Message != "label changed" {
					continue
				}
				found = true
				if e.Data["label"] != tt.label {
					t.Errorf("label = %v, want %v", e.Data["label"], tt.label)
				}
				if e.Data["chromatic"] != tt.chromatic {
					t.Errorf("chromatic = %v, want %v", e.Data["chromatic"], tt.chromatic)
				}
			}
			if !found {
				t.Error("no label change logged")
			}
		})
	}
}
