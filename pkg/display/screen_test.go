package display

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/classifier"
	"github.com/pearlybrook/colordetect/pkg/types"
)

// recorder logs Presenter calls as strings.
type recorder struct {
	calls    []string
	displays int
	err      error
}

func (r *recorder) Clear()             { r.calls = append(r.calls, "clear") }
func (r *recorder) SetCursor(x, y int) { r.calls = append(r.calls, fmt.Sprintf("cursor %d,%d", x, y)) }
func (r *recorder) SetTextSize(n int)  { r.calls = append(r.calls, fmt.Sprintf("size %d", n)) }
func (r *recorder) Print(s string)     { r.calls = append(r.calls, "print "+s) }
func (r *recorder) PrintInt(v int)     { r.calls = append(r.calls, fmt.Sprintf("int %d", v)) }
func (r *recorder) DrawRect(x, y, w, h int) {
	r.calls = append(r.calls, fmt.Sprintf("rect %d,%d,%d,%d", x, y, w, h))
}
func (r *recorder) Display() error {
	r.displays++
	r.calls = append(r.calls, "display")
	return r.err
}

func (r *recorder) has(call string) bool {
	for _, c := range r.calls {
		if c == call {
			return true
		}
	}
	return false
}

func rgbFrame(r, g, b int, label classifier.Label) *types.Frame {
	f := &types.Frame{}
	for ch, v := range map[channel.Channel]int{channel.Red: r, channel.Green: g, channel.Blue: b} {
		f.Channels[ch] = types.ChannelReading{Read: true, Normalized: v}
	}
	f.Classification.Label = label
	return f
}

func TestScreen_ShowFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame *types.Frame
		want  []string
		not   []string
	}{
		{
			name:  "red frame",
			frame: rgbFrame(255, 200, 200, classifier.Red),
			want: []string{
				"cursor 15,5", "print Pearlybrook Ind.", "rect 0,0,128,64",
				"cursor 3,20", "print R:", "cursor 13,20", "int 255",
				"cursor 50,20", "print G:", "cursor 60,20", "int 200",
				"cursor 97,20", "print B:", "cursor 107,20",
				"cursor 35,40", "size 2", "print Red", "display",
			},
			not: []string{"print C:"},
		},
		{
			name:  "mapping error text",
			frame: rgbFrame(100, 50, 75, classifier.MappingError),
			want:  []string{"print MAP ERR"},
		},
		{
			name:  "undefined text",
			frame: rgbFrame(50, 200, 200, classifier.Undefined),
			want:  []string{"print Undef"},
		},
		{
			name: "faulted channel",
			frame: func() *types.Frame {
				f := rgbFrame(255, 200, 200, classifier.SensorFault)
				f.Channels[channel.Green].Fault = "no pulse detected"
				return f
			}(),
			want: []string{"cursor 60,20", "print --", "print NO SIG"},
		},
		{
			name: "clear channel shown when read",
			frame: func() *types.Frame {
				f := rgbFrame(10, 10, 10, classifier.Black)
				f.Channels[channel.Clear] = types.ChannelReading{Read: true, Normalized: 12}
				return f
			}(),
			want: []string{"cursor 0,30", "print C:", "cursor 10,30", "int 12", "print Black"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			if err := NewScreen(r).ShowFrame(tt.frame); err != nil {
				t.Fatalf("ShowFrame: %v", err)
			}
			for _, w := range tt.want {
				if !r.has(w) {
					t.Errorf("missing call %q in:\n%s", w, strings.Join(r.calls, "\n"))
				}
			}
			for _, n := range tt.not {
				if r.has(n) {
					t.Errorf("unexpected call %q", n)
				}
			}
			if r.displays != 1 {
				t.Errorf("displays = %d, want 1", r.displays)
			}
		})
	}
}

func TestScreen_ShowFrameDisplayError(t *testing.T) {
	want := errors.New("bus gone")
	r := &recorder{err: want}
	if err := NewScreen(r).ShowFrame(rgbFrame(1, 2, 3, classifier.Blue)); !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestScreen_Splash(t *testing.T) {
	r := &recorder{}
	s := NewScreen(r)
	var slept time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		slept += d
		return nil
	}

	if err := s.Splash(context.Background()); err != nil {
		t.Fatalf("Splash: %v", err)
	}
	if r.displays != 6 {
		t.Errorf("displays = %d, want 6", r.displays)
	}
	if want := 1500*time.Millisecond + 4*dotDelay + 500*time.Millisecond; slept != want {
		t.Errorf("slept %v, want %v", slept, want)
	}
	if !r.has("print Welcome") {
		t.Errorf("missing welcome text")
	}
}

func TestScreen_SplashCanceled(t *testing.T) {
	r := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewScreen(r).Splash(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if r.displays != 1 {
		t.Errorf("displays = %d, want 1 before cancellation is noticed", r.displays)
	}
}
