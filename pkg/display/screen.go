package display

import (
	"context"
	"time"

	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/types"
)

const (
	header  = "Pearlybrook Ind."
	noValue = "--"
)

// Layout positions, in pixels from the top-left corner.
var (
	headerAt = point{15, 5}
	labelAt  = point{35, 40}
)

const (
	labelTextSize = 2
	dotDelay      = 500 * time.Millisecond
)

type point struct{ x, y int }

// Screen lays frames out on a Presenter.
type Screen struct {
	p Presenter
	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewScreen(p Presenter) *Screen {
	return &Screen{p: p, sleep: sleepCtx}
}

// Refresh clears the screen and draws the parts that never change.
func (s *Screen) Refresh() {
	s.p.Clear()
	s.p.SetTextSize(1)
	s.p.SetCursor(headerAt.x, headerAt.y)
	s.p.Print(header)
	s.p.DrawRect(0, 0, Width, Height)
}

// ShowFrame renders the channels read in f and its label, then flushes.
func (s *Screen) ShowFrame(f *types.Frame) error {
	s.Refresh()

	s.p.SetTextSize(1)
	for _, ch := range channel.All {
		reading := f.Channels[ch]
		if !reading.Read {
			continue
		}
		info := ch.Info()
		s.p.SetCursor(info.Cursor.X, info.Cursor.Y)
		s.p.Print(info.Label)
		s.p.SetCursor(info.Cursor.X+info.Cursor.ValueOffset, info.Cursor.Y)
		if reading.Fault != "" {
			s.p.Print(noValue)
		} else {
			s.p.PrintInt(reading.Normalized)
		}
	}

	s.p.SetCursor(labelAt.x, labelAt.y)
	s.p.SetTextSize(labelTextSize)
	s.p.Print(f.Label().DisplayText())

	return s.p.Display()
}

// Splash plays the boot sequence. It returns early with the context's error
// when ctx is done.
func (s *Screen) Splash(ctx context.Context) error {
	s.p.Clear()
	s.p.SetTextSize(2)
	s.p.SetCursor(30, 20)
	s.p.Print("Pearly")
	s.p.SetCursor(37, 40)
	s.p.Print("brook")
	if err := s.show(ctx, 1500*time.Millisecond); err != nil {
		return err
	}

	s.p.Clear()
	s.p.SetTextSize(1)
	s.p.SetCursor(30, 30)
	s.p.Print("Initializing")
	if err := s.show(ctx, dotDelay); err != nil {
		return err
	}
	for i := 0; i < 3; i++ {
		s.p.Print(".")
		if err := s.show(ctx, dotDelay); err != nil {
			return err
		}
	}

	s.p.Clear()
	s.p.SetCursor(40, 30)
	s.p.Print("Welcome")
	return s.show(ctx, 500*time.Millisecond)
}

func (s *Screen) show(ctx context.Context, hold time.Duration) error {
	if err := s.p.Display(); err != nil {
		return err
	}
	return s.sleep(ctx, hold)
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
