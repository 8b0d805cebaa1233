package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/config"
	"github.com/pearlybrook/colordetect/pkg/display"
	"github.com/pearlybrook/colordetect/pkg/events"
	"github.com/pearlybrook/colordetect/pkg/extrema"
	"github.com/pearlybrook/colordetect/pkg/sensor"
	"github.com/pearlybrook/colordetect/pkg/types"
)

// Daemon owns the sensing state: the extrema tracker, the last frame and
// the collaborators a cycle talks to.
type Daemon struct {
	conf   config.Config
	reader sensor.ChannelReader
	screen *display.Screen
	hub    *events.EventHub
	now    func() time.Time

	mu      sync.RWMutex
	tracker *extrema.Tracker
	last    *types.Frame
	seq     uint64

	// only touched by the loop goroutine
	lastLogged frameSummary
	lastLogAt  time.Time
}

// New wires a daemon. screen may be nil when nothing is rendered.
func New(conf config.Config, reader sensor.ChannelReader, screen *display.Screen, hub *events.EventHub) *Daemon {
	if hub == nil {
		hub = events.NewEventHub()
	}
	return &Daemon{
		conf:    conf,
		reader:  reader,
		screen:  screen,
		hub:     hub,
		now:     time.Now,
		tracker: extrema.NewTracker(),
	}
}

// LastFrame returns the most recent frame, or nil before the first cycle.
func (d *Daemon) LastFrame() *types.Frame {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.last == nil {
		return nil
	}
	f := *d.last
	return &f
}

// Extrema returns a copy of the tracked extrema.
func (d *Daemon) Extrema() [channel.Count]extrema.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.tracker.Snapshot()
}

// ResetExtrema puts every channel back to its sentinels.
func (d *Daemon) ResetExtrema() {
	d.mu.Lock()
	d.tracker.Reset()
	d.mu.Unlock()

	d.hub.Publish(events.ExtremaReset, struct{}{})
}

// Hub returns the event hub frames are published on.
func (d *Daemon) Hub() *events.EventHub {
	return d.hub
}

// Options are the command line overrides of the daemon.
type Options struct {
	// AllowNonRoot makes the socket world accessible regardless of config.
	AllowNonRoot bool
	// Simulate replaces the sensor with a fixed mock reader.
	Simulate bool
}

func openReader(conf config.Config, simulate bool) (sensor.ChannelReader, error) {
	if simulate {
		logrus.Warn("simulating sensor readings, no hardware will be accessed")
		return sensor.NewMock(map[channel.Channel]int{
			channel.Red:   20,
			channel.Green: 90,
			channel.Blue:  70,
			channel.Clear: 40,
		}), nil
	}
	return sensor.OpenTCS230(conf.Pins(), conf.Scaling(), conf.PulseTimeout())
}

func openSink(dc config.DisplayConfig) (display.Sink, error) {
	switch dc.Driver {
	case config.DisplayPNG:
		return &display.PNGSink{Path: dc.PNGPath}, nil
	case config.DisplaySSD1306:
		return display.OpenSSD1306(dc.I2CBus)
	default:
		return display.NopSink{}, nil
	}
}

func Run(configPath string, unixSocketPath string, opts Options) error {
	conf, err := config.NewFile(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	reader, err := openReader(conf, opts.Simulate)
	if err != nil {
		logrus.Fatalf("failed to open sensor: %v", err)
	}

	sink, err := openSink(conf.Display())
	if err != nil {
		logrus.Fatalf("failed to open display: %v", err)
	}
	canvas, err := display.NewCanvas(sink)
	if err != nil {
		logrus.Fatalf("failed to create canvas: %v", err)
	}

	d := New(conf, reader, display.NewScreen(canvas), events.NewEventHub())

	scheduler := NewScheduler(d.reportExtrema, func(err error) {
		logrus.WithError(err).Error("scheduled extrema report failed")
	})
	applySchedule(scheduler, conf.ExtremaReportSchedule())
	scheduler.Start()

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			applySchedule(scheduler, conf.ExtremaReportSchedule())
			logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler: d.setupRoutes(),
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	if conf.AllowNonRootAccess() || opts.AllowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			logrus.Fatal(err)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)

		if conf.Splash() {
			if err := d.screen.Splash(ctx); err != nil && ctx.Err() == nil {
				logrus.Warnf("splash failed: %v", err)
			}
		}

		logrus.Debugln("sensing loop starts")
		if err := d.Loop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logrus.Errorf("sensing loop exited unexpectedly: %v", err)
		}
	}()

	// Wait for a SIGINT or SIGTERM:
	<-ctx.Done()
	logrus.Info("caught signal: shutting down.")

	logrus.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	scheduler.Stop()
	<-loopDone

	logrus.Info("closing display")
	if err := canvas.Close(); err != nil {
		logrus.Errorf("failed to close display: %v", err)
	}

	logrus.Info("exiting")
	return nil
}

func applySchedule(s *Scheduler, expr string) {
	if err := s.Schedule(expr); err != nil {
		logrus.WithError(err).WithField("schedule", expr).Error("invalid extrema report schedule, reports disabled")
		return
	}
	if expr == "" {
		logrus.Debug("extrema report schedule disabled")
		return
	}
	next, _ := s.Status()
	logrus.WithField("next", next.Format(time.DateTime)).Info("extrema report scheduled")
}

// reportExtrema logs the tracked extrema together with the calibration each
// channel would get from them.
func (d *Daemon) reportExtrema() error {
	snap := d.Extrema()
	fields := logrus.Fields{}
	for _, ch := range channel.All {
		rec := snap[ch]
		if !rec.HasMin() && !rec.HasMax() {
			continue
		}
		fields[ch.String()] = fmt.Sprintf("min=%d max=%d", rec.Min, rec.Max)
	}
	if len(fields) == 0 {
		logrus.Info("extrema report: nothing observed yet")
		return nil
	}
	logrus.WithFields(fields).Info("extrema report")
	d.hub.Publish(events.ExtremaReport, types.NewExtrema(snap))
	return nil
}
