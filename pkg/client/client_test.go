package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pearlybrook/colordetect/pkg/calibration"
	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/classifier"
	"github.com/pearlybrook/colordetect/pkg/events"
)

// serveUnix serves h on a fresh unix socket and returns a client for it.
func serveUnix(t *testing.T, h http.Handler) *Client {
	t.Helper()
	dir, err := os.MkdirTemp("", "cd")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	sock := filepath.Join(dir, "d.sock")
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	srv := &http.Server{Handler: h}
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	return NewClient(sock)
}

func TestClient_DaemonNotRunning(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "missing.sock"))
	_, err := c.GetVersion()
	if !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("err = %v, want ErrDaemonNotRunning", err)
	}
}

func TestClient_APIs(t *testing.T) {
	var gotPut string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /frame", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"seq":7,"channels":[{"read":true,"raw":20,"normalized":211},{"read":true,"raw":90,"normalized":73},{"read":true,"raw":70,"normalized":80},{"read":false,"raw":0,"normalized":0}],"classification":{"label":"Red","stage":"outlier"},"swatch":"#d34950"}`)
	})
	mux.HandleFunc("GET /extrema", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"red":{"min":10,"max":30}}`)
	})
	mux.HandleFunc("DELETE /extrema", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `"extrema reset"`)
	})
	mux.HandleFunc("GET /calibration/suggest", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"blue":{"low":4,"high":88}}`)
	})
	mux.HandleFunc("PUT /calibration/{ch}", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotPut = r.PathValue("ch") + " " + string(b)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `"ok"`)
	})
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `"v1.2.3"`)
	})
	c := serveUnix(t, mux)

	f, err := c.GetFrame()
	if err != nil {
		t.Fatalf("GetFrame: %v", err)
	}
	if f.Seq != 7 || f.Label() != classifier.Red {
		t.Errorf("frame = %+v", f)
	}
	if r, g, b := f.RGB(); r != 211 || g != 73 || b != 80 {
		t.Errorf("rgb = %d %d %d", r, g, b)
	}

	e, err := c.GetExtrema()
	if err != nil || e[channel.Red].Min != 10 || e[channel.Red].Max != 30 {
		t.Errorf("GetExtrema = %+v, %v", e, err)
	}

	if _, err := c.ResetExtrema(); err != nil {
		t.Errorf("ResetExtrema: %v", err)
	}

	s, err := c.SuggestCalibration()
	if err != nil || s[channel.Blue] != (calibration.Range{Low: 4, High: 88}) {
		t.Errorf("SuggestCalibration = %+v, %v", s, err)
	}

	if _, err := c.SetCalibration(channel.Green, calibration.Range{Low: 2, High: 125}); err != nil {
		t.Fatalf("SetCalibration: %v", err)
	}
	if gotPut != `green {"low":2,"high":125}` {
		t.Errorf("PUT body = %q", gotPut)
	}

	v, err := c.GetVersion()
	if err != nil || v != "v1.2.3" {
		t.Errorf("GetVersion = %q, %v", v, err)
	}

	// Routes the daemon does not serve map to ErrNotFound.
	if _, err := c.GetConfig(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConfig err = %v, want ErrNotFound", err)
	}
}

func TestClient_Events(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event:extrema.reset\ndata:{}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	c := serveUnix(t, mux)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := c.Events(ctx)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	ev, ok := <-ch
	if !ok || ev.Name != events.ExtremaReset {
		t.Fatalf("event = %+v, %v", ev, ok)
	}

	cancel()
	for range ch {
	}
}
