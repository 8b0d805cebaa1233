package types

import (
	"encoding/json"
	"testing"

	"github.com/pearlybrook/colordetect/pkg/calibration"
	"github.com/pearlybrook/colordetect/pkg/channel"
	"github.com/pearlybrook/colordetect/pkg/classifier"
	"github.com/pearlybrook/colordetect/pkg/extrema"
)

func TestSwatch(t *testing.T) {
	tests := []struct {
		r, g, b int
		want    string
	}{
		{255, 0, 0, "#ff0000"},
		{0, 0, 0, "#000000"},
		{300, -20, 255, "#ff00ff"},
	}
	for _, tt := range tests {
		if got := Swatch(tt.r, tt.g, tt.b); got != tt.want {
			t.Errorf("Swatch(%d, %d, %d) = %s, want %s", tt.r, tt.g, tt.b, got, tt.want)
		}
	}
}

func TestFrameFaulted(t *testing.T) {
	var f Frame
	if f.Faulted() {
		t.Fatalf("empty frame should not be faulted")
	}
	f.Channels[channel.Clear].Fault = "no pulse detected"
	if f.Faulted() {
		t.Errorf("clear channel faults must not fault the frame")
	}
	f.Channels[channel.Blue].Fault = "no pulse detected"
	if !f.Faulted() {
		t.Errorf("blue fault should fault the frame")
	}
}

func TestFrameJSON(t *testing.T) {
	f := Frame{Seq: 3, Classification: classifier.Result{Label: classifier.MappingError, Stage: classifier.StageOutlier}}
	b, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Frame
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Label() != classifier.MappingError || back.Seq != 3 {
		t.Errorf("decoded frame = %+v", back)
	}
}

func TestExtremaAndCalibrationMaps(t *testing.T) {
	tr := extrema.NewTracker()
	tr.Update(channel.Green, 7)
	e := NewExtrema(tr.Snapshot())
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back Extrema
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back[channel.Green].Min != 7 {
		t.Errorf("green min = %d, want 7 (json %s)", back[channel.Green].Min, b)
	}

	c := Calibration{channel.Red: {Low: 5, High: 50}}
	tbl := c.Table()
	if tbl[channel.Red] != (calibration.Range{Low: 5, High: 50}) {
		t.Errorf("red range = %v", tbl[channel.Red])
	}
	if tbl[channel.Blue] != calibration.DefaultTable()[channel.Blue] {
		t.Errorf("blue range should fall back to default, got %v", tbl[channel.Blue])
	}
}
