package events

import "encoding/json"

// Event name constants
const (
	FrameClassified    = "frame.classified"
	CalibrationChanged = "calibration.changed"
	ExtremaReset       = "extrema.reset"
	ExtremaReport      = "extrema.report"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// CalibrationChangedEvent is the payload of calibration.changed.
type CalibrationChangedEvent struct {
	Channel string `json:"channel"`
	Low     int    `json:"low"`
	High    int    `json:"high"`
	Ts      int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	frame, err := events.DecodeAs[types.Frame](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(frame.Label())
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
