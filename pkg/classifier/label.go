package classifier

import (
	"fmt"
)

// Label is the outcome of classifying one frame.
type Label int

const (
	Red Label = iota
	Green
	Blue
	Black
	White
	// Undefined means the dominant channel sits below the others: the target
	// lacks that hue rather than showing it.
	Undefined
	// MappingError means no channel dominated strictly.
	MappingError
	// SensorFault means at least one of the classified channels failed to read.
	SensorFault
)

type labelInfo struct {
	name    string
	display string
}

var labels = [...]labelInfo{
	Red:          {name: "Red", display: "Red"},
	Green:        {name: "Green", display: "Green"},
	Blue:         {name: "Blue", display: "Blue"},
	Black:        {name: "Black", display: "Black"},
	White:        {name: "White", display: "White"},
	Undefined:    {name: "Undefined", display: "Undef"},
	MappingError: {name: "MappingError", display: "MAP ERR"},
	SensorFault:  {name: "SensorFault", display: "NO SIG"},
}

func (l Label) valid() bool {
	return l >= 0 && int(l) < len(labels)
}

func (l Label) String() string {
	if !l.valid() {
		return fmt.Sprintf("Label(%d)", int(l))
	}
	return labels[l].name
}

// DisplayText is what the screen shows for l.
func (l Label) DisplayText() string {
	if !l.valid() {
		return labels[MappingError].display
	}
	return labels[l].display
}

// Chromatic reports whether l names a hue.
func (l Label) Chromatic() bool {
	return l == Red || l == Green || l == Blue
}

func (l Label) MarshalText() ([]byte, error) {
	if !l.valid() {
		return nil, fmt.Errorf("invalid label %d", int(l))
	}
	return []byte(labels[l].name), nil
}

func (l *Label) UnmarshalText(b []byte) error {
	for i, info := range labels {
		if info.name == string(b) {
			*l = Label(i)
			return nil
		}
	}
	return fmt.Errorf("unknown label %q", string(b))
}
