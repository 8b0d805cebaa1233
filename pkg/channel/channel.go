// Package channel defines the four light-filter paths of a TCS230-class sensor
// and the per-channel attributes every other package looks up by Channel.
package channel

import (
	"fmt"
	"strings"
)

// Channel identifies one photodiode group. The ordinal is fixed and is used as
// an index into per-channel arrays across the module.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
	Clear
)

// Count is the number of channels a sensor exposes.
const Count = 4

// RGB lists the channels that take part in classification, in order.
var RGB = [3]Channel{Red, Green, Blue}

// All lists every channel in ordinal order.
var All = [Count]Channel{Red, Green, Blue, Clear}

// Cursor is where a channel's cell starts on the display. ValueOffset is added
// to X to place the reading after the label.
type Cursor struct {
	X           int
	Y           int
	ValueOffset int
}

// Info holds everything known about a channel.
type Info struct {
	Name string
	// Label is the short text rendered before the value, e.g. "R:".
	Label string
	// S2 and S3 are the photodiode selector levels, true meaning HIGH.
	S2, S3 bool
	Cursor Cursor
}

var table = [Count]Info{
	Red:   {Name: "red", Label: "R:", S2: false, S3: false, Cursor: Cursor{X: 3, Y: 20, ValueOffset: 10}},
	Green: {Name: "green", Label: "G:", S2: true, S3: true, Cursor: Cursor{X: 50, Y: 20, ValueOffset: 10}},
	Blue:  {Name: "blue", Label: "B:", S2: false, S3: true, Cursor: Cursor{X: 97, Y: 20, ValueOffset: 10}},
	Clear: {Name: "clear", Label: "C:", S2: true, S3: false, Cursor: Cursor{X: 0, Y: 30, ValueOffset: 10}},
}

// Valid reports whether c is one of the four known channels.
func (c Channel) Valid() bool {
	return c >= Red && c <= Clear
}

// Info returns the attribute row of c. It panics on an invalid channel.
func (c Channel) Info() Info {
	if !c.Valid() {
		panic(fmt.Sprintf("invalid channel %d", int(c)))
	}
	return table[c]
}

func (c Channel) String() string {
	if !c.Valid() {
		return fmt.Sprintf("channel(%d)", int(c))
	}
	return table[c].Name
}

// MarshalText encodes a channel by name so it can key JSON objects.
func (c Channel) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid channel %d", int(c))
	}
	return []byte(table[c].Name), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (c *Channel) UnmarshalText(b []byte) error {
	ch, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = ch
	return nil
}

// Parse resolves a channel from its name or its first letter, case-insensitive.
func Parse(s string) (Channel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, ch := range All {
		name := table[ch].Name
		if s == name || s == name[:1] {
			return ch, nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q, must be one of red, green, blue, clear", s)
}
