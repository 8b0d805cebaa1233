// Package extrema keeps the smallest and largest raw reading seen on each
// channel. The numbers are diagnostic: they help an operator pick calibration
// ranges and never feed back into classification.
package extrema

import (
	"github.com/pearlybrook/colordetect/pkg/channel"
)

const (
	// InitialMin and InitialMax are the sentinels a fresh record starts from.
	InitialMin = 32767
	InitialMax = -32768
)

// Record is the observed span of one channel.
type Record struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// HasMin reports whether Min moved off its sentinel.
func (r Record) HasMin() bool { return r.Min != InitialMin }

// HasMax reports whether Max moved off its sentinel.
func (r Record) HasMax() bool { return r.Max != InitialMax }

func initialRecord() Record {
	return Record{Min: InitialMin, Max: InitialMax}
}

// Tracker is not safe for concurrent use; the owner serializes access.
type Tracker struct {
	records [channel.Count]Record
}

// NewTracker returns a tracker with every channel at its sentinels.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.Reset()
	return t
}

// Update folds raw into the record of ch. Only one bound moves per call: a
// value that lowers the minimum is not also considered for the maximum, so
// the very first reading only ever sets Min.
func (t *Tracker) Update(ch channel.Channel, raw int) {
	rec := &t.records[ch]
	if raw < rec.Min {
		rec.Min = raw
	} else if raw > rec.Max {
		rec.Max = raw
	}
}

// Get returns the record of ch.
func (t *Tracker) Get(ch channel.Channel) Record {
	return t.records[ch]
}

// Snapshot copies all records.
func (t *Tracker) Snapshot() [channel.Count]Record {
	return t.records
}

// Reset puts every channel back to its sentinels.
func (t *Tracker) Reset() {
	for i := range t.records {
		t.records[i] = initialRecord()
	}
}
