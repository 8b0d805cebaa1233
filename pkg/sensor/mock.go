package sensor

import (
	"context"
	"sync"

	"github.com/pearlybrook/colordetect/pkg/channel"
)

// Mock replays scripted raw values per channel. A script entry of NoPulse
// makes that read fail with ErrNoPulse. Scripts loop; an unscripted channel
// reads as NoPulse.
type Mock struct {
	mu      sync.Mutex
	scripts [channel.Count][]int
	pos     [channel.Count]int
	reads   [channel.Count]int
}

var _ ChannelReader = &Mock{}

// NewMock returns a mock that always reads the given constant per channel.
func NewMock(values map[channel.Channel]int) *Mock {
	m := &Mock{}
	for ch, v := range values {
		m.Script(ch, v)
	}
	return m
}

// Script replaces the values returned for ch.
func (m *Mock) Script(ch channel.Channel, raws ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scripts[ch] = append([]int(nil), raws...)
	m.pos[ch] = 0
}

// Reads returns how many times ch was read.
func (m *Mock) Reads(ch channel.Channel) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.reads[ch]
}

func (m *Mock) ReadChannel(ctx context.Context, ch channel.Channel) (int, error) {
	if err := ctx.Err(); err != nil {
		return NoPulse, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads[ch]++
	script := m.scripts[ch]
	if len(script) == 0 {
		return NoPulse, ErrNoPulse
	}
	v := script[m.pos[ch]%len(script)]
	m.pos[ch]++
	if v == NoPulse {
		return NoPulse, ErrNoPulse
	}
	return v, nil
}
