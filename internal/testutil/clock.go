package testutil

import (
	"fmt"
	"sync"
	"time"
)

// StubClock returns a settable time. The time's location is the simulated
// device zone. Safe for concurrent use.
type StubClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStubClock creates a StubClock set to the given time.
func NewStubClock(t time.Time) *StubClock {
	return &StubClock{now: t}
}

// FixedClock returns a StubClock set to Monday 2024-03-04 10:30 at UTC-3.
func FixedClock() *StubClock {
	return NewStubClock(time.Date(2024, 3, 4, 10, 30, 0, 0, time.FixedZone("", -3*60*60)))
}

func (c *StubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *StubClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// SetRFC3339 moves the clock to the instant and zone written in s.
func (c *StubClock) SetRFC3339(s string) {
	c.Set(MustTime(s))
}

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// StubIDGenerator returns sequential IDs: "id-1", "id-2", etc.
type StubIDGenerator struct {
	mu      sync.Mutex
	counter int
}

func NewStubIDGenerator() *StubIDGenerator {
	return &StubIDGenerator{}
}

func (g *StubIDGenerator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("id-%d", g.counter)
}

// MustTime parses an RFC 3339 timestamp, keeping its offset as a fixed zone.
func MustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		panic(fmt.Sprintf("testutil: bad timestamp %q: %v", s, err))
	}
	return t
}
