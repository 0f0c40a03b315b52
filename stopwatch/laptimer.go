package stopwatch

import (
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// DefaultPrecision is the number of decimal places kept for millisecond values
	DefaultPrecision = 6
)

// Lap is a named checkpoint.
type Lap struct {
	Name string
	At   time.Time
}

// LapTimer accumulates laps in insertion order.
type LapTimer struct {
	clock     clock.Clock
	precision int
	start     time.Time
	laps      []Lap
}

// Option configures a LapTimer.
type Option func(*LapTimer)

// WithClock sets the time source. Tests use clock.NewMock().
func WithClock(c clock.Clock) Option {
	return func(t *LapTimer) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithPrecision sets the number of decimals kept in reports.
func WithPrecision(decimals int) Option {
	return func(t *LapTimer) {
		if decimals >= 0 {
			t.precision = decimals
		}
	}
}

// New creates a LapTimer. The start marker is taken at construction.
func New(opts ...Option) *LapTimer {
	t := &LapTimer{
		clock:     clock.New(),
		precision: DefaultPrecision,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.start = t.clock.Now()
	return t
}

// Lap appends a checkpoint. It always returns true so phase code can return it directly.
func (t *LapTimer) Lap(name string) bool {
	t.laps = append(t.laps, Lap{Name: name, At: t.clock.Now()})
	return true
}

// Laps returns a copy of the recorded laps in insertion order.
func (t *LapTimer) Laps() []Lap {
	out := make([]Lap, len(t.laps))
	copy(out, t.laps)
	return out
}

// Count returns the number of recorded laps.
func (t *LapTimer) Count() int {
	return len(t.laps)
}

// Nanos returns the offset of a lap from the timer's start marker in nanoseconds.
func (t *LapTimer) Nanos(l Lap) int64 {
	return l.At.Sub(t.start).Nanoseconds()
}

// TotalTime returns the time between the first and the last lap.
// Fewer than two laps yield zero.
func (t *LapTimer) TotalTime() time.Duration {
	if len(t.laps) < 2 {
		return 0
	}
	d := t.laps[len(t.laps)-1].At.Sub(t.laps[0].At)
	if d < 0 {
		return 0
	}
	return d
}

// Precision returns the number of decimals used by Statistics.
func (t *LapTimer) Precision() int {
	return t.precision
}
