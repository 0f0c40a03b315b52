package stopwatch

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Entry is one lap in a report.
type Entry struct {
	Key       string  `json:"key" msgpack:"key" yaml:"key"`
	ElapsedMS float64 `json:"elapsedMs" msgpack:"elapsed_ms" yaml:"elapsed_ms"`
}

// Report is the read-only timing summary of a LapTimer.
//
// Laps maps a lap key to the milliseconds elapsed since the previous lap.
// Repeated names are kept as separate entries: the second "x" becomes "x#2",
// or the next free "x#N" when that key is already taken.
type Report struct {
	Laps      *orderedmap.OrderedMap[string, float64] `json:"laps"`
	TotalLaps int                                     `json:"totalLaps"`
	TotalTime float64                                 `json:"totalTime"`
}

// Statistics builds the report for the laps recorded so far.
func (t *LapTimer) Statistics() Report {
	laps := orderedmap.New[string, float64](len(t.laps))
	// last suffix handed out per name
	suffix := make(map[string]int, len(t.laps))

	for i, l := range t.laps {
		var elapsed time.Duration
		if i > 0 {
			elapsed = l.At.Sub(t.laps[i-1].At)
		}
		key := l.Name
		n := suffix[l.Name]
		if n == 0 {
			n = 1
		}
		// A lap may itself be named like a generated key ("x#2").
		for taken(laps, key) {
			n++
			key = fmt.Sprintf("%s#%d", l.Name, n)
		}
		suffix[l.Name] = n
		laps.Set(key, Milliseconds(elapsed, t.precision))
	}

	return Report{
		Laps:      laps,
		TotalLaps: len(t.laps),
		TotalTime: Milliseconds(t.TotalTime(), t.precision),
	}
}

// Entries returns the report laps in insertion order.
func (r Report) Entries() []Entry {
	if r.Laps == nil {
		return nil
	}
	out := make([]Entry, 0, r.Laps.Len())
	for pair := r.Laps.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, Entry{Key: pair.Key, ElapsedMS: pair.Value})
	}
	return out
}

// ReportFromEntries rebuilds a report from stored entries.
func ReportFromEntries(entries []Entry, totalLaps int, totalTime float64) Report {
	laps := orderedmap.New[string, float64](len(entries))
	for _, e := range entries {
		laps.Set(e.Key, e.ElapsedMS)
	}
	return Report{Laps: laps, TotalLaps: totalLaps, TotalTime: totalTime}
}

// MarshalJSON always emits an object for laps, even when nothing was recorded.
func (r Report) MarshalJSON() ([]byte, error) {
	laps := r.Laps
	if laps == nil {
		laps = orderedmap.New[string, float64]()
	}
	type wire struct {
		Laps      *orderedmap.OrderedMap[string, float64] `json:"laps"`
		TotalLaps int                                     `json:"totalLaps"`
		TotalTime float64                                 `json:"totalTime"`
	}
	return json.Marshal(wire{Laps: laps, TotalLaps: r.TotalLaps, TotalTime: r.TotalTime})
}

// Milliseconds converts d to milliseconds rounded to the given number of decimals.
func Milliseconds(d time.Duration, decimals int) float64 {
	ms := float64(d.Nanoseconds()) / float64(time.Millisecond)
	if decimals < 0 {
		return ms
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(ms*scale) / scale
}

// UnmarshalJSON restores a report, keeping the lap order of the document.
func (r *Report) UnmarshalJSON(data []byte) error {
	wire := struct {
		Laps      *orderedmap.OrderedMap[string, float64] `json:"laps"`
		TotalLaps int                                     `json:"totalLaps"`
		TotalTime float64                                 `json:"totalTime"`
	}{Laps: orderedmap.New[string, float64]()}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.Laps = wire.Laps
	r.TotalLaps = wire.TotalLaps
	r.TotalTime = wire.TotalTime
	return nil
}

func taken(laps *orderedmap.OrderedMap[string, float64], key string) bool {
	_, ok := laps.Get(key)
	return ok
}
