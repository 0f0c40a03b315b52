package stopwatch

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockTimer(t *testing.T) (*LapTimer, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	return New(WithClock(mock)), mock
}

func TestLap_PreservesInsertionOrder(t *testing.T) {
	timer, mock := newMockTimer(t)

	names := []string{"b", "a", "c", "a"}
	for _, name := range names {
		assert.True(t, timer.Lap(name))
		mock.Add(time.Millisecond)
	}

	laps := timer.Laps()
	require.Len(t, laps, len(names))
	for i, l := range laps {
		assert.Equal(t, names[i], l.Name)
		if i > 0 {
			assert.False(t, l.At.Before(laps[i-1].At), "timestamps must be non-decreasing")
		}
	}
}

func TestLap_RealClockNonDecreasing(t *testing.T) {
	timer := New()
	for i := 0; i < 100; i++ {
		timer.Lap("tick")
	}

	laps := timer.Laps()
	for i := 1; i < len(laps); i++ {
		assert.GreaterOrEqual(t, timer.Nanos(laps[i]), timer.Nanos(laps[i-1]))
	}
	assert.GreaterOrEqual(t, timer.TotalTime(), time.Duration(0))
}

func TestLaps_ReturnsCopy(t *testing.T) {
	timer, _ := newMockTimer(t)
	timer.Lap("one")

	laps := timer.Laps()
	laps[0].Name = "changed"

	assert.Equal(t, "one", timer.Laps()[0].Name)
}

func TestTotalTime(t *testing.T) {
	tests := []struct {
		name     string
		steps    []time.Duration
		expected time.Duration
	}{
		{"no laps", nil, 0},
		{"single lap", []time.Duration{0}, 0},
		{"two laps", []time.Duration{0, 3 * time.Millisecond}, 3 * time.Millisecond},
		{"many laps", []time.Duration{time.Second, time.Millisecond, 2 * time.Millisecond, 0}, 3 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timer, mock := newMockTimer(t)
			for _, step := range tt.steps {
				mock.Add(step)
				timer.Lap("lap")
			}
			assert.Equal(t, tt.expected, timer.TotalTime())
		})
	}
}

func TestNanos_MeasuredFromStartMarker(t *testing.T) {
	timer, mock := newMockTimer(t)
	mock.Add(250 * time.Microsecond)
	timer.Lap("first")

	assert.Equal(t, int64(250000), timer.Nanos(timer.Laps()[0]))
}

func TestStatistics_PerLapMilliseconds(t *testing.T) {
	timer, mock := newMockTimer(t)

	timer.Lap("bootstrap: start")
	mock.Add(1500 * time.Microsecond)
	timer.Lap("bootstrap: end")
	mock.Add(2 * time.Millisecond)
	timer.Lap("shutdown")

	report := timer.Statistics()
	assert.Equal(t, 3, report.TotalLaps)
	assert.InDelta(t, 3.5, report.TotalTime, 1e-9)

	entries := report.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, Entry{Key: "bootstrap: start", ElapsedMS: 0}, entries[0])
	assert.Equal(t, "bootstrap: end", entries[1].Key)
	assert.InDelta(t, 1.5, entries[1].ElapsedMS, 1e-9)
	assert.InDelta(t, 2.0, entries[2].ElapsedMS, 1e-9)
}

func TestStatistics_LapSumEqualsTotal(t *testing.T) {
	timer, mock := newMockTimer(t)
	for i := 0; i < 10; i++ {
		timer.Lap("step")
		mock.Add(time.Duration(i+1) * 137 * time.Microsecond)
	}

	report := timer.Statistics()
	var sum float64
	for _, e := range report.Entries() {
		sum += e.ElapsedMS
	}
	assert.InDelta(t, report.TotalTime, sum, 1e-6)
}

func TestStatistics_DuplicateNamesAccumulate(t *testing.T) {
	timer, mock := newMockTimer(t)
	timer.Lap("tick")
	mock.Add(time.Millisecond)
	timer.Lap("tick")
	mock.Add(time.Millisecond)
	timer.Lap("tick")

	report := timer.Statistics()
	assert.Equal(t, 3, report.Laps.Len())

	keys := make([]string, 0, 3)
	for _, e := range report.Entries() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"tick", "tick#2", "tick#3"}, keys)
}

func TestStatistics_Rounding(t *testing.T) {
	mock := clock.NewMock()
	timer := New(WithClock(mock), WithPrecision(2))
	timer.Lap("a")
	mock.Add(1234567 * time.Nanosecond)
	timer.Lap("b")

	report := timer.Statistics()
	assert.Equal(t, 1.23, report.TotalTime)
	assert.Equal(t, 2, timer.Precision())
}

func TestMilliseconds(t *testing.T) {
	assert.Equal(t, 1234.568, Milliseconds(1234567891*time.Nanosecond, 3))
	assert.Equal(t, 0.0, Milliseconds(0, DefaultPrecision))
	assert.Equal(t, 2.0, Milliseconds(2*time.Millisecond, 0))
}

func TestReport_MarshalJSONKeepsOrder(t *testing.T) {
	timer, mock := newMockTimer(t)
	timer.Lap("zeta")
	mock.Add(time.Millisecond)
	timer.Lap("alpha")

	data, err := json.Marshal(timer.Statistics())
	require.NoError(t, err)
	assert.JSONEq(t, `{"laps":{"zeta":0,"alpha":1},"totalLaps":2,"totalTime":1}`, string(data))
	assert.Less(t, strings.Index(string(data), "zeta"), strings.Index(string(data), "alpha"))
}

func TestReport_EmptyMarshalsObject(t *testing.T) {
	timer, _ := newMockTimer(t)

	data, err := json.Marshal(timer.Statistics())
	require.NoError(t, err)
	assert.JSONEq(t, `{"laps":{},"totalLaps":0,"totalTime":0}`, string(data))

	data, err = json.Marshal(Report{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"laps":{},"totalLaps":0,"totalTime":0}`, string(data))
}

func TestReportFromEntries(t *testing.T) {
	entries := []Entry{{Key: "a", ElapsedMS: 0}, {Key: "b", ElapsedMS: 1.5}}
	report := ReportFromEntries(entries, 2, 1.5)

	assert.Equal(t, entries, report.Entries())
	assert.Equal(t, 2, report.TotalLaps)
	assert.Equal(t, 1.5, report.TotalTime)
}

func TestReport_UnmarshalJSONKeepsOrder(t *testing.T) {
	var report Report
	require.NoError(t, json.Unmarshal([]byte(`{"laps":{"zeta":0,"alpha":1.5},"totalLaps":2,"totalTime":1.5}`), &report))

	assert.Equal(t, []Entry{{Key: "zeta", ElapsedMS: 0}, {Key: "alpha", ElapsedMS: 1.5}}, report.Entries())
	assert.Equal(t, 2, report.TotalLaps)
	assert.Equal(t, 1.5, report.TotalTime)
}

func TestStatistics_DuplicateKeyNeverOverwrites(t *testing.T) {
	timer, mock := newMockTimer(t)
	for _, name := range []string{"x", "x", "x#2"} {
		timer.Lap(name)
		mock.Add(time.Millisecond)
	}

	report := timer.Statistics()
	entries := report.Entries()
	require.Len(t, entries, report.TotalLaps)
	assert.Equal(t, []Entry{
		{Key: "x", ElapsedMS: 0},
		{Key: "x#2", ElapsedMS: 1},
		{Key: "x#2#2", ElapsedMS: 1},
	}, entries)

	var sum float64
	for _, e := range entries {
		sum += e.ElapsedMS
	}
	assert.InDelta(t, report.TotalTime, sum, 1e-9)
}

func TestStatistics_GeneratedKeySkipsTakenSuffix(t *testing.T) {
	timer, _ := newMockTimer(t)
	for _, name := range []string{"x#2", "x", "x", "x"} {
		timer.Lap(name)
	}

	keys := make([]string, 0, 4)
	for _, e := range timer.Statistics().Entries() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"x#2", "x", "x#3", "x#4"}, keys)
}
