// Package reportstore persists the timing reports produced at shutdown.
package reportstore

import (
	"context"
	"errors"
	"time"

	"appshell/stopwatch"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no report is stored under a run ID.
var ErrNotFound = errors.New("report not found")

// Record is a stored timing report.
type Record struct {
	RunID     string            `json:"runId" msgpack:"run_id" yaml:"run_id"`
	Kind      string            `json:"kind" msgpack:"kind" yaml:"kind"`
	CreatedAt time.Time         `json:"createdAt" msgpack:"created_at" yaml:"created_at"`
	TotalLaps int               `json:"totalLaps" msgpack:"total_laps" yaml:"total_laps"`
	TotalTime float64           `json:"totalTime" msgpack:"total_time" yaml:"total_time"`
	Laps      []stopwatch.Entry `json:"laps" msgpack:"laps" yaml:"laps"`
}

// NewRecord captures report under runID.
func NewRecord(runID, kind string, report stopwatch.Report, createdAt time.Time) Record {
	return Record{
		RunID:     runID,
		Kind:      kind,
		CreatedAt: createdAt.UTC(),
		TotalLaps: report.TotalLaps,
		TotalTime: report.TotalTime,
		Laps:      report.Entries(),
	}
}

// Report rebuilds the ordered report.
func (r Record) Report() stopwatch.Report {
	return stopwatch.ReportFromEntries(r.Laps, r.TotalLaps, r.TotalTime)
}

// Store is a report sink that can also be read back.
type Store interface {
	Publish(ctx context.Context, runID, kind string, report stopwatch.Report) error
	Get(ctx context.Context, runID string) (Record, error)
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// NewRunID returns a random identifier for one application run.
func NewRunID() string {
	return uuid.NewString()
}

func validRunID(runID string) bool {
	return runID != ""
}

var errEmptyRunID = errors.New("run id is required")
