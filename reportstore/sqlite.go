package reportstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"appshell/stopwatch"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS lap_reports (
	run_id     TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	total_laps INTEGER NOT NULL,
	total_time REAL NOT NULL,
	report     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_lap_reports_created_at ON lap_reports(created_at);
`

// SQLiteStore keeps reports in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.SugaredLogger
	clock  clock.Clock
}

// NewSQLiteStore opens (and creates if needed) the database at path.
// ":memory:" opens a private in-memory database.
func NewSQLiteStore(path string, logger *zap.SugaredLogger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// One connection: a single writer, and the only way an in-memory database survives.
	db.SetMaxOpenConns(1)

	if err := configureSQLite(db, path); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create lap_reports table: %w", err)
	}

	logger.Infow("SQLite report store opened", "path", path)
	return &SQLiteStore{db: db, path: path, logger: logger, clock: clock.New()}, nil
}

func configureSQLite(db *sql.DB, path string) error {
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return nil
}

// Publish stores report under runID. The report column holds the same JSON
// document that is logged at shutdown.
func (s *SQLiteStore) Publish(ctx context.Context, runID, kind string, report stopwatch.Report) error {
	if !validRunID(runID) {
		return errEmptyRunID
	}
	doc, err := stopwatch.EncodeEnvelope(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lap_reports (run_id, kind, created_at, total_laps, total_time, report)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, kind, s.clock.Now().UTC().UnixNano(), report.TotalLaps, report.TotalTime, string(doc))
	if err != nil {
		return fmt.Errorf("failed to insert report %s: %w", runID, err)
	}
	return nil
}

// Get loads one report. Stored documents are validated before decoding.
func (s *SQLiteStore) Get(ctx context.Context, runID string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, kind, created_at, report FROM lap_reports WHERE run_id = ?`, runID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return rec, err
}

// List returns up to limit reports, newest first. A limit <= 0 returns all.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, kind, created_at, report FROM lap_reports
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec       Record
		createdAt int64
		doc       string
	)
	if err := row.Scan(&rec.RunID, &rec.Kind, &createdAt, &doc); err != nil {
		return Record{}, err
	}
	report, err := decodeEnvelope([]byte(doc))
	if err != nil {
		return Record{}, fmt.Errorf("report %s: %w", rec.RunID, err)
	}

	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	rec.TotalLaps = report.TotalLaps
	rec.TotalTime = report.TotalTime
	rec.Laps = report.Entries()
	return rec, nil
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
