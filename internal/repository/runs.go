package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jmarceau/echeancier/constants"
	"github.com/jmarceau/echeancier/internal/common"
)

// Run is one persisted extraction attempt. Payload keeps the isolated text
// of a successful run so exports can be rebuilt later; RawText and Error are
// retained on failures for operator inspection.
type Run struct {
	ID             uuid.UUID
	Filename       string
	Status         constants.RunStatus
	RowCount       int
	TotalInsurance float64
	TotalInterest  float64
	FirstDueDate   string
	Payload        string
	RawText        string
	Error          string
	CreatedAt      time.Time
}

// RunStore persists extraction runs in a local sqlite database.
type RunStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the run store at path and ensures the
// schema exists.
func Open(path string, logger *slog.Logger) (*RunStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.WrapError(err, "open run store")
	}
	s := &RunStore{db: db, logger: logger}
	if err := s.EnsureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *RunStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the runs table when missing.
func (s *RunStore) EnsureSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id              TEXT PRIMARY KEY,
		filename        TEXT NOT NULL,
		status          TEXT NOT NULL,
		row_count       INTEGER NOT NULL DEFAULT 0,
		total_insurance REAL NOT NULL DEFAULT 0,
		total_interest  REAL NOT NULL DEFAULT 0,
		first_due_date  TEXT NOT NULL DEFAULT '',
		payload         TEXT NOT NULL DEFAULT '',
		raw_text        TEXT NOT NULL DEFAULT '',
		error           TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return common.WrapError(err, "create runs table")
	}
	return nil
}

// CreateRun inserts a run row. A zero CreatedAt is stamped with now.
func (s *RunStore) CreateRun(ctx context.Context, run Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, filename, status, row_count, total_insurance,
			total_interest, first_due_date, payload, raw_text, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Filename, string(run.Status), run.RowCount,
		run.TotalInsurance, run.TotalInterest, run.FirstDueDate,
		run.Payload, run.RawText, run.Error, run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return common.NewAppError("RUN_INSERT", "insert run "+run.ID.String(), err)
	}
	s.logger.Debug("repository.runs.created",
		"run_id", run.ID.String(), "status", string(run.Status), "rows", run.RowCount)
	return nil
}

// GetRun loads one run by id; common.ErrNotFound when absent.
func (s *RunStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, status, row_count, total_insurance, total_interest,
			first_due_date, payload, raw_text, error, created_at
		FROM runs WHERE id = ?`, id.String())
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("RUN_NOT_FOUND", "run "+id.String(), common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapError(err, "query run")
	}
	return run, nil
}

// ListRuns returns up to limit runs, most recent first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, status, row_count, total_insurance, total_interest,
			first_due_date, payload, raw_text, error, created_at
		FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, common.WrapError(err, "query runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan run")
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run       Run
		id        string
		status    string
		createdAt string
	)
	err := sc.Scan(&id, &run.Filename, &status, &run.RowCount,
		&run.TotalInsurance, &run.TotalInterest, &run.FirstDueDate,
		&run.Payload, &run.RawText, &run.Error, &createdAt)
	if err != nil {
		return nil, err
	}
	run.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("malformed run id %q: %w", id, err)
	}
	run.Status = constants.RunStatus(status)
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("malformed run timestamp %q: %w", createdAt, err)
	}
	return &run, nil
}
