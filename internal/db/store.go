package db

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/metalagman/foreman/internal/coordinator"
	"github.com/metalagman/foreman/internal/model"
)

// Store persists runs, their per-task results, and the event timeline.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// NewRunID returns a sortable unique run identifier.
func NewRunID() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return time.Now().UTC().Format("20060102-150405") + "-" + hex.EncodeToString(buf)
}

// RunRecord is one row of the runs table.
type RunRecord struct {
	RunID           string
	CreatedAt       string
	FinishedAt      string
	Request         string
	Status          string
	TotalTasks      int
	SuccessfulTasks int
	FailedTasks     int
}

// CreateRun inserts the run record in the running state.
func (s *Store) CreateRun(ctx context.Context, runID, request string) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, `INSERT INTO runs(run_id, created_at, request, status)
		VALUES(?, ?, ?, ?)`,
		runID, createdAt, request, "running"); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the summary and per-task results in one transaction.
// Status reflects the partial-success contract: succeeded only when every
// task succeeded, partial when some did, failed when none did.
func (s *Store) FinishRun(ctx context.Context, runID string, summary model.RunSummary) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin finish run: %w", err)
	}

	finishedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `UPDATE runs SET finished_at=?, status=?, total_tasks=?, successful_tasks=?, failed_tasks=? WHERE run_id=?`,
		finishedAt, runStatus(summary), summary.TotalTasks, summary.SuccessfulTasks, summary.FailedTasks, runID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update run: %w", err)
	}

	for _, result := range summary.Results {
		if _, err := tx.ExecContext(ctx, `INSERT INTO task_results(run_id, task_id, description, target_location, success, attempts_used, failure_reason, code, self_tests)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, result.TaskID, result.Description, result.TargetLocation, boolInt(result.Success), result.AttemptsUsed,
			nullableString(result.FailureReason), result.Implementation.Code, result.Implementation.SelfTests); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert task result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit finish run: %w", err)
	}
	return nil
}

func runStatus(summary model.RunSummary) string {
	switch {
	case summary.OverallSuccess:
		return "succeeded"
	case summary.SuccessfulTasks > 0:
		return "partial"
	default:
		return "failed"
	}
}

// EventRecorder adapts the store to the coordinator's sink interface.
// Persistence failures are logged by the caller's handle and never surface
// into the run.
type EventRecorder struct {
	store *Store
	runID string
}

// NewEventRecorder binds a recorder to one run.
func (s *Store) NewEventRecorder(runID string) *EventRecorder {
	return &EventRecorder{store: s, runID: runID}
}

// Emit appends one event to the run timeline.
func (r *EventRecorder) Emit(ctx context.Context, event coordinator.Event) {
	_ = r.store.InsertEvent(ctx, r.runID, event)
}

// InsertEvent appends one event with the next sequence number.
func (s *Store) InsertEvent(ctx context.Context, runID string, event coordinator.Event) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin insert event: %w", err)
	}

	var seq int
	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM events WHERE run_id=?`, runID)
	if err := row.Scan(&seq); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("read event seq: %w", err)
	}

	ts := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `INSERT INTO events(run_id, seq, ts, type, task_id, attempt, detail) VALUES(?, ?, ?, ?, ?, ?, ?)`,
		runID, seq+1, ts, event.Type, nullableInt(event.TaskID), nullableInt(event.Attempt), nullableString(event.Detail)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert event: %w", err)
	}
	return nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, created_at, COALESCE(finished_at, ''), request, status, total_tasks, successful_tasks, failed_tasks
		FROM runs ORDER BY created_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.RunID, &rec.CreatedAt, &rec.FinishedAt, &rec.Request, &rec.Status,
			&rec.TotalTasks, &rec.SuccessfulTasks, &rec.FailedTasks); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return records, nil
}

// TaskResultRecord is one row of the task_results table.
type TaskResultRecord struct {
	TaskID         int
	Description    string
	TargetLocation string
	Success        bool
	AttemptsUsed   int
	FailureReason  string
	Code           string
	SelfTests      string
}

// ListTaskResults returns the task results for a run in task order.
func (s *Store) ListTaskResults(ctx context.Context, runID string) ([]TaskResultRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT task_id, description, target_location, success, attempts_used, COALESCE(failure_reason, ''), code, self_tests
		FROM task_results WHERE run_id=? ORDER BY task_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list task results: %w", err)
	}
	defer rows.Close()

	var records []TaskResultRecord
	for rows.Next() {
		var rec TaskResultRecord
		var success int
		if err := rows.Scan(&rec.TaskID, &rec.Description, &rec.TargetLocation, &success,
			&rec.AttemptsUsed, &rec.FailureReason, &rec.Code, &rec.SelfTests); err != nil {
			return nil, fmt.Errorf("scan task result: %w", err)
		}
		rec.Success = success != 0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task results: %w", err)
	}
	return records, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}
