package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Nikonell/krakker-backend/internal/models"
)

// SyncRunStore keeps the history of reconciliation passes.
type SyncRunStore struct {
	db    *DB
	limit int
}

// NewSyncRunStore creates a store that keeps at most limit runs.
// A limit of zero or less keeps everything.
func NewSyncRunStore(db *DB, limit int) *SyncRunStore {
	return &SyncRunStore{db: db, limit: limit}
}

// RecordRun inserts a pass outcome and prunes history beyond the limit.
func (s *SyncRunStore) RecordRun(ctx context.Context, run *models.SyncRun) error {
	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("marshal run errors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, started_at, finished_at, projects, created, completed, failures, errors, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt, run.FinishedAt, run.Projects, run.Created, run.Completed,
		run.Failures, string(errorsJSON), run.Error)
	if err != nil {
		return fmt.Errorf("insert sync run: %w", err)
	}

	if s.limit > 0 {
		_, err = s.db.ExecContext(ctx, `
			DELETE FROM sync_runs WHERE id NOT IN (
				SELECT id FROM sync_runs ORDER BY started_at DESC, rowid DESC LIMIT ?
			)
		`, s.limit)
		if err != nil {
			return fmt.Errorf("prune sync runs: %w", err)
		}
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *SyncRunStore) List(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, projects, created, completed, failures, errors, error
		FROM sync_runs ORDER BY started_at DESC, rowid DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		var r models.SyncRun
		var errorsJSON, runErr sql.NullString
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Projects, &r.Created,
			&r.Completed, &r.Failures, &errorsJSON, &runErr); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		if errorsJSON.Valid && errorsJSON.String != "" {
			if err := json.Unmarshal([]byte(errorsJSON.String), &r.Errors); err != nil {
				return nil, fmt.Errorf("decode errors of sync run %s: %w", r.ID, err)
			}
		}
		r.Error = runErr.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Latest returns the most recent run, or nil if none has been recorded.
func (s *SyncRunStore) Latest(ctx context.Context) (*models.SyncRun, error) {
	runs, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}
