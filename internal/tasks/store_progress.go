package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordProgress appends a progress row for an interactive generation
// session. Error detail is truncated to keep rows small.
func (s *Store) RecordProgress(ctx context.Context, p Progress) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	completed := 0
	if p.Completed {
		completed = 1
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO generation_progress
         (id, session_id, model, step_name, step_number, percent, completed, error_detail, result_url, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
             step_name = excluded.step_name,
             step_number = excluded.step_number,
             percent = excluded.percent,
             completed = excluded.completed,
             error_detail = excluded.error_detail,
             result_url = excluded.result_url,
             updated_at = excluded.updated_at`,
		p.ID, p.SessionID, p.Model, p.StepName, p.StepNumber, p.Percent, completed,
		nullableString(truncate(p.ErrorDetail, progressErrorLimit)),
		nullableString(p.ResultURL),
		timestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("record progress: %w", err)
	}
	return nil
}

// LatestProgressBySession returns the most recent progress row for a
// session, or nil when the session is unknown.
func (s *Store) LatestProgressBySession(ctx context.Context, sessionID string) (*Progress, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, model, step_name, step_number, percent, completed, error_detail, result_url, updated_at
         FROM generation_progress
         WHERE session_id = ?
         ORDER BY updated_at DESC, rowid DESC
         LIMIT 1`,
		sessionID)

	var (
		p          Progress
		completed  int
		errDetail  sql.NullString
		resultURL  sql.NullString
		updatedRaw sql.NullString
	)
	err := row.Scan(&p.ID, &p.SessionID, &p.Model, &p.StepName, &p.StepNumber, &p.Percent, &completed, &errDetail, &resultURL, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest progress: %w", err)
	}
	p.Completed = completed != 0
	p.ErrorDetail = errDetail.String
	p.ResultURL = resultURL.String
	p.UpdatedAt = parseTimestamp(updatedRaw)
	return &p, nil
}

// PruneProgress removes progress rows older than the retention window.
func (s *Store) PruneProgress(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := timestamp(time.Now().Add(-olderThan))
	res, err := s.execWithRetry(ctx,
		`DELETE FROM generation_progress WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune progress: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
