package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const batchColumns = "id, status, total_tasks, completed_tasks, failed_tasks, images_per_second, duration_seconds, created_at, updated_at"

func scanBatch(scanner interface{ Scan(dest ...any) error }) (*Batch, error) {
	var (
		id         string
		statusStr  string
		total      int
		completed  int
		failed     int
		perSecond  float64
		duration   float64
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &statusStr, &total, &completed, &failed, &perSecond, &duration, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}
	return &Batch{
		ID:              id,
		Status:          BatchStatus(statusStr),
		TotalTasks:      total,
		CompletedTasks:  completed,
		FailedTasks:     failed,
		ImagesPerSecond: perSecond,
		DurationSeconds: duration,
		CreatedAt:       parseTimestamp(createdRaw),
		UpdatedAt:       parseTimestamp(updatedRaw),
	}, nil
}

// CreateBatch opens a new batch run record and returns its id.
func (s *Store) CreateBatch(ctx context.Context, totalTasks int) (string, error) {
	id := uuid.NewString()
	now := timestamp(time.Now())
	_, err := s.execWithRetry(ctx,
		`INSERT INTO render_batches (id, status, total_tasks, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		id, BatchRunning, totalTasks, now, now)
	if err != nil {
		return "", fmt.Errorf("create batch: %w", err)
	}
	return id, nil
}

// UpdateBatchProgress persists running aggregates for a batch.
func (s *Store) UpdateBatchProgress(ctx context.Context, batchID string, completed, failed int, perSecond, durationSeconds float64) error {
	_, err := s.execWithRetry(ctx,
		`UPDATE render_batches
         SET completed_tasks = ?, failed_tasks = ?, images_per_second = ?, duration_seconds = ?, updated_at = ?
         WHERE id = ?`,
		completed, failed, perSecond, durationSeconds, timestamp(time.Now()), batchID)
	if err != nil {
		return fmt.Errorf("update batch progress: %w", err)
	}
	return nil
}

// FinishBatch records the terminal status of a batch run.
func (s *Store) FinishBatch(ctx context.Context, batchID string, status BatchStatus) error {
	_, err := s.execWithRetry(ctx,
		`UPDATE render_batches SET status = ?, updated_at = ? WHERE id = ?`,
		status, timestamp(time.Now()), batchID)
	if err != nil {
		return fmt.Errorf("finish batch: %w", err)
	}
	return nil
}

// GetBatch loads one batch by id, or nil when unknown.
func (s *Store) GetBatch(ctx context.Context, batchID string) (*Batch, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM render_batches WHERE id = ?`, batchID)
	batch, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get batch %s: %w", batchID, err)
	}
	return batch, nil
}

// RecentBatches lists batch runs newest first.
func (s *Store) RecentBatches(ctx context.Context, limit int) ([]*Batch, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+batchColumns+` FROM render_batches ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var result []*Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, batch)
	}
	return result, rows.Err()
}
