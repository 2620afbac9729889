package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const taskColumns = "id, model, primary_color, accent_color, led_color, width, status, attempts, batch_id, worker_id, output_key, output_bytes, error_message, created_at, updated_at, started_at, completed_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id           int64
		model        string
		primaryColor string
		accentColor  string
		ledColor     string
		width        int
		statusStr    string
		attempts     int
		batchID      sql.NullString
		workerID     sql.NullString
		outputKey    sql.NullString
		outputBytes  sql.NullInt64
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		startedRaw   sql.NullString
		completedRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&model,
		&primaryColor,
		&accentColor,
		&ledColor,
		&width,
		&statusStr,
		&attempts,
		&batchID,
		&workerID,
		&outputKey,
		&outputBytes,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&completedRaw,
	); err != nil {
		return nil, err
	}

	return &Task{
		ID:           id,
		Model:        model,
		PrimaryColor: primaryColor,
		AccentColor:  accentColor,
		LEDColor:     ledColor,
		Width:        width,
		Status:       Status(statusStr),
		Attempts:     attempts,
		BatchID:      batchID.String,
		WorkerID:     workerID.String,
		OutputKey:    outputKey.String,
		OutputBytes:  outputBytes.Int64,
		ErrorMessage: errorMessage.String,
		CreatedAt:    parseTimestamp(createdRaw),
		UpdatedAt:    parseTimestamp(updatedRaw),
		StartedAt:    parseTimestamp(startedRaw),
		CompletedAt:  parseTimestamp(completedRaw),
	}, nil
}

// InsertTasks stores new identities, silently skipping combinations
// that already exist. It returns the number of rows actually inserted.
func (s *Store) InsertTasks(ctx context.Context, identities []Identity) (int, error) {
	ctx = ensureContext(ctx)
	inserted := 0
	now := timestamp(time.Now())

	for start := 0; start < len(identities); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(identities) {
			end = len(identities)
		}
		chunk := identities[start:end]

		query := `INSERT OR IGNORE INTO render_tasks
            (model, primary_color, accent_color, led_color, width, status, attempts, created_at, updated_at)
            VALUES `
		args := make([]any, 0, len(chunk)*9)
		for i, identity := range chunk {
			if i > 0 {
				query += ", "
			}
			query += "(?, ?, ?, ?, ?, ?, ?, ?, ?)"
			args = append(args,
				identity.Model,
				identity.PrimaryColor,
				identity.AccentColor,
				identity.LEDColor,
				identity.Width,
				StatusPending,
				0,
				now,
				now,
			)
		}

		res, err := s.execWithRetry(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("insert tasks: %w", err)
		}
		if affected, err := res.RowsAffected(); err == nil {
			inserted += int(affected)
		}
	}
	return inserted, nil
}

// Identities pages through every stored identity so populate can skip
// combinations that already exist without loading full rows.
func (s *Store) Identities(ctx context.Context) (map[Identity]struct{}, error) {
	ctx = ensureContext(ctx)
	existing := make(map[Identity]struct{})
	var lastID int64

	for {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, model, primary_color, accent_color, led_color, width
             FROM render_tasks WHERE id > ? ORDER BY id LIMIT ?`,
			lastID, identityPageSize)
		if err != nil {
			return nil, fmt.Errorf("list identities: %w", err)
		}

		count := 0
		for rows.Next() {
			var id int64
			var identity Identity
			if err := rows.Scan(&id, &identity.Model, &identity.PrimaryColor, &identity.AccentColor, &identity.LEDColor, &identity.Width); err != nil {
				rows.Close()
				return nil, err
			}
			existing[identity] = struct{}{}
			lastID = id
			count++
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		if count < identityPageSize {
			return existing, nil
		}
	}
}

// ResetFailed returns retryable failed tasks to pending. Tasks that
// already consumed every attempt stay failed.
func (s *Store) ResetFailed(ctx context.Context) (int, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE render_tasks
         SET status = ?, error_message = NULL, updated_at = ?
         WHERE status = ? AND attempts < ?`,
		StatusPending, timestamp(time.Now()), StatusFailed, MaxAttempts)
	if err != nil {
		return 0, fmt.Errorf("reset failed tasks: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// FetchPending returns up to limit runnable tasks in insertion order.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]*Task, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM render_tasks
         WHERE status = ? AND attempts < ?
         ORDER BY id LIMIT ?`,
		StatusPending, MaxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch pending tasks: %w", err)
	}
	defer rows.Close()

	var result []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}

// AssignBatch stamps the batch id onto the given task ids.
func (s *Store) AssignBatch(ctx context.Context, batchID string, taskIDs []int64) error {
	ctx = ensureContext(ctx)
	now := timestamp(time.Now())

	for start := 0; start < len(taskIDs); start += batchAssignChunks {
		end := start + batchAssignChunks
		if end > len(taskIDs) {
			end = len(taskIDs)
		}
		chunk := taskIDs[start:end]

		args := make([]any, 0, len(chunk)+2)
		args = append(args, batchID, now)
		for _, id := range chunk {
			args = append(args, id)
		}
		query := `UPDATE render_tasks SET batch_id = ?, updated_at = ? WHERE id IN (` + makePlaceholders(len(chunk)) + `)`
		if _, err := s.execWithRetry(ctx, query, args...); err != nil {
			return fmt.Errorf("assign batch: %w", err)
		}
	}
	return nil
}

// MarkProcessing transitions a task to processing and burns an attempt.
func (s *Store) MarkProcessing(ctx context.Context, taskID int64, workerID string) error {
	now := timestamp(time.Now())
	_, err := s.execWithRetry(ctx,
		`UPDATE render_tasks
         SET status = ?, attempts = attempts + 1, worker_id = ?, started_at = ?, updated_at = ?
         WHERE id = ?`,
		StatusProcessing, nullableString(workerID), now, now, taskID)
	if err != nil {
		return fmt.Errorf("mark task processing: %w", err)
	}
	return nil
}

// MarkCompleted records a successful render with its output location.
func (s *Store) MarkCompleted(ctx context.Context, taskID int64, outputKey string, outputBytes int64) error {
	now := timestamp(time.Now())
	_, err := s.execWithRetry(ctx,
		`UPDATE render_tasks
         SET status = ?, output_key = ?, output_bytes = ?, error_message = NULL, completed_at = ?, updated_at = ?
         WHERE id = ?`,
		StatusCompleted, outputKey, outputBytes, now, now, taskID)
	if err != nil {
		return fmt.Errorf("mark task completed: %w", err)
	}
	return nil
}

// MarkFailed records a failure. The message is truncated so oversized
// SDK errors cannot bloat the database.
func (s *Store) MarkFailed(ctx context.Context, taskID int64, message string) error {
	now := timestamp(time.Now())
	_, err := s.execWithRetry(ctx,
		`UPDATE render_tasks
         SET status = ?, error_message = ?, updated_at = ?
         WHERE id = ?`,
		StatusFailed, nullableString(truncate(message, taskErrorLimit)), now, taskID)
	if err != nil {
		return fmt.Errorf("mark task failed: %w", err)
	}
	return nil
}

// GetTask loads one task by id.
func (s *Store) GetTask(ctx context.Context, taskID int64) (*Task, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM render_tasks WHERE id = ?`, taskID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", taskID, err)
	}
	return task, nil
}

// CompleteMatchingTask marks the queue row for an identity completed if
// one exists. Interactive generations use this to keep batch bookkeeping
// consistent without requiring a queue entry.
func (s *Store) CompleteMatchingTask(ctx context.Context, identity Identity, outputKey string, outputBytes int64) error {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id FROM render_tasks
         WHERE model = ? AND primary_color = ? AND accent_color = ? AND led_color = ? AND width = ?`,
		identity.Model, identity.PrimaryColor, identity.AccentColor, identity.LEDColor, identity.Width)

	var id int64
	err := row.Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("find matching task: %w", err)
	}
	return s.MarkCompleted(ctx, id, outputKey, outputBytes)
}

// TaskStats returns per-status task counts.
func (s *Store) TaskStats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM render_tasks GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("task stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		switch status {
		case StatusPending:
			stats.Pending = count
		case StatusProcessing:
			stats.Processing = count
		case StatusCompleted:
			stats.Completed = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

// Model is one entry in the discovered model catalog.
type Model struct {
	Name              string
	TotalCombinations int
	MulticolorLED     bool
	DiscoveredAt      time.Time
}

// UpsertModels refreshes the discovered model catalog.
func (s *Store) UpsertModels(ctx context.Context, models []Model) error {
	ctx = ensureContext(ctx)
	now := timestamp(time.Now())
	for _, model := range models {
		multicolor := 0
		if model.MulticolorLED {
			multicolor = 1
		}
		if _, err := s.execWithRetry(ctx,
			`INSERT INTO render_models (name, total_combinations, is_multicolor_led, discovered_at)
             VALUES (?, ?, ?, ?)
             ON CONFLICT(name) DO UPDATE SET
                 total_combinations = excluded.total_combinations,
                 is_multicolor_led = excluded.is_multicolor_led,
                 discovered_at = excluded.discovered_at`,
			model.Name, model.TotalCombinations, multicolor, now); err != nil {
			return fmt.Errorf("upsert model %s: %w", model.Name, err)
		}
	}
	return nil
}

// Models lists the discovered model catalog in name order.
func (s *Store) Models(ctx context.Context) ([]Model, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, total_combinations, is_multicolor_led, discovered_at FROM render_models ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var models []Model
	for rows.Next() {
		var model Model
		var multicolor int
		var discoveredRaw sql.NullString
		if err := rows.Scan(&model.Name, &model.TotalCombinations, &multicolor, &discoveredRaw); err != nil {
			return nil, err
		}
		model.MulticolorLED = multicolor != 0
		model.DiscoveredAt = parseTimestamp(discoveredRaw)
		models = append(models, model)
	}
	return models, rows.Err()
}
