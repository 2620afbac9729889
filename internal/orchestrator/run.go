package orchestrator

import (
	"context"
	"fmt"
	"os"
	"time"

	"colorforge/internal/logging"
	"colorforge/internal/render"
	"colorforge/internal/tasks"
)

// cacheControl pins generated images as immutable for a year; output
// keys encode the full combination so they never need invalidation.
const cacheControl = "public, max-age=31536000, immutable"

// RunOptions tunes one batch run. Zero values fall back to config.
type RunOptions struct {
	BatchSize   int
	MaxParallel int
	MaxTasks    int
}

// RunResult summarizes a finished batch run.
type RunResult struct {
	BatchID         string
	Completed       int
	Failed          int
	Duration        time.Duration
	ImagesPerSecond float64
}

type subBatchResult struct {
	completed int
	failed    int
	err       error
}

// Run drains pending tasks in rounds of parallel sub-batches until the
// queue is empty or MaxTasks is reached. Individual render failures are
// recorded on their tasks and do not stop the run; store errors abort
// it and mark the batch failed.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (RunResult, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = o.cfg.Batch.BatchSize
	}
	maxParallel := opts.MaxParallel
	if maxParallel <= 0 {
		maxParallel = o.cfg.Batch.MaxParallel
	}

	stats, err := o.store.TaskStats(ctx)
	if err != nil {
		return RunResult{}, err
	}
	total := stats.Pending
	if opts.MaxTasks > 0 && opts.MaxTasks < total {
		total = opts.MaxTasks
	}

	batchID, err := o.store.CreateBatch(ctx, total)
	if err != nil {
		return RunResult{}, err
	}
	result := RunResult{BatchID: batchID}
	started := time.Now()

	workerID := workerIdentity()
	o.logger.Info("batch run started",
		logging.String("batch", batchID),
		logging.Int("pending", total),
		logging.Int("batch_size", batchSize),
		logging.Int("max_parallel", maxParallel))

	if err := o.runRounds(ctx, batchID, workerID, batchSize, maxParallel, opts.MaxTasks, started, &result); err != nil {
		_ = o.store.FinishBatch(ctx, batchID, tasks.BatchFailed)
		return result, err
	}

	result.Duration = time.Since(started)
	if result.Duration > 0 {
		result.ImagesPerSecond = float64(result.Completed) / result.Duration.Seconds()
	}
	if err := o.store.UpdateBatchProgress(ctx, batchID, result.Completed, result.Failed, result.ImagesPerSecond, result.Duration.Seconds()); err != nil {
		return result, err
	}
	if err := o.store.FinishBatch(ctx, batchID, tasks.BatchCompleted); err != nil {
		return result, err
	}

	o.logger.Info("batch run finished",
		logging.String("batch", batchID),
		logging.Int("completed", result.Completed),
		logging.Int("failed", result.Failed),
		logging.Duration("duration", result.Duration),
		logging.Float64("images_per_second", result.ImagesPerSecond))
	return result, nil
}

func (o *Orchestrator) runRounds(ctx context.Context, batchID, workerID string, batchSize, maxParallel, maxTasks int, started time.Time, result *RunResult) error {
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		limit := batchSize * maxParallel
		if maxTasks > 0 && maxTasks-processed < limit {
			limit = maxTasks - processed
		}
		if limit <= 0 {
			return nil
		}

		pending, err := o.store.FetchPending(ctx, limit)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}

		ids := make([]int64, len(pending))
		for i, task := range pending {
			ids[i] = task.ID
		}
		if err := o.store.AssignBatch(ctx, batchID, ids); err != nil {
			return err
		}

		results := make(chan subBatchResult)
		sem := make(chan struct{}, maxParallel)
		launched := 0
		for start := 0; start < len(pending); start += batchSize {
			end := start + batchSize
			if end > len(pending) {
				end = len(pending)
			}
			chunk := pending[start:end]
			launched++
			go func() {
				sem <- struct{}{}
				defer func() { <-sem }()
				results <- o.processSubBatch(ctx, workerID, chunk)
			}()
		}

		var roundErr error
		for i := 0; i < launched; i++ {
			sub := <-results
			result.Completed += sub.completed
			result.Failed += sub.failed
			if sub.err != nil && roundErr == nil {
				roundErr = sub.err
			}
		}
		if roundErr != nil {
			return roundErr
		}

		processed += len(pending)
		elapsed := time.Since(started)
		perSecond := 0.0
		if elapsed > 0 {
			perSecond = float64(result.Completed) / elapsed.Seconds()
		}
		if err := o.store.UpdateBatchProgress(ctx, batchID, result.Completed, result.Failed, perSecond, elapsed.Seconds()); err != nil {
			return err
		}
		o.logger.Info("batch round finished",
			logging.String("batch", batchID),
			logging.Int("processed", processed),
			logging.Int("completed", result.Completed),
			logging.Int("failed", result.Failed))

		if maxTasks > 0 && processed >= maxTasks {
			return nil
		}
	}
}

// processSubBatch renders its tasks sequentially. A render failure is
// recorded on the task; only persistence errors propagate.
func (o *Orchestrator) processSubBatch(ctx context.Context, workerID string, chunk []*tasks.Task) subBatchResult {
	var res subBatchResult
	for _, task := range chunk {
		if err := ctx.Err(); err != nil {
			res.err = err
			return res
		}
		completed, err := o.processTask(ctx, workerID, task)
		if err != nil {
			res.err = err
			return res
		}
		if completed {
			res.completed++
		} else {
			res.failed++
		}
	}
	return res
}

func (o *Orchestrator) processTask(ctx context.Context, workerID string, task *tasks.Task) (bool, error) {
	if err := o.store.MarkProcessing(ctx, task.ID, workerID); err != nil {
		return false, err
	}

	spec := render.Spec{
		Model:   task.Model,
		Primary: task.PrimaryColor,
		Accent:  task.AccentColor,
		LED:     task.LEDColor,
		Width:   task.Width,
	}

	data, err := render.Compose(ctx, o.resolver, spec, nil)
	if err != nil {
		o.logger.Warn("render failed",
			logging.Int64("task", task.ID),
			logging.String("model", task.Model),
			logging.Error(err))
		if markErr := o.store.MarkFailed(ctx, task.ID, err.Error()); markErr != nil {
			return false, markErr
		}
		return false, nil
	}

	key := render.OutputKey(o.cfg.Storage.OutputPrefix, spec)
	if err := o.objects.Put(ctx, key, data, "image/png", cacheControl); err != nil {
		o.logger.Warn("upload failed",
			logging.Int64("task", task.ID),
			logging.String("key", key),
			logging.Error(err))
		if markErr := o.store.MarkFailed(ctx, task.ID, fmt.Sprintf("upload %s: %v", key, err)); markErr != nil {
			return false, markErr
		}
		return false, nil
	}

	if err := o.store.MarkCompleted(ctx, task.ID, key, int64(len(data))); err != nil {
		return false, err
	}
	return true, nil
}

func workerIdentity() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
