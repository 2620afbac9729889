package tasks_test

import (
	"context"
	"strings"
	"testing"

	"colorforge/internal/tasks"
	"colorforge/internal/testsupport"
)

func sampleIdentities() []tasks.Identity {
	return []tasks.Identity{
		{Model: "lx2330", PrimaryColor: "navy_blue", AccentColor: "none", LEDColor: "red", Width: 720},
		{Model: "lx2330", PrimaryColor: "navy_blue", AccentColor: "none", LEDColor: "amber", Width: 720},
		{Model: "lx8440", PrimaryColor: "black", AccentColor: "white", LEDColor: "red", Width: 720},
	}
}

func TestInsertTasksIsIdempotent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	inserted, err := store.InsertTasks(ctx, sampleIdentities())
	if err != nil {
		t.Fatalf("InsertTasks failed: %v", err)
	}
	if inserted != 3 {
		t.Fatalf("inserted = %d, want 3", inserted)
	}

	again, err := store.InsertTasks(ctx, sampleIdentities())
	if err != nil {
		t.Fatalf("second InsertTasks failed: %v", err)
	}
	if again != 0 {
		t.Errorf("duplicate insert reported %d rows, want 0", again)
	}

	identities, err := store.Identities(ctx)
	if err != nil {
		t.Fatalf("Identities failed: %v", err)
	}
	if len(identities) != 3 {
		t.Errorf("identity count = %d, want 3", len(identities))
	}
}

func TestTaskLifecycle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.InsertTasks(ctx, sampleIdentities()); err != nil {
		t.Fatalf("InsertTasks failed: %v", err)
	}

	pending, err := store.FetchPending(ctx, 10)
	if err != nil {
		t.Fatalf("FetchPending failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("pending = %d, want 3", len(pending))
	}

	task := pending[0]
	if err := store.MarkProcessing(ctx, task.ID, "worker-1"); err != nil {
		t.Fatalf("MarkProcessing failed: %v", err)
	}
	if err := store.MarkCompleted(ctx, task.ID, "generated/lx2330/navy_blue-none-red.png", 4096); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	fetched, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if fetched.Status != tasks.StatusCompleted || fetched.Attempts != 1 {
		t.Errorf("task after completion: status=%s attempts=%d", fetched.Status, fetched.Attempts)
	}
	if fetched.OutputBytes != 4096 || fetched.OutputKey == "" {
		t.Errorf("output not recorded: %+v", fetched)
	}
	if fetched.CompletedAt.IsZero() || fetched.StartedAt.IsZero() {
		t.Error("expected started/completed timestamps")
	}

	stats, err := store.TaskStats(ctx)
	if err != nil {
		t.Fatalf("TaskStats failed: %v", err)
	}
	if stats.Completed != 1 || stats.Pending != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRetryBudgetExcludesExhaustedTasks(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.InsertTasks(ctx, sampleIdentities()[:1]); err != nil {
		t.Fatalf("InsertTasks failed: %v", err)
	}
	pending, err := store.FetchPending(ctx, 1)
	if err != nil || len(pending) != 1 {
		t.Fatalf("FetchPending = %v, %v", pending, err)
	}
	id := pending[0].ID

	for attempt := 0; attempt < tasks.MaxAttempts; attempt++ {
		if err := store.MarkProcessing(ctx, id, "worker-1"); err != nil {
			t.Fatalf("MarkProcessing failed: %v", err)
		}
		if err := store.MarkFailed(ctx, id, "render exploded"); err != nil {
			t.Fatalf("MarkFailed failed: %v", err)
		}
		reset, err := store.ResetFailed(ctx)
		if err != nil {
			t.Fatalf("ResetFailed failed: %v", err)
		}
		if attempt < tasks.MaxAttempts-1 && reset != 1 {
			t.Fatalf("attempt %d: reset = %d, want 1", attempt, reset)
		}
		if attempt == tasks.MaxAttempts-1 && reset != 0 {
			t.Fatalf("exhausted task was reset")
		}
	}

	pending, err = store.FetchPending(ctx, 10)
	if err != nil {
		t.Fatalf("FetchPending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("exhausted task still pending: %+v", pending)
	}
}

func TestMarkFailedTruncatesMessage(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.InsertTasks(ctx, sampleIdentities()[:1]); err != nil {
		t.Fatalf("InsertTasks failed: %v", err)
	}
	pending, _ := store.FetchPending(ctx, 1)
	id := pending[0].ID

	long := strings.Repeat("x", 5000)
	if err := store.MarkFailed(ctx, id, long); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	task, err := store.GetTask(ctx, id)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if len(task.ErrorMessage) != 1000 {
		t.Errorf("error message length = %d, want 1000", len(task.ErrorMessage))
	}
}

func TestBatchLifecycle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if _, err := store.InsertTasks(ctx, sampleIdentities()); err != nil {
		t.Fatalf("InsertTasks failed: %v", err)
	}
	pending, _ := store.FetchPending(ctx, 10)

	batchID, err := store.CreateBatch(ctx, len(pending))
	if err != nil {
		t.Fatalf("CreateBatch failed: %v", err)
	}
	ids := make([]int64, len(pending))
	for i, task := range pending {
		ids[i] = task.ID
	}
	if err := store.AssignBatch(ctx, batchID, ids); err != nil {
		t.Fatalf("AssignBatch failed: %v", err)
	}
	task, _ := store.GetTask(ctx, ids[0])
	if task.BatchID != batchID {
		t.Errorf("task batch = %q, want %q", task.BatchID, batchID)
	}

	if err := store.UpdateBatchProgress(ctx, batchID, 2, 1, 1.5, 2.0); err != nil {
		t.Fatalf("UpdateBatchProgress failed: %v", err)
	}
	if err := store.FinishBatch(ctx, batchID, tasks.BatchCompleted); err != nil {
		t.Fatalf("FinishBatch failed: %v", err)
	}

	batch, err := store.GetBatch(ctx, batchID)
	if err != nil {
		t.Fatalf("GetBatch failed: %v", err)
	}
	if batch.Status != tasks.BatchCompleted || batch.CompletedTasks != 2 || batch.FailedTasks != 1 {
		t.Errorf("batch = %+v", batch)
	}

	recent, err := store.RecentBatches(ctx, 5)
	if err != nil || len(recent) != 1 {
		t.Errorf("RecentBatches = %v, %v", recent, err)
	}
}

func TestProgressRecordingAndLookup(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	session := "session-1"
	steps := []tasks.Progress{
		{SessionID: session, Model: "lx2330", StepName: "Checking cache...", StepNumber: 1, Percent: 10},
		{SessionID: session, Model: "lx2330", StepName: "Compositing layers...", StepNumber: 6, Percent: 75},
	}
	for _, step := range steps {
		if err := store.RecordProgress(ctx, step); err != nil {
			t.Fatalf("RecordProgress failed: %v", err)
		}
	}

	latest, err := store.LatestProgressBySession(ctx, session)
	if err != nil {
		t.Fatalf("LatestProgressBySession failed: %v", err)
	}
	if latest == nil || latest.StepNumber != 6 || latest.Percent != 75 {
		t.Errorf("latest = %+v", latest)
	}

	missing, err := store.LatestProgressBySession(ctx, "unknown")
	if err != nil || missing != nil {
		t.Errorf("unknown session: %+v, %v", missing, err)
	}
}

func TestCompleteMatchingTask(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	identity := sampleIdentities()[0]
	if _, err := store.InsertTasks(ctx, []tasks.Identity{identity}); err != nil {
		t.Fatalf("InsertTasks failed: %v", err)
	}

	if err := store.CompleteMatchingTask(ctx, identity, "generated/lx2330/navy_blue-none-red.png", 2048); err != nil {
		t.Fatalf("CompleteMatchingTask failed: %v", err)
	}
	stats, _ := store.TaskStats(ctx)
	if stats.Completed != 1 {
		t.Errorf("stats = %+v, want one completed", stats)
	}

	// No queue row is not an error.
	other := tasks.Identity{Model: "lx9999", PrimaryColor: "red", AccentColor: "none", LEDColor: "red", Width: 720}
	if err := store.CompleteMatchingTask(ctx, other, "key", 1); err != nil {
		t.Errorf("missing identity should be a no-op, got %v", err)
	}
}
