package generator_test

import (
	"context"
	"testing"

	"colorforge/internal/config"
	"colorforge/internal/generator"
	"colorforge/internal/logging"
	"colorforge/internal/masks"
	"colorforge/internal/objectstore"
	"colorforge/internal/tasks"
	"colorforge/internal/testsupport"
)

func newFixture(t *testing.T, models ...string) (*generator.Generator, *tasks.Store, *objectstore.MemStore, *config.Config) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Render.DefaultWidth = 8
	store := testsupport.MustOpenStore(t, cfg)

	objects := objectstore.NewMem()
	testsupport.SeedMasks(t, objects, cfg.Storage.MaskPrefix, models...)

	resolver := masks.NewResolver(objects, cfg.Paths.CacheDir, cfg.Storage.MaskPrefix, logging.NewNop())
	gen := generator.New(cfg, store, objects, resolver, logging.NewNop())
	return gen, store, objects, cfg
}

func TestGenerateUploadsAndReportsProgress(t *testing.T) {
	gen, store, objects, cfg := newFixture(t, "lx2330")
	ctx := context.Background()

	result, err := gen.Generate(ctx, generator.Request{
		Model:     "lx2330",
		Primary:   "navy_blue",
		Accent:    "none",
		LED:       "red",
		SessionID: "session-1",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Exists {
		t.Error("first generation should not be a cache hit")
	}
	if result.SizeBytes == 0 {
		t.Error("expected non-empty output")
	}

	wantKey := cfg.Storage.OutputPrefix + "lx2330/navy_blue-none-red.png"
	if result.Key != wantKey {
		t.Errorf("key = %q, want %q", result.Key, wantKey)
	}
	exists, err := objects.Exists(ctx, wantKey)
	if err != nil || !exists {
		t.Errorf("uploaded object missing: exists=%v err=%v", exists, err)
	}

	latest, err := store.LatestProgressBySession(ctx, "session-1")
	if err != nil {
		t.Fatalf("LatestProgressBySession failed: %v", err)
	}
	if latest == nil || !latest.Completed || latest.Percent != 100 {
		t.Errorf("terminal progress = %+v", latest)
	}
	if latest.ResultURL == "" {
		t.Error("terminal progress missing result URL")
	}
}

func TestGenerateCacheHitShortCircuits(t *testing.T) {
	gen, _, objects, _ := newFixture(t, "lx2330")
	ctx := context.Background()

	req := generator.Request{Model: "lx2330", Primary: "navy_blue", Accent: "none", LED: "red", SessionID: "s"}
	if _, err := gen.Generate(ctx, req); err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	before := objects.Len()

	result, err := gen.Generate(ctx, req)
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if !result.Exists {
		t.Error("expected cache hit")
	}
	if objects.Len() != before {
		t.Error("cache hit should not upload")
	}
}

func TestGenerateAppliesDefaults(t *testing.T) {
	gen, _, _, cfg := newFixture(t, "lx2330")

	result, err := gen.Generate(context.Background(), generator.Request{Model: "lx2330"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	wantKey := cfg.Storage.OutputPrefix + "lx2330/navy_blue-royal_blue-amber.png"
	if result.Key != wantKey {
		t.Errorf("key = %q, want %q", result.Key, wantKey)
	}
	if result.SessionID == "" {
		t.Error("expected generated session id")
	}
}

func TestGenerateNormalizesModelNames(t *testing.T) {
	gen, _, _, cfg := newFixture(t, "lx2665v")

	result, err := gen.Generate(context.Background(), generator.Request{
		Model: "lx2665b", Primary: "black", Accent: "none", LED: "red",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	wantKey := cfg.Storage.OutputPrefix + "lx2665v/black-none-red.png"
	if result.Key != wantKey {
		t.Errorf("key = %q, want %q", result.Key, wantKey)
	}
}

func TestGenerateErrorRecordsFailureProgress(t *testing.T) {
	gen, store, _, _ := newFixture(t) // no masks seeded
	ctx := context.Background()

	_, err := gen.Generate(ctx, generator.Request{
		Model: "ghost", Primary: "navy_blue", Accent: "none", LED: "red", SessionID: "broken",
	})
	if err == nil {
		t.Fatal("expected error for model without masks")
	}

	latest, lookupErr := store.LatestProgressBySession(ctx, "broken")
	if lookupErr != nil {
		t.Fatalf("LatestProgressBySession failed: %v", lookupErr)
	}
	if latest == nil || latest.StepNumber != -1 || latest.ErrorDetail == "" {
		t.Errorf("failure progress = %+v", latest)
	}
}

func TestGenerateCompletesMatchingQueueTask(t *testing.T) {
	gen, store, _, _ := newFixture(t, "lx2330")
	ctx := context.Background()

	identity := tasks.Identity{Model: "lx2330", PrimaryColor: "navy_blue", AccentColor: "none", LEDColor: "red", Width: 8}
	if _, err := store.InsertTasks(ctx, []tasks.Identity{identity}); err != nil {
		t.Fatalf("InsertTasks failed: %v", err)
	}

	if _, err := gen.Generate(ctx, generator.Request{
		Model: "lx2330", Primary: "navy_blue", Accent: "none", LED: "red", Width: 8,
	}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	stats, _ := store.TaskStats(ctx)
	if stats.Completed != 1 {
		t.Errorf("stats = %+v, want matching task completed", stats)
	}
}
