package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"colorforge/internal/generator"
	"colorforge/internal/logging"
	"colorforge/internal/masks"
	"colorforge/internal/objectstore"
	"colorforge/internal/orchestrator"
	"colorforge/internal/tasks"
	"colorforge/internal/testsupport"
)

func newTestServer(t *testing.T, models ...string) (*httptest.Server, *tasks.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Render.DefaultWidth = 8
	store := testsupport.MustOpenStore(t, cfg)

	objects := objectstore.NewMem()
	testsupport.SeedMasks(t, objects, cfg.Storage.MaskPrefix, models...)

	resolver := masks.NewResolver(objects, cfg.Paths.CacheDir, cfg.Storage.MaskPrefix, logging.NewNop())
	gen := generator.New(cfg, store, objects, resolver, logging.NewNop())
	orch := orchestrator.New(cfg, store, objects, resolver, logging.NewNop())

	srv := New(cfg, gen, orch, store, logging.NewNop())
	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts, store
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestGenerateEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, "lx2330")

	resp := postJSON(t, ts.URL+"/api/generate", map[string]any{
		"model":      "lx2330",
		"primary":    "navy_blue",
		"accent":     "none",
		"leds":       "red",
		"session_id": "web-1",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var payload struct {
		Success   bool   `json:"success"`
		Exists    bool   `json:"exists"`
		URL       string `json:"url"`
		SessionID string `json:"session_id"`
		SizeBytes int64  `json:"size_bytes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Success || payload.Exists {
		t.Errorf("payload = %+v", payload)
	}
	if payload.URL == "" || payload.SizeBytes == 0 {
		t.Errorf("payload missing url/size: %+v", payload)
	}
	if payload.SessionID != "web-1" {
		t.Errorf("session = %q", payload.SessionID)
	}
}

func TestGenerateEndpointRequiresModel(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/generate", map[string]any{"primary": "red"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGenerateEndpointRejectsGet(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/generate")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := context.Background()

	identities := []tasks.Identity{
		{Model: "lx2330", PrimaryColor: "navy_blue", AccentColor: "none", LEDColor: "red", Width: 8},
		{Model: "lx2330", PrimaryColor: "navy_blue", AccentColor: "none", LEDColor: "amber", Width: 8},
	}
	if _, err := store.InsertTasks(ctx, identities); err != nil {
		t.Fatalf("InsertTasks failed: %v", err)
	}
	if err := store.CompleteMatchingTask(ctx, identities[0], "key", 1); err != nil {
		t.Fatalf("CompleteMatchingTask failed: %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Pending         int     `json:"pending"`
		Completed       int     `json:"completed"`
		Total           int     `json:"total_tasks"`
		PercentComplete float64 `json:"percent_complete"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Pending != 1 || payload.Completed != 1 || payload.Total != 2 {
		t.Errorf("payload = %+v", payload)
	}
	if payload.PercentComplete != 50 {
		t.Errorf("percent = %v, want 50", payload.PercentComplete)
	}
}

func TestBatchEndpointRunsInBackground(t *testing.T) {
	ts, store := newTestServer(t, "lx2330")
	ctx := context.Background()

	identity := tasks.Identity{Model: "lx2330", PrimaryColor: "navy_blue", AccentColor: "none", LEDColor: "red", Width: 8}
	if _, err := store.InsertTasks(ctx, []tasks.Identity{identity}); err != nil {
		t.Fatalf("InsertTasks failed: %v", err)
	}

	resp := postJSON(t, ts.URL+"/api/batch", map[string]any{"batch_size": 1, "max_parallel": 1})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		stats, err := store.TaskStats(ctx)
		if err != nil {
			t.Fatalf("TaskStats failed: %v", err)
		}
		if stats.Completed == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("background batch never completed the task")
}

func TestProgressEndpoint(t *testing.T) {
	ts, store := newTestServer(t)

	if err := store.RecordProgress(context.Background(), tasks.Progress{
		SessionID: "web-9",
		Model:     "lx2330",
		StepName:  "Compositing layers...",
		StepNumber: 6,
		Percent:    75,
	}); err != nil {
		t.Fatalf("RecordProgress failed: %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/progress?session_id=web-9")
	if err != nil {
		t.Fatalf("GET progress: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var payload progressResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.StepNumber != 6 || payload.Percent != 75 {
		t.Errorf("payload = %+v", payload)
	}

	missing, err := http.Get(ts.URL + "/api/progress?session_id=unknown")
	if err != nil {
		t.Fatalf("GET progress: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", missing.StatusCode)
	}
}
