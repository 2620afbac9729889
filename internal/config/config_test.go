package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"colorforge/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Render.DefaultWidth != 720 {
		t.Errorf("default width = %d, want 720", cfg.Render.DefaultWidth)
	}
	if cfg.Storage.MaskPrefix != "masks/" {
		t.Errorf("mask prefix = %q, want masks/", cfg.Storage.MaskPrefix)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
cache_dir = "` + filepath.Join(dir, "cache") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[storage]
bucket = "assets"
mask_prefix = "masks"
output_prefix = "out//"
public_url = "https://cdn.example.com/"

[batch]
batch_size = 25
max_parallel = 4
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Storage.MaskPrefix != "masks/" {
		t.Errorf("mask prefix = %q, want trailing slash added", cfg.Storage.MaskPrefix)
	}
	if cfg.Storage.OutputPrefix != "out/" {
		t.Errorf("output prefix = %q, want out/", cfg.Storage.OutputPrefix)
	}
	if cfg.Storage.PublicURL != "https://cdn.example.com" {
		t.Errorf("public url = %q, want trailing slash trimmed", cfg.Storage.PublicURL)
	}
	if cfg.Batch.BatchSize != 25 || cfg.Batch.MaxParallel != 4 {
		t.Errorf("batch = %+v", cfg.Batch)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero width", func(c *config.Config) { c.Render.DefaultWidth = 0 }, "default_width"},
		{"zero batch size", func(c *config.Config) { c.Batch.BatchSize = 0 }, "batch_size"},
		{"zero parallel", func(c *config.Config) { c.Batch.MaxParallel = 0 }, "max_parallel"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate = %v, want error mentioning %q", err, tc.want)
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[storage]") {
		t.Fatal("sample config missing storage section")
	}
}
