package masks

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"colorforge/internal/logging"
	"colorforge/internal/objectstore"
	"colorforge/internal/palette"
	"colorforge/internal/render"
)

// markerName gates the one-time cache sync. Bump the suffix when the
// remote mask library changes shape and every host must re-download.
const markerName = "masks-synced-v3"

// Resolver downloads the mask library once per cache generation and
// serves decoded mask images by model and layer name.
type Resolver struct {
	store    objectstore.Store
	cacheDir string
	prefix   string
	logger   *slog.Logger

	syncMu   sync.Mutex
	syncDone bool
}

func NewResolver(store objectstore.Store, cacheDir, prefix string, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:    store,
		cacheDir: cacheDir,
		prefix:   prefix,
		logger:   logging.WithComponent(logger, "masks"),
	}
}

// Sync mirrors every object under the mask prefix into the cache
// directory. The sync runs once per cache generation; a marker file
// records completion so subsequent calls return immediately. Failures
// on individual objects are logged and skipped so one bad object does
// not block the whole library.
func (r *Resolver) Sync(ctx context.Context) error {
	r.syncMu.Lock()
	defer r.syncMu.Unlock()
	if r.syncDone {
		return nil
	}

	marker := filepath.Join(r.cacheDir, markerName)
	if _, err := os.Stat(marker); err == nil {
		r.syncDone = true
		return nil
	}

	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return fmt.Errorf("create mask cache: %w", err)
	}

	var downloaded, skipped, failed int
	err := r.store.Walk(ctx, r.prefix, func(key string) error {
		rel := strings.TrimPrefix(key, r.prefix)
		if rel == "" || strings.HasSuffix(rel, "/") {
			return nil
		}
		local := filepath.Join(r.cacheDir, filepath.FromSlash(rel))
		if _, err := os.Stat(local); err == nil {
			skipped++
			return nil
		}
		if err := r.download(ctx, key, local); err != nil {
			failed++
			r.logger.Warn("mask download failed", logging.String("key", key), logging.Error(err))
			return nil
		}
		downloaded++
		return nil
	})
	if err != nil {
		return fmt.Errorf("sync mask library: %w", err)
	}

	if failed == 0 {
		if err := os.WriteFile(marker, []byte(markerName+"\n"), 0o644); err != nil {
			return fmt.Errorf("write sync marker: %w", err)
		}
		r.syncDone = true
	}
	r.logger.Info("mask library synced",
		logging.Int("downloaded", downloaded),
		logging.Int("cached", skipped),
		logging.Int("failed", failed))
	return nil
}

func (r *Resolver) download(ctx context.Context, key, local string) error {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return err
	}
	return os.WriteFile(local, data, 0o644)
}

// Mask loads the named layer mask for a model, satisfying
// render.MaskSource. Model directories are probed under several
// spellings since the library mixes cases. A missing mask is not an
// error: the second return reports presence.
func (r *Resolver) Mask(ctx context.Context, model, layer string) (image.Image, bool, error) {
	if err := r.Sync(ctx); err != nil {
		return nil, false, err
	}

	normalized := palette.NormalizeModelName(model)
	candidates := []string{
		normalized,
		strings.ToLower(normalized),
		strings.ToUpper(normalized),
		model,
	}
	seen := map[string]struct{}{}
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}

		path := filepath.Join(r.cacheDir, dir, layer+".png")
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("read mask %s: %w", path, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, false, fmt.Errorf("decode mask %s: %w", path, err)
		}
		return img, true, nil
	}
	return nil, false, nil
}

var _ render.MaskSource = (*Resolver)(nil)
