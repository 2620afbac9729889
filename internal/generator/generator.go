package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"colorforge/internal/config"
	"colorforge/internal/logging"
	"colorforge/internal/masks"
	"colorforge/internal/objectstore"
	"colorforge/internal/palette"
	"colorforge/internal/render"
	"colorforge/internal/tasks"
)

const cacheControl = "public, max-age=31536000, immutable"

// Defaults applied to requests that omit fields.
const (
	DefaultPrimary = "navy_blue"
	DefaultAccent  = "royal_blue"
	DefaultLED     = "amber"
)

// Request describes one interactive generation.
type Request struct {
	Model     string
	Primary   string
	Accent    string
	LED       string
	Width     int
	SessionID string
}

// Result reports where the generated image lives.
type Result struct {
	SessionID string
	Key       string
	URL       string
	SizeBytes int64
	Exists    bool
	Duration  time.Duration
}

// Generator renders and uploads single images outside of batch runs.
type Generator struct {
	cfg      *config.Config
	store    *tasks.Store
	objects  objectstore.Store
	resolver *masks.Resolver
	logger   *slog.Logger
}

func New(cfg *config.Config, store *tasks.Store, objects objectstore.Store, resolver *masks.Resolver, logger *slog.Logger) *Generator {
	return &Generator{
		cfg:      cfg,
		store:    store,
		objects:  objects,
		resolver: resolver,
		logger:   logging.WithComponent(logger, "generator"),
	}
}

// Generate produces the image for req, uploading it unless an identical
// combination is already cached. Progress is recorded per session; a
// broken progress store never fails the generation itself.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	req = withDefaults(g.cfg, req)
	started := time.Now()

	spec := render.Spec{
		Model:   palette.NormalizeModelName(req.Model),
		Primary: req.Primary,
		Accent:  req.Accent,
		LED:     req.LED,
		Width:   req.Width,
	}
	key := render.OutputKey(g.cfg.Storage.OutputPrefix, spec)
	result := Result{SessionID: req.SessionID, Key: key, URL: g.objects.PublicURL(key)}

	progress := newTracker(g.store, g.logger, req.SessionID, spec.Model)
	progress.step(ctx, stepCheckingCache)

	exists, err := g.objects.Exists(ctx, key)
	if err != nil {
		progress.fail(ctx, err)
		return result, fmt.Errorf("probe cache: %w", err)
	}
	if exists {
		result.Exists = true
		result.Duration = time.Since(started)
		progress.done(ctx, result.URL)
		g.logger.Info("cache hit",
			logging.String("model", spec.Model),
			logging.String("key", key))
		return result, nil
	}

	progress.step(ctx, stepLoadingMasks)
	if err := g.resolver.Sync(ctx); err != nil {
		progress.fail(ctx, err)
		return result, err
	}

	data, err := render.Compose(ctx, g.resolver, spec, func(stage render.Stage) {
		if step, ok := stageSteps[stage]; ok {
			progress.step(ctx, step)
		}
	})
	if err != nil {
		progress.fail(ctx, err)
		return result, err
	}

	progress.step(ctx, stepUploading)
	if err := g.objects.Put(ctx, key, data, "image/png", cacheControl); err != nil {
		progress.fail(ctx, err)
		return result, fmt.Errorf("upload %s: %w", key, err)
	}
	result.SizeBytes = int64(len(data))

	// Batch bookkeeping follows along when this combination is queued.
	identity := tasks.Identity{
		Model:        spec.Model,
		PrimaryColor: spec.Primary,
		AccentColor:  spec.Accent,
		LEDColor:     spec.LED,
		Width:        spec.Width,
	}
	if err := g.store.CompleteMatchingTask(ctx, identity, key, result.SizeBytes); err != nil {
		g.logger.Warn("task completion not recorded", logging.Error(err))
	}

	result.Duration = time.Since(started)
	progress.done(ctx, result.URL)
	g.logger.Info("image generated",
		logging.String("model", spec.Model),
		logging.String("key", key),
		logging.Int64("bytes", result.SizeBytes),
		logging.Duration("duration", result.Duration))
	return result, nil
}

func withDefaults(cfg *config.Config, req Request) Request {
	if req.Primary == "" {
		req.Primary = DefaultPrimary
	}
	if req.Accent == "" {
		req.Accent = DefaultAccent
	}
	if req.LED == "" {
		req.LED = DefaultLED
	}
	if req.Width <= 0 {
		req.Width = cfg.Render.DefaultWidth
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	return req
}
