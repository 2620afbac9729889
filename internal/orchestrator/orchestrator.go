package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"colorforge/internal/config"
	"colorforge/internal/logging"
	"colorforge/internal/masks"
	"colorforge/internal/objectstore"
	"colorforge/internal/palette"
	"colorforge/internal/tasks"
)

// Orchestrator owns queue population and batch execution.
type Orchestrator struct {
	cfg      *config.Config
	store    *tasks.Store
	objects  objectstore.Store
	resolver *masks.Resolver
	logger   *slog.Logger
}

func New(cfg *config.Config, store *tasks.Store, objects objectstore.Store, resolver *masks.Resolver, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		objects:  objects,
		resolver: resolver,
		logger:   logging.WithComponent(logger, "orchestrator"),
	}
}

// CombinationsPerModel is the size of the color cross product rendered
// for every model.
func CombinationsPerModel() int {
	return len(palette.UIColors()) * len(palette.AccentColors()) * len(palette.LEDColors())
}

// DiscoverModels lists model directories under the mask prefix and
// refreshes the stored catalog.
func (o *Orchestrator) DiscoverModels(ctx context.Context) ([]string, error) {
	models, err := o.objects.ListDirs(ctx, o.cfg.Storage.MaskPrefix)
	if err != nil {
		return nil, fmt.Errorf("discover models: %w", err)
	}
	if len(models) > 0 {
		catalog := make([]tasks.Model, len(models))
		for i, name := range models {
			catalog[i] = tasks.Model{
				Name:              name,
				TotalCombinations: CombinationsPerModel(),
				MulticolorLED:     palette.IsMulticolorLED(name),
			}
		}
		if err := o.store.UpsertModels(ctx, catalog); err != nil {
			return nil, err
		}
	}
	o.logger.Info("model discovery complete", logging.Int("models", len(models)))
	return models, nil
}

// PopulateOptions tunes one queue population pass.
type PopulateOptions struct {
	// Models restricts population to these models instead of the full
	// discovered set.
	Models []string
	// Width overrides the configured default render width.
	Width int
	// RetryFailed returns retryable failed tasks to pending first.
	RetryFailed bool
}

// PopulateResult summarizes one queue population pass.
type PopulateResult struct {
	Models   int
	Existing int
	Inserted int
	Reset    int
}

// Populate fills the queue with every missing model and color
// combination.
func (o *Orchestrator) Populate(ctx context.Context, opts PopulateOptions) (PopulateResult, error) {
	var result PopulateResult

	if opts.RetryFailed {
		reset, err := o.store.ResetFailed(ctx)
		if err != nil {
			return result, err
		}
		result.Reset = reset
	}

	models, err := o.DiscoverModels(ctx)
	if err != nil {
		return result, err
	}
	if len(opts.Models) > 0 {
		models = intersectModels(models, opts.Models)
	}
	result.Models = len(models)

	existing, err := o.store.Identities(ctx)
	if err != nil {
		return result, err
	}
	result.Existing = len(existing)

	width := opts.Width
	if width <= 0 {
		width = o.cfg.Render.DefaultWidth
	}
	var missing []tasks.Identity
	for _, model := range models {
		for _, primary := range palette.UIColors() {
			for _, accent := range palette.AccentColors() {
				for _, led := range palette.LEDColors() {
					identity := tasks.Identity{
						Model:        model,
						PrimaryColor: primary,
						AccentColor:  accent,
						LEDColor:     led,
						Width:        width,
					}
					if _, ok := existing[identity]; ok {
						continue
					}
					missing = append(missing, identity)
				}
			}
		}
	}

	inserted, err := o.store.InsertTasks(ctx, missing)
	if err != nil {
		return result, err
	}
	result.Inserted = inserted

	o.logger.Info("queue populated",
		logging.Int("models", result.Models),
		logging.Int("existing", result.Existing),
		logging.Int("inserted", result.Inserted),
		logging.Int("reset", result.Reset))
	return result, nil
}

// intersectModels keeps requested models that discovery actually found,
// matching on normalized names.
func intersectModels(discovered, requested []string) []string {
	wanted := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		wanted[palette.NormalizeModelName(name)] = struct{}{}
	}
	var kept []string
	for _, name := range discovered {
		if _, ok := wanted[palette.NormalizeModelName(name)]; ok {
			kept = append(kept, name)
		}
	}
	return kept
}
