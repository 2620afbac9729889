package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"colorforge/internal/config"
	"colorforge/internal/generator"
	"colorforge/internal/logging"
	"colorforge/internal/masks"
	"colorforge/internal/objectstore"
	"colorforge/internal/orchestrator"
	"colorforge/internal/tasks"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// services bundles the wired application components for one command
// invocation.
type services struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *tasks.Store
	objects  objectstore.Store
	resolver *masks.Resolver
	orch     *orchestrator.Orchestrator
	gen      *generator.Generator
}

// withServices wires storage, queue, and render components, runs fn,
// and tears the store down afterwards.
func (c *commandContext) withServices(ctx context.Context, fn func(*services) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	store, err := tasks.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	objects, err := objectstore.NewS3(ctx, objectstore.S3Options{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		PublicURL:       cfg.Storage.PublicURL,
	})
	if err != nil {
		return err
	}

	resolver := masks.NewResolver(objects, cfg.Paths.CacheDir, cfg.Storage.MaskPrefix, logger)
	svc := &services{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		objects:  objects,
		resolver: resolver,
		orch:     orchestrator.New(cfg, store, objects, resolver, logger),
		gen:      generator.New(cfg, store, objects, resolver, logger),
	}
	return fn(svc)
}

// withStore opens only the task database for read-mostly commands.
func (c *commandContext) withStore(fn func(*config.Config, *tasks.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := tasks.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}
