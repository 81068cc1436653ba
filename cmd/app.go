package cmd

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"github.com/conneroisu/palette/internal/config"
	"github.com/conneroisu/palette/internal/engine"
	"github.com/conneroisu/palette/internal/enricher"
	"github.com/conneroisu/palette/internal/events"
	"github.com/conneroisu/palette/internal/facade"
	"github.com/conneroisu/palette/internal/host"
	"github.com/conneroisu/palette/internal/loader"
	"github.com/conneroisu/palette/internal/logging"
	"github.com/conneroisu/palette/internal/metrics"
	"github.com/conneroisu/palette/internal/profiles"
	"github.com/conneroisu/palette/internal/registry"
	"github.com/conneroisu/palette/internal/storage"
)

// app is the wired pipeline shared by the commands.
type app struct {
	config   *config.Config
	logger   logging.Logger
	store    storage.Store
	profiles *profiles.Registry
	registry *registry.Registry
	enricher *enricher.Enricher
	engine   *engine.Engine
	facade   *facade.Facade
	bus      *events.Bus
	gatherer *prometheus.Registry
}

// loadApp loads the configuration and wires the pipeline.
func loadApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return newApp(cfg, afero.NewOsFs())
}

func newApp(cfg *config.Config, fs afero.Fs) (*app, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(&logging.LoggerConfig{Level: level, Format: cfg.Log.Format})

	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Dir, cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	gatherer := prometheus.NewRegistry()
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(metrics.WithRegistry(gatherer))
	}

	pr, err := loadProfiles(fs, cfg.Libraries.ProfilesDir)
	if pr == nil {
		_ = store.Close()
		return nil, err
	}
	if err != nil {
		logger.Warn(context.Background(), err, "Some library profiles failed to load", "dir", cfg.Libraries.ProfilesDir)
	}

	importer := loader.Chain(
		loader.NewStaticImporter(map[string]host.Module{profiles.DemoEntry: profiles.DemoModule()}),
		loader.NewPluginImporter(cfg.Loader.PluginDir, cfg.Loader.HTTPTimeout),
	)

	reg := registry.New(registry.WithMetrics(m))

	enr := enricher.New(
		enricher.NewHTTPFetcher(cfg.Enricher.HTTPTimeout, cfg.Enricher.MaxBytes),
		enricher.WithCache(storage.NewTTLCache(store, enricher.CachePrefix, cfg.Enricher.TTL)),
		enricher.WithTemplates(enricher.Templates(cfg.Enricher.Templates), cfg.Enricher.FallbackTemplates),
		enricher.WithLogger(logger),
		enricher.WithMetrics(m),
	)

	engineOpts := []engine.Option{
		engine.WithProfiles(pr),
		engine.WithLogger(logger),
		engine.WithMetrics(m),
	}
	if cfg.Enricher.Enabled {
		engineOpts = append(engineOpts, engine.WithEnricher(enr))
	}
	eng := engine.New(loader.New(importer, loader.WithLogger(logger)), reg, engineOpts...)

	bus := events.NewBus(logger)
	fac := facade.New(eng, pr, store, facade.WithBus(bus), facade.WithLogger(logger))

	return &app{
		config:   cfg,
		logger:   logger,
		store:    store,
		profiles: pr,
		registry: reg,
		enricher: enr,
		engine:   eng,
		facade:   fac,
		bus:      bus,
		gatherer: gatherer,
	}, nil
}

// loadProfiles registers the built-in demo library and every profile in
// dir. A missing dir is not an error.
func loadProfiles(fs afero.Fs, dir string) (*profiles.Registry, error) {
	pr := profiles.NewRegistry()
	if err := pr.Register(profiles.DemoProfile()); err != nil {
		return nil, err
	}

	if exists, _ := afero.DirExists(fs, dir); !exists {
		return pr, nil
	}

	loaded, loadErr := profiles.LoadDir(fs, dir)
	var errs []error
	if loadErr != nil {
		errs = append(errs, loadErr)
	}
	for _, profile := range loaded {
		if err := pr.Register(profile); err != nil {
			errs = append(errs, err)
		}
	}
	return pr, stderrors.Join(errs...)
}

// seedEnabled persists the configured enabled list when the store has none
// yet. An existing list, even an empty one, wins.
func (a *app) seedEnabled(ctx context.Context) error {
	_, ok, err := a.store.Get(ctx, facade.KeyEnabled)
	if err != nil || ok || len(a.config.Libraries.Enabled) == 0 {
		return err
	}
	return storage.SetStringList(ctx, a.store, facade.KeyEnabled, a.config.Libraries.Enabled)
}

func (a *app) Close() error {
	a.facade.Stop()
	return a.store.Close()
}
