package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/ontology/internal/config"
	"github.com/roach88/ontology/internal/metrics"
	"github.com/roach88/ontology/internal/ontology"
	"github.com/roach88/ontology/internal/prose"
	"github.com/roach88/ontology/internal/snapshot"
	"github.com/roach88/ontology/internal/store"
	"github.com/roach88/ontology/internal/store/memstore"
	"github.com/roach88/ontology/internal/vocab"
	"github.com/roach88/ontology/internal/wiki"
)

// Env is everything a command needs at runtime.
type Env struct {
	Config   *config.Config
	Engine   *ontology.Engine
	Logger   *slog.Logger
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases the store and any other held resources.
func (e *Env) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

// OnClose registers fn to run on Close.
func (e *Env) OnClose(fn func() error) {
	e.closers = append(e.closers, fn)
}

// NewLogger builds the stderr text logger for the given flags.
func NewLogger(w io.Writer, level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// OpenEnv loads configuration and wires the engine to the configured backends.
func OpenEnv(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*Env, error) {
	logger := NewLogger(cmd.ErrOrStderr(), opts.LogLevel, opts.Verbose)

	cfg, err := config.NewLoader(logger).Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded", "config", cfg.Describe())

	env := &Env{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}

	st, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	if c, ok := st.(io.Closer); ok {
		env.OnClose(c.Close)
	}

	src, err := openSource(cfg, logger)
	if err != nil {
		env.Close()
		return nil, err
	}

	m, err := metrics.New(env.Registry)
	if err != nil {
		env.Close()
		return nil, err
	}

	proseOpts, err := cfg.ProseOptions(logger)
	if err != nil {
		env.Close()
		return nil, err
	}

	engineOpts := []ontology.Option{
		ontology.WithLayout(cfg.Wiki.Pages),
		ontology.WithGenerator(prose.NewClient(proseOpts)),
		ontology.WithValidatorOptions(cfg.ValidatorOptions()),
		ontology.WithAdmins(cfg.Admins),
		ontology.WithLogger(logger),
		ontology.WithMetrics(m),
	}

	snap, err := snapshot.Open(ctx, cfg.SnapshotOptions())
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	if snap != nil {
		engineOpts = append(engineOpts, ontology.WithSnapshot(snap))
	}

	env.Engine = ontology.New(st, src, engineOpts...)
	return env, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (ontology.Store, error) {
	switch cfg.Driver {
	case config.StorageMemory:
		return memstore.New(), nil
	case config.StorageSQLite:
		return store.Open(cfg.SQLitePath)
	case config.StoragePostgres:
		return store.OpenPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// openSource returns the git source, or one that reports the wiki as
// unavailable when no repository is configured.
func openSource(cfg *config.Config, logger *slog.Logger) (wiki.Source, error) {
	if cfg.Wiki.URL == "" {
		return unconfiguredSource{}, nil
	}
	return wiki.NewGitSource(cfg.GitOptions(logger))
}

type unconfiguredSource struct{}

func (unconfiguredSource) WithCheckout(context.Context, func(wiki.Checkout) error) error {
	return &vocab.SourceUnavailableError{Op: "clone", Err: errors.New("wiki repository url not configured")}
}
