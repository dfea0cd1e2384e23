package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/wikidb/internal/bus"
	"github.com/roach88/wikidb/internal/catalog"
	"github.com/roach88/wikidb/internal/config"
	"github.com/roach88/wikidb/internal/dispatch"
	"github.com/roach88/wikidb/internal/store"
	"github.com/roach88/wikidb/internal/wikiclient"
)

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig reads the file named by --config, or the defaults when unset.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// openStore loads the query catalog and opens the pooled store.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store.Store, error) {
	queries, err := catalog.Load(cfg.DB.QueriesFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load queries", err)
	}
	logger.Debug("queries loaded", "source", queries.Source())

	st, err := store.Open(ctx, store.Options{
		Driver:      cfg.DB.Driver,
		URL:         cfg.DB.URL,
		MaxPoolSize: cfg.DB.MaxPoolSize,
		Catalog:     queries,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	logger.Info("database ready", "driver", cfg.DB.Driver, "max_pool_size", cfg.DB.MaxPoolSize)
	return st, nil
}

// runtime is the in-process wiring shared by serve and send: one store,
// one bus and a dispatcher service listening on the configured queue.
type runtime struct {
	store   *store.Store
	bus     *bus.Bus
	service *dispatch.Service
	client  *wikiclient.Client
	logger  *slog.Logger
}

func startRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger) (*runtime, error) {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	b := bus.New(bus.WithLogger(logger))
	svc, err := dispatch.Start(ctx, b, st, cfg.Queue, dispatch.WithLogger(logger))
	if err != nil {
		b.Close()
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
		return nil, WrapExitError(ExitCommandError, "failed to start dispatcher", err)
	}

	return &runtime{
		store:   st,
		bus:     b,
		service: svc,
		client:  wikiclient.New(b, svc.Address(), cfg.RequestTimeout.Std()),
		logger:  logger,
	}, nil
}

// Close drains in-flight deliveries before stopping the dispatcher and
// closing the pool.
func (r *runtime) Close() {
	r.bus.Close()
	r.service.Stop()
	if err := r.store.Close(); err != nil {
		r.logger.Error("error closing database", "error", err)
	}
}
