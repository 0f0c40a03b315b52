package cmd

import (
	"context"
	"fmt"
	"io"

	"appshell/application"
	"appshell/config"
	"appshell/container"
	"appshell/errhandling"
	"appshell/exithook"
	"appshell/reportstore"
	"appshell/stopwatch"

	"go.uber.org/zap"
)

// environment is what every lifecycle-running subcommand is built from.
type environment struct {
	cfg       *config.Config
	container *container.Container
	logger    *zap.SugaredLogger
	stores    []reportstore.Named
	storesErr error
}

func loadEnvironment(ctx context.Context, opts *rootOptions, stderr io.Writer) (*environment, error) {
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}
	if err := config.LoadSecrets(cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	return newEnvironment(ctx, cfg, stderr)
}

func newEnvironment(ctx context.Context, cfg *config.Config, stderr io.Writer) (*environment, error) {
	root, err := container.NewLogger(cfg, stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	c, err := container.New(cfg, root)
	if err != nil {
		return nil, err
	}
	exithook.Default().SetLogger(c.GetLogger("exithook"))

	// A missing report store must not prevent the run; the error is handed
	// to the first lifecycle's error handling once it is installed.
	stores, storesErr := reportstore.Open(ctx, cfg, c.GetLogger("reportstore"))
	if storesErr != nil {
		storesErr = fmt.Errorf("report stores disabled: %w", storesErr)
		errhandling.RecordStartupError(storesErr)
		stores = nil
	}

	return &environment{
		cfg:       cfg,
		container: c,
		logger:    c.GetLogger("cli"),
		stores:    stores,
		storesErr: storesErr,
	}, nil
}

// Close releases the report stores and flushes the logs.
func (e *environment) Close() {
	if err := reportstore.CloseAll(e.stores); err != nil {
		e.logger.Warnw("Failed to close report stores", "error", err)
	}
	e.container.Sync()
}

func (e *environment) errorHandlingFactory() application.ErrorHandlingServiceFactory {
	f := errhandling.NewFactory(e.container.RootLogger().Named("errors"))
	return application.ErrorHandlingServiceFactoryFunc(func() application.ErrorHandlingService {
		return f.CreateErrorHandlingService()
	})
}

func (e *environment) newTimer() *stopwatch.LapTimer {
	return stopwatch.New(stopwatch.WithPrecision(e.cfg.Report.Precision))
}

func (e *environment) applicationOptions(runID string, hooks application.ExitRegistrar) []application.Option {
	opts := []application.Option{application.WithRunID(runID)}
	if hooks != nil {
		opts = append(opts, application.WithExitHooks(hooks))
	}
	for _, s := range e.stores {
		opts = append(opts, application.WithReportSink(s.Name, s.Store))
	}
	return opts
}

func (e *environment) store(name string) (reportstore.Store, error) {
	if e.storesErr != nil {
		return nil, e.storesErr
	}
	if len(e.stores) == 0 {
		return nil, fmt.Errorf("no report store enabled (set report.sqlite.enabled or report.redis.enabled)")
	}
	if name == "" {
		return e.stores[0].Store, nil
	}
	for _, s := range e.stores {
		if s.Name == name {
			return s.Store, nil
		}
	}
	return nil, fmt.Errorf("report store %q is not enabled", name)
}
