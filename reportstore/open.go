package reportstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appshell/config"

	"go.uber.org/zap"
)

// Sink names used in logs and metrics.
const (
	SinkSQLite = "sqlite"
	SinkRedis  = "redis"
)

// Named pairs a store with its sink name.
type Named struct {
	Name  string
	Store Store
}

// Open creates the stores enabled in cfg. A Redis store that does not answer
// a ping within a few seconds is an error.
func Open(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) ([]Named, error) {
	var stores []Named

	if cfg.Report.SQLite.Enabled {
		s, err := NewSQLiteStore(cfg.Report.SQLite.Path, logger)
		if err != nil {
			return nil, err
		}
		stores = append(stores, Named{Name: SinkSQLite, Store: s})
	}

	if cfg.Report.Redis.Enabled {
		r := cfg.Report.Redis
		s := NewRedisStore(r.Addr, r.Password, r.DB, r.PoolSize, logger, WithTTL(r.TTL))

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := s.Ping(pingCtx)
		cancel()
		if err != nil {
			_ = s.Close()
			_ = CloseAll(stores)
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", r.Addr, err)
		}
		stores = append(stores, Named{Name: SinkRedis, Store: s})
	}

	return stores, nil
}

// CloseAll closes every store.
func CloseAll(stores []Named) error {
	var errs []error
	for _, s := range stores {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
