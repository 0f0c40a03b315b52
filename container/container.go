// Package container resolves the shared services of a process: named loggers
// and configuration.
package container

import (
	"fmt"

	"appshell/config"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const loggerCacheSize = 64

// Container hands out services by name.
type Container struct {
	cfg     *config.Config
	root    *zap.Logger
	loggers *lru.Cache[string, *zap.SugaredLogger]
}

// New creates a container around an already loaded configuration and root logger.
func New(cfg *config.Config, root *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("container requires a configuration")
	}
	if root == nil {
		root = zap.NewNop()
	}
	cache, err := lru.New[string, *zap.SugaredLogger](loggerCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger cache: %w", err)
	}
	return &Container{cfg: cfg, root: root, loggers: cache}, nil
}

// GetLogger returns the logger registered under name, creating it on first use.
func (c *Container) GetLogger(name string) *zap.SugaredLogger {
	if logger, ok := c.loggers.Get(name); ok {
		return logger
	}
	logger := c.root.Named(name).Sugar()
	c.loggers.Add(name, logger)
	return logger
}

// GetConfigurationGetter returns raw access to configuration keys.
func (c *Container) GetConfigurationGetter() *config.Getter {
	return c.cfg.Getter()
}

// Config returns the decoded configuration.
func (c *Container) Config() *config.Config {
	return c.cfg
}

// RootLogger returns the unnamed logger.
func (c *Container) RootLogger() *zap.Logger {
	return c.root
}

// Sync flushes buffered log entries.
func (c *Container) Sync() {
	_ = c.root.Sync()
}
