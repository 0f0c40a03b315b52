package errhandling

import (
	"errors"
	"fmt"
	"sync"

	"appshell/metrics"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrAlreadyInstalled is returned by Initialize when the hooks are already in place.
var ErrAlreadyInstalled = errors.New("error handling already installed")

const (
	SourcePreExecution = "pre-execution"
	SourceRun          = "run"
	SourcePanic        = "panic"
)

// Service owns the installed hooks. The installed state is explicit and
// can be inspected with Installed.
type Service struct {
	logger *zap.Logger
	sugar  *zap.SugaredLogger

	mu        sync.Mutex
	installed bool
	restores  []func()
	handled   int
}

// NewService creates a service that reports through logger.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		logger: logger,
		sugar:  logger.Sugar(),
	}
}

// Initialize installs the global hooks.
func (s *Service) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.installed {
		return ErrAlreadyInstalled
	}

	undoGlobals := zap.ReplaceGlobals(s.logger)
	undoStdLog, err := zap.RedirectStdLogAt(s.logger.Named("stdlog"), zapcore.ErrorLevel)
	if err != nil {
		undoGlobals()
		return fmt.Errorf("failed to redirect standard logger: %w", err)
	}

	s.restores = []func(){undoGlobals, undoStdLog}
	s.installed = true
	return nil
}

// HandlePreExecutionErrors replays errors recorded before the service was installed.
func (s *Service) HandlePreExecutionErrors() {
	for _, err := range drainStartupErrors() {
		s.HandleError(SourcePreExecution, err)
	}
}

// HandleError logs err and counts it under source.
func (s *Service) HandleError(source string, err error) {
	if err == nil {
		return
	}

	s.mu.Lock()
	s.handled++
	s.mu.Unlock()

	s.sugar.Errorw("Error captured",
		"source", source,
		"error", err)
	metrics.ErrorsHandled.WithLabelValues(source).Inc()
}

// Recover is meant to be deferred; it captures a panic instead of letting it crash the process.
func (s *Service) Recover(name string) {
	if r := recover(); r != nil {
		s.mu.Lock()
		s.handled++
		s.mu.Unlock()

		capturePanic(name, r, s.sugar)
	}
}

// Restore removes the hooks in reverse installation order. Calling it again is a no-op.
func (s *Service) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.installed {
		return nil
	}
	for i := len(s.restores) - 1; i >= 0; i-- {
		s.restores[i]()
	}
	s.restores = nil
	s.installed = false
	return nil
}

// Installed reports whether the hooks are currently in place.
func (s *Service) Installed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installed
}

// Handled returns the number of errors and panics captured so far.
func (s *Service) Handled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handled
}

// Factory creates one service per application.
type Factory struct {
	logger *zap.Logger
}

// NewFactory returns a factory whose services log through logger.
func NewFactory(logger *zap.Logger) *Factory {
	return &Factory{logger: logger}
}

// CreateErrorHandlingService returns a fresh, not yet installed service.
func (f *Factory) CreateErrorHandlingService() *Service {
	return NewService(f.logger)
}
