package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"appshell/metrics"
	"appshell/stopwatch"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// ErrInvalidState is returned when a phase is called out of order.
var ErrInvalidState = errors.New("invalid application state")

// PublishTimeout bounds each report sink call during shutdown.
const PublishTimeout = 5 * time.Second

// Lap names recorded by the phases.
const (
	LapBootstrapStart = "bootstrap: start"
	LapBootstrapEnd   = "bootstrap: end"
	LapRunStart       = "run: start"
	LapRunEnd         = "run: end"
	LapShutdown       = "shutdown"
)

// State is the lifecycle position of an Application.
type State int

const (
	StateCreated State = iota
	StateBootstrapped
	StateRunning
	StateRan
	StateShutDown
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateBootstrapped:
		return "bootstrapped"
	case StateRunning:
		return "running"
	case StateRan:
		return "ran"
	case StateShutDown:
		return "shut down"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrorHandlingService installs and removes the process-wide error hooks.
type ErrorHandlingService interface {
	Initialize() error
	HandlePreExecutionErrors()
	Restore() error
}

// ErrorHandler is implemented by services that can also log a run error.
type ErrorHandler interface {
	HandleError(source string, err error)
}

// ExitRegistrar registers functions to run when the process ends.
type ExitRegistrar interface {
	Register(name string, fn func())
}

// ReportSink receives the timing report after shutdown.
type ReportSink interface {
	Publish(ctx context.Context, runID string, kind string, report stopwatch.Report) error
}

// Application runs bootstrap, run and shutdown around a Runner.
type Application struct {
	runner        Runner
	errorHandling ErrorHandlingService
	logger        *zap.SugaredLogger
	lapTimer      *stopwatch.LapTimer

	exitHooks ExitRegistrar
	sinks     map[string]ReportSink
	sinkOrder []string
	tracer    trace.Tracer
	runID     string

	mu           sync.Mutex
	state        State
	shutdownOnce sync.Once
	shutdownErr  error
}

// Option configures an Application.
type Option func(*Application)

// WithExitHooks sets where Shutdown is registered during bootstrap.
func WithExitHooks(r ExitRegistrar) Option {
	return func(a *Application) {
		if r != nil {
			a.exitHooks = r
		}
	}
}

// WithReportSink adds a named destination for the timing report.
func WithReportSink(name string, sink ReportSink) Option {
	return func(a *Application) {
		if sink == nil {
			return
		}
		if _, exists := a.sinks[name]; !exists {
			a.sinkOrder = append(a.sinkOrder, name)
		}
		a.sinks[name] = sink
	}
}

// WithTracer sets the tracer used for phase spans.
func WithTracer(t trace.Tracer) Option {
	return func(a *Application) {
		if t != nil {
			a.tracer = t
		}
	}
}

// WithRunID sets the identifier reports are published under.
func WithRunID(id string) Option {
	return func(a *Application) {
		a.runID = id
	}
}

// New creates an application. Shutdown is registered with exithook.Default()
// unless WithExitHooks is given.
func New(runner Runner, ehs ErrorHandlingService, logger *zap.SugaredLogger, timer *stopwatch.LapTimer, opts ...Option) *Application {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if timer == nil {
		timer = stopwatch.New()
	}
	a := &Application{
		runner:        runner,
		errorHandling: ehs,
		logger:        logger,
		lapTimer:      timer,
		exitHooks:     defaultExitHooks(),
		sinks:         make(map[string]ReportSink),
		tracer:        noop.NewTracerProvider().Tracer("appshell/application"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Bootstrap installs error handling, registers Shutdown as an exit hook and
// handles the errors recorded before the application existed. When the
// error-handling service fails to initialize, its error is returned and
// nothing is registered.
func (a *Application) Bootstrap(ctx context.Context) error {
	if err := a.transition("bootstrap", StateCreated); err != nil {
		return err
	}

	return a.instrument(ctx, "bootstrap", func(context.Context) error {
		a.lap(LapBootstrapStart)

		if err := a.errorHandling.Initialize(); err != nil {
			return err
		}

		a.exitHooks.Register("application shutdown", func() {
			if err := a.Shutdown(); err != nil {
				a.logger.Errorw("Shutdown from exit hook failed", "error", err)
			}
		})

		a.errorHandling.HandlePreExecutionErrors()

		a.advance(LapBootstrapEnd, StateBootstrapped)
		return nil
	})
}

// Run executes the runner. A runner error is returned as is and the
// "run: end" lap is not recorded. When an exit hook shuts the application
// down while the runner is still working, Run leaves the laps and the state
// as shutdown left them.
func (a *Application) Run(ctx context.Context) error {
	if err := a.transition("run", StateBootstrapped); err != nil {
		return err
	}
	a.advance("", StateRunning)

	return a.instrument(ctx, "run", func(ctx context.Context) error {
		a.lap(LapRunStart)

		if err := a.runner.Execute(ctx); err != nil {
			a.advance("", StateRan)
			return err
		}

		a.advance(LapRunEnd, StateRan)
		return nil
	})
}

// Shutdown restores error handling, records the final lap and logs the
// timing report. Only the first call has any effect; later calls return the
// first call's result.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.shutdownErr = a.instrument(context.Background(), "shutdown", func(ctx context.Context) error {
			return a.shutdown(ctx)
		})
	})
	return a.shutdownErr
}

func (a *Application) shutdown(ctx context.Context) error {
	if err := a.errorHandling.Restore(); err != nil {
		return err
	}

	a.mu.Lock()
	a.lapTimer.Lap(LapShutdown)
	a.state = StateShutDown
	report := a.lapTimer.Statistics()
	a.mu.Unlock()

	if err := a.logReport(report); err != nil {
		return err
	}
	metrics.LapsRecorded.Add(float64(report.TotalLaps))

	a.publish(ctx, report)
	return nil
}

func (a *Application) logReport(report stopwatch.Report) error {
	data, err := stopwatch.EncodeEnvelope(report)
	if err != nil {
		return fmt.Errorf("failed to encode timing report: %w", err)
	}
	a.logger.Debug(string(data))
	return nil
}

func (a *Application) publish(ctx context.Context, report stopwatch.Report) {
	kind := a.runner.Kind().String()
	for _, name := range a.sinkOrder {
		pctx, cancel := context.WithTimeout(ctx, PublishTimeout)
		err := a.sinks[name].Publish(pctx, a.runID, kind, report)
		cancel()
		if err != nil {
			a.logger.Warnw("Failed to publish timing report",
				"sink", name,
				"run_id", a.runID,
				"error", err)
			metrics.ReportPublishFailures.WithLabelValues(name).Inc()
		}
	}
}

// State returns the current lifecycle state.
func (a *Application) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// RunID returns the identifier reports are published under.
func (a *Application) RunID() string {
	return a.runID
}

// LapTimer returns the timer owned by the application.
func (a *Application) LapTimer() *stopwatch.LapTimer {
	return a.lapTimer
}

// handleRunError passes err to the error-handling service when it can log errors.
func (a *Application) handleRunError(err error) {
	if h, ok := a.errorHandling.(ErrorHandler); ok {
		h.HandleError("run", err)
		return
	}
	a.logger.Errorw("Run failed", "error", err)
}

func (a *Application) transition(phase string, want State) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != want {
		return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, phase, a.state)
	}
	return nil
}

// lap records a lap unless the application has already shut down.
// Shutdown may run on a signal goroutine while Run is still in progress.
func (a *Application) lap(name string) {
	a.advance(name, StateCreated)
}

// advance records the lap when name is set and moves to s unless s is
// StateCreated. Both are skipped once the application has shut down.
func (a *Application) advance(name string, s State) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateShutDown {
		return
	}
	if name != "" {
		a.lapTimer.Lap(name)
	}
	if s != StateCreated {
		a.state = s
	}
}

func (a *Application) instrument(ctx context.Context, phase string, fn func(context.Context) error) error {
	ctx, span := a.tracer.Start(ctx, "application."+phase,
		trace.WithAttributes(
			attribute.String("appshell.run_id", a.runID),
			attribute.String("appshell.runner", a.runner.Kind().String()),
		))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.PhaseFailures.WithLabelValues(phase).Inc()
	}
	return err
}
