// Package exithook provides the on-exit registration capability used to make
// sure cleanup runs when a process ends, whether it returns normally, panics
// or is interrupted by a signal.
package exithook

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"appshell/errhandling"

	"go.uber.org/zap"
)

type hook struct {
	name string
	fn   func()
}

// Registry holds cleanup hooks and runs them at most once, last registered first.
type Registry struct {
	logger *zap.SugaredLogger
	exit   func(code int)

	mu    sync.Mutex
	hooks []hook
	once  sync.Once
	ran   bool
}

var defaultRegistry = New(nil)

// Default returns the process-wide registry. main guards it.
func Default() *Registry {
	return defaultRegistry
}

// Option configures a Registry.
type Option func(*Registry)

// WithExit replaces os.Exit, which is called after hooks ran because of a signal.
func WithExit(exit func(code int)) Option {
	return func(r *Registry) {
		r.exit = exit
	}
}

// New creates an empty registry.
func New(logger *zap.SugaredLogger, opts ...Option) *Registry {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	r := &Registry{
		logger: logger,
		exit:   os.Exit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a hook. Once Run has started there is nothing left to wait
// for, so a late hook runs immediately and a warning is logged.
func (r *Registry) Register(name string, fn func()) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	if !r.ran {
		r.hooks = append(r.hooks, hook{name: name, fn: fn})
		r.mu.Unlock()
		return
	}
	logger := r.logger
	r.mu.Unlock()

	logger.Warnw("Exit hook registered after hooks ran, running it now", "hook", name)
	r.runHook(hook{name: name, fn: fn})
}

// SetLogger replaces the logger used to report hook panics and signals.
func (r *Registry) SetLogger(logger *zap.SugaredLogger) {
	if logger == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

func (r *Registry) log() *zap.SugaredLogger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logger
}

// Len returns the number of registered hooks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hooks)
}

// Run executes every hook once. A panicking hook is logged and does not stop the others.
func (r *Registry) Run() {
	r.once.Do(func() {
		r.mu.Lock()
		hooks := r.hooks
		r.hooks = nil
		r.ran = true
		r.mu.Unlock()

		for i := len(hooks) - 1; i >= 0; i-- {
			r.runHook(hooks[i])
		}
	})
}

func (r *Registry) runHook(h hook) {
	defer errhandling.Recover("exit hook "+h.name, r.log())
	h.fn()
}

// Ran reports whether Run has been called.
func (r *Registry) Ran() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ran
}

// Guard is meant to be deferred at the top of main. It runs the hooks on
// normal return and on panic; the panic is re-raised afterwards.
func (r *Registry) Guard() {
	if p := recover(); p != nil {
		r.log().Errorw("Terminating after panic, running exit hooks", "panic", p)
		r.Run()
		panic(p)
	}
	r.Run()
}

// WatchSignals runs the hooks and exits when one of sigs arrives
// (SIGINT and SIGTERM by default). The returned function stops watching.
func (r *Registry) WatchSignals(ctx context.Context, sigs ...os.Signal) (stop func()) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.watch(ctx, ch)
	}()

	return func() {
		signal.Stop(ch)
		cancel()
		<-done
	}
}

func (r *Registry) watch(ctx context.Context, ch <-chan os.Signal) {
	select {
	case <-ctx.Done():
		return
	case sig := <-ch:
		r.log().Infow("Signal received, running exit hooks", "signal", sig.String())
		r.Run()
		r.exit(exitCode(sig))
	}
}

func exitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}
