package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"appshell/application"
	"appshell/exithook"
	"appshell/metrics"
	"appshell/reportstore"
	"appshell/runner"
	"appshell/serverrequest"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

// newServeCmd creates the 'serve' subcommand
func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve HTTP, one server application per request",
		Long: `Listen for HTTP requests and run each one inside its own server
application. The request host must match ALLOWED_HOSTS. Requests are handled
one at a time, and intake is rate limited (server.rate_limit).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.Close()

			if addr == "" {
				addr = env.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			limits := env.cfg.Server.RateLimit
			handler := newLifecycleHandler(env, runner.NewRouter(env.container.GetLogger("http")),
				rate.NewLimiter(rate.Limit(limits.RequestsPerSecond), limits.Burst))

			srv := &http.Server{
				Addr:         addr,
				Handler:      handler,
				ReadTimeout:  env.cfg.Server.ReadTimeout,
				WriteTimeout: env.cfg.Server.WriteTimeout,
				ErrorLog:     zap.NewStdLog(env.container.RootLogger().Named("http")),
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()

			if !opts.quiet {
				successColor.Fprintf(cmd.ErrOrStderr(), "appshell listening on %s\n", addr)
			}

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			env.logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to stop server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")

	return cmd
}

// lifecycleHandler runs one server application per request. Lifecycles never
// overlap: the error-handling hooks they install are process-wide.
type lifecycleHandler struct {
	env     *environment
	router  http.Handler
	limiter *rate.Limiter
	logger  *zap.SugaredLogger

	mu sync.Mutex
}

func newLifecycleHandler(env *environment, router http.Handler, limiter *rate.Limiter) *lifecycleHandler {
	return &lifecycleHandler{
		env:     env,
		router:  router,
		limiter: limiter,
		logger:  env.container.GetLogger("serve"),
	}
}

func (h *lifecycleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		metrics.RequestsRejected.WithLabelValues("rate_limit").Inc()
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// The request plays the role of the process: its hooks run when it ends,
	// including when a handler panics.
	hooks := exithook.New(h.logger)
	defer hooks.Run()

	runID := reportstore.NewRunID()
	factory := newServerApplicationFactory(h.env, h.router, w)
	app, err := factory.CreateHTTPServerApplication(h.env.newTimer(), r, h.env.applicationOptions(runID, hooks)...)
	if err != nil {
		rejectRequest(w, h.logger, err)
		return
	}

	w.Header().Set("X-Run-Id", runID)
	if err := application.Execute(r.Context(), app); err != nil {
		h.logger.Errorw("Request lifecycle failed", "run_id", runID, "error", err)
	}
}

func newServerApplicationFactory(env *environment, router http.Handler, w http.ResponseWriter) *application.ServerApplicationFactory {
	runners := runner.NewHTTPRunnerFactory(router, w)
	return application.NewServerApplicationFactory(
		application.ApplicationRunnerFactoryFunc(func(req *serverrequest.ServerRequest) application.ApplicationRunner {
			return runners.CreateHTTPRunner(req)
		}),
		env.errorHandlingFactory(),
		env.container,
		serverrequest.NewFactory(),
	)
}

// rejectRequest answers a request that never reached a lifecycle.
func rejectRequest(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, serverrequest.ErrHostNotAllowed), errors.Is(err, serverrequest.ErrMissingHost):
		metrics.RequestsRejected.WithLabelValues("host").Inc()
		logger.Warnw("Request rejected", "reason", "host", "error", err)
		writeError(w, http.StatusBadRequest, "host not allowed")
	case errors.Is(err, application.ErrUnexpectedValue):
		metrics.RequestsRejected.WithLabelValues("config").Inc()
		logger.Errorw("Invalid host allowlist", "error", err)
		writeError(w, http.StatusInternalServerError, "server misconfigured")
	default:
		metrics.RequestsRejected.WithLabelValues("bad_request").Inc()
		logger.Warnw("Request rejected", "reason", "bad_request", "error", err)
		writeError(w, http.StatusBadRequest, "bad request")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
