// Package runner provides the concrete units of work executed during an
// application's run phase: an HTTP runner that dispatches one server request
// through a router, and a command registry for CLI commands.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"appshell/serverrequest"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HTTPRunner serves exactly one request.
type HTTPRunner struct {
	request *serverrequest.ServerRequest
	handler http.Handler
	writer  http.ResponseWriter
}

// NewHTTPRunner creates a runner writing the handler's response to w.
func NewHTTPRunner(req *serverrequest.ServerRequest, handler http.Handler, w http.ResponseWriter) *HTTPRunner {
	return &HTTPRunner{request: req, handler: handler, writer: w}
}

// Run dispatches the request. Handler panics are not recovered here.
func (r *HTTPRunner) Run(ctx context.Context) error {
	if r.request == nil {
		return fmt.Errorf("http runner has no request")
	}
	req, err := r.request.HTTPRequest(ctx)
	if err != nil {
		return fmt.Errorf("failed to build http request: %w", err)
	}
	r.handler.ServeHTTP(r.writer, req)
	return nil
}

// HTTPRunnerFactory creates HTTPRunners that share a handler and a response writer.
type HTTPRunnerFactory struct {
	handler http.Handler
	writer  http.ResponseWriter
}

// NewHTTPRunnerFactory returns a factory for one response writer.
func NewHTTPRunnerFactory(handler http.Handler, w http.ResponseWriter) *HTTPRunnerFactory {
	return &HTTPRunnerFactory{handler: handler, writer: w}
}

// CreateHTTPRunner builds the runner for req.
func (f *HTTPRunnerFactory) CreateHTTPRunner(req *serverrequest.ServerRequest) *HTTPRunner {
	return NewHTTPRunner(req, f.handler, f.writer)
}

// NewRouter returns the built-in routes.
func NewRouter(logger *zap.SugaredLogger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	r := mux.NewRouter()
	r.HandleFunc("/", welcomeHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/echo", echoHandler(logger))
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found", "path": req.URL.Path})
	})
	return r
}

func welcomeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "appshell",
		"host":    r.Host,
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func echoHandler(logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			logger.Warnw("Failed to read echo body", "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
			return
		}

		cookies := make([]string, 0)
		for _, c := range r.Cookies() {
			cookies = append(cookies, c.Name)
		}
		sort.Strings(cookies)

		writeJSON(w, http.StatusOK, map[string]any{
			"method":  r.Method,
			"path":    r.URL.Path,
			"query":   r.URL.Query(),
			"cookies": cookies,
			"body":    string(body),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
