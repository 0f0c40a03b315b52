package cmd

import (
	"net/http"
	"net/http/cgi"

	"appshell/application"
	"appshell/exithook"
	"appshell/reportstore"
	"appshell/runner"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newCGICmd creates the 'cgi' subcommand
func newCGICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cgi",
		Short: "Handle one CGI request from the process environment",
		Long: `Build a server application from the CGI environment of this process
(REQUEST_METHOD, HTTP_HOST, REQUEST_URI, ...), run it once and write the
response to standard output. Logs go to standard error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.Close()

			router := runner.NewRouter(env.container.GetLogger("http"))
			logger := env.container.GetLogger("cgi")

			return cgi.Serve(newCGIHandler(env, router, logger))
		},
	}
}

// newCGIHandler runs one lifecycle for the request cgi.Serve parsed from the
// environment. The process ends with the request, so its exit hooks run when
// the handler returns.
func newCGIHandler(env *environment, router http.Handler, logger *zap.SugaredLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := exithook.New(logger)
		defer hooks.Run()

		runID := reportstore.NewRunID()
		factory := newServerApplicationFactory(env, router, w)
		app, err := factory.CreateHTTPServerApplication(env.newTimer(), r, env.applicationOptions(runID, hooks)...)
		if err != nil {
			rejectRequest(w, logger, err)
			return
		}

		w.Header().Set("X-Run-Id", runID)
		if err := application.Execute(r.Context(), app); err != nil {
			logger.Errorw("Request lifecycle failed", "run_id", runID, "error", err)
		}
	})
}
