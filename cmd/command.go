package cmd

import (
	"fmt"
	"io"
	"strings"

	"appshell/application"
	"appshell/reportstore"
	"appshell/runner"

	"github.com/spf13/cobra"
)

// newCommandCmd creates the 'command' subcommand
func newCommandCmd(opts *rootOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:     "command <name> [args...]",
		Aliases: []string{"cmd"},
		Short:   "Run a named command inside an application lifecycle",
		Long: `Run one of the registered commands (see --list) inside a command
application: error handling is installed first, every phase is timed and the
timing report is logged and stored when the application shuts down.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return nil
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := runner.NewCommandRegistry(cmd.OutOrStdout())
			if err := runner.DefaultCommands(registry); err != nil {
				return err
			}
			if list {
				renderCommands(cmd.OutOrStdout(), registry.Commands())
				return nil
			}

			env, err := loadEnvironment(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.Close()

			stop := opts.exitHooks.WatchSignals(cmd.Context())
			defer stop()

			runID := reportstore.NewRunID()
			factory := application.NewCommandApplicationFactory(env.errorHandlingFactory(), env.container)
			app := factory.CreateCommandApplication(
				env.newTimer(),
				application.CommandRunnerOf(registry, args),
				env.applicationOptions(runID, opts.exitHooks)...,
			)

			runErr := application.Execute(cmd.Context(), app)
			if !opts.quiet {
				renderRunSummary(cmd.ErrOrStderr(), app)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List the available commands")
	// Everything after the command name belongs to the command.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

// renderCommands displays the registered commands
func renderCommands(w io.Writer, commands []runner.Command) {
	headerColor.Fprintln(w, "COMMANDS")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, c := range commands {
		fmt.Fprintf(w, "%-12s %s\n", c.Name, c.Description)
	}
}

// renderRunSummary displays the run ID and lap timings of a finished application
func renderRunSummary(w io.Writer, app *application.Application) {
	report := app.LapTimer().Statistics()

	fmt.Fprintln(w)
	headerColor.Fprintf(w, "Run %s\n", app.RunID())
	for _, e := range report.Entries() {
		fmt.Fprintf(w, "  %-20s %12.3f ms\n", e.Key, e.ElapsedMS)
	}
	if app.State() == application.StateShutDown {
		successColor.Fprintf(w, "  %-20s %12.3f ms (%d laps)\n", "total", report.TotalTime, report.TotalLaps)
	} else {
		warningColor.Fprintf(w, "  application did not shut down (state: %s)\n", app.State())
	}
}
