// Package cmd provides the appshell command-line interface.
package cmd

import (
	"encoding/json"
	"io"
	"time"

	"appshell/exithook"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
)

const defaultTimeout = 30 * time.Second

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configFile string
	outputJSON bool
	noColor    bool
	quiet      bool
	debug      bool

	// exitHooks receives the shutdown of command applications.
	exitHooks *exithook.Registry
}

// NewRootCmd creates the appshell command with all subcommands.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{exitHooks: exithook.Default()})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	if opts.exitHooks == nil {
		opts.exitHooks = exithook.Default()
	}

	rootCmd := &cobra.Command{
		Use:   "appshell",
		Short: "Run units of work inside an instrumented application lifecycle",
		Long: `appshell wraps a unit of work with bootstrap, run and shutdown phases.

Every lifecycle installs error handling before user code runs, records lap
timings for each phase and logs the timing report at debug level when it
shuts down. Reports can also be stored in SQLite or Redis.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file path (default: ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.outputJSON, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&opts.quiet, "quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Log at debug level (shows the timing report)")

	rootCmd.AddCommand(newCommandCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newCGICmd(opts))
	rootCmd.AddCommand(newReportsCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// outputAsJSON writes data as indented JSON
func outputAsJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
