package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"appshell/reportstore"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newReportsCmd creates the 'reports' subcommand
func newReportsCmd(opts *rootOptions) *cobra.Command {
	var storeName string

	reportsCmd := &cobra.Command{
		Use:     "reports",
		Aliases: []string{"report"},
		Short:   "Inspect stored timing reports",
	}
	reportsCmd.PersistentFlags().StringVar(&storeName, "store", "", "Report store to read (sqlite or redis; default: first enabled)")

	reportsCmd.AddCommand(newReportsListCmd(opts, &storeName))
	reportsCmd.AddCommand(newReportsShowCmd(opts, &storeName))

	return reportsCmd
}

// newReportsListCmd creates the 'reports list' subcommand
func newReportsListCmd(opts *rootOptions, storeName *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
			defer cancel()

			records, err := withStore(ctx, cmd, opts, *storeName, "Loading reports...",
				func(ctx context.Context, store reportstore.Store) ([]reportstore.Record, error) {
					return store.List(ctx, limit)
				})
			if err != nil {
				return err
			}

			if opts.outputJSON {
				if records == nil {
					records = []reportstore.Record{}
				}
				return outputAsJSON(cmd.OutOrStdout(), records)
			}
			renderReportsTable(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of reports (0 for all)")

	return cmd
}

// newReportsShowCmd creates the 'reports show' subcommand
func newReportsShowCmd(opts *rootOptions, storeName *string) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one report with its laps in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTimeout)
			defer cancel()

			records, err := withStore(ctx, cmd, opts, *storeName, "Loading report...",
				func(ctx context.Context, store reportstore.Store) ([]reportstore.Record, error) {
					rec, err := store.Get(ctx, args[0])
					if err != nil {
						return nil, err
					}
					return []reportstore.Record{rec}, nil
				})
			if err != nil {
				return err
			}
			rec := records[0]

			switch {
			case opts.outputJSON:
				return outputAsJSON(cmd.OutOrStdout(), rec)
			case asYAML:
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(rec); err != nil {
					return err
				}
				return enc.Close()
			}
			renderReportDetails(cmd.OutOrStdout(), rec)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Output in YAML format")

	return cmd
}

func withStore(
	ctx context.Context,
	cmd *cobra.Command,
	opts *rootOptions,
	storeName, progress string,
	fn func(context.Context, reportstore.Store) ([]reportstore.Record, error),
) ([]reportstore.Record, error) {
	env, err := loadEnvironment(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	defer env.Close()

	store, err := env.store(storeName)
	if err != nil {
		return nil, err
	}

	var s *spinner.Spinner
	if !opts.quiet && !opts.outputJSON {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		s.Suffix = " " + progress
		s.Start()
	}
	records, err := fn(ctx, store)
	if s != nil {
		s.Stop()
	}
	return records, err
}

// renderReportsTable displays reports in a formatted table
func renderReportsTable(w io.Writer, records []reportstore.Record) {
	if len(records) == 0 {
		warningColor.Fprintln(w, "No reports stored")
		return
	}

	headerColor.Fprintln(w, "REPORTS")
	headerColor.Fprintln(w, strings.Repeat("=", 96))
	fmt.Fprintf(w, "%-38s %-12s %-22s %-6s %12s\n", "Run ID", "Kind", "Created", "Laps", "Total (ms)")
	fmt.Fprintln(w, strings.Repeat("-", 96))

	for _, r := range records {
		fmt.Fprintf(w, "%-38s %-12s %-22s %-6d %12.3f\n",
			r.RunID, r.Kind, formatTime(r.CreatedAt), r.TotalLaps, r.TotalTime)
	}

	fmt.Fprintln(w, strings.Repeat("=", 96))
}

// renderReportDetails displays one report
func renderReportDetails(w io.Writer, r reportstore.Record) {
	headerColor.Fprintf(w, "Report %s\n", r.RunID)
	printField(w, "Kind", r.Kind)
	printField(w, "Created", formatTime(r.CreatedAt))
	printField(w, "Total Laps", fmt.Sprintf("%d", r.TotalLaps))
	printField(w, "Total Time", fmt.Sprintf("%.6f ms", r.TotalTime))
	fmt.Fprintln(w)

	printSection(w, "Laps")
	for i, lap := range r.Laps {
		fmt.Fprintf(w, "  %2d. %-24s %14.6f ms\n", i+1, lap.Key, lap.ElapsedMS)
	}
}

// printSection prints a section header
func printSection(w io.Writer, title string) {
	infoColor.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// printField prints a key-value field
func printField(w io.Writer, key, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", key+":", value)
}

// formatTime formats a timestamp for display
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
