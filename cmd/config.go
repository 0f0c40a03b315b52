package cmd

import (
	"fmt"

	"appshell/config"

	"github.com/spf13/cobra"
)

// newConfigCmd creates the 'config' subcommand
func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML (secrets omitted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			source := cfg.ConfigFileUsed()
			if source == "" {
				source = "defaults and environment"
			}
			fmt.Fprintf(out, "# source: %s\n", source)

			data, err := cfg.YAML()
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "hosts",
		Short: "Print the resolved ALLOWED_HOSTS list",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return printAllowedHosts(cmd, opts, cfg)
		},
	})

	return configCmd
}
