package cmd

import (
	"fmt"

	"appshell/application"
	"appshell/config"

	"github.com/spf13/cobra"
)

func printAllowedHosts(cmd *cobra.Command, opts *rootOptions, cfg *config.Config) error {
	hosts, err := application.AllowedHosts(cfg.Getter())
	if err != nil {
		errorColor.Fprintln(cmd.ErrOrStderr(), "ALLOWED_HOSTS is invalid")
		return err
	}

	out := cmd.OutOrStdout()
	if opts.outputJSON {
		return outputAsJSON(out, hosts)
	}
	if len(hosts) == 0 {
		warningColor.Fprintln(out, "ALLOWED_HOSTS is empty: only localhost, 127.0.0.1 and ::1 are accepted")
		return nil
	}
	for _, h := range hosts {
		fmt.Fprintln(out, h)
	}
	return nil
}
