package main

import (
	"fmt"

	"github.com/go-andiamo/sqldict/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or modify the config settings",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the current config settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Current config settings are (%s):\n", a.configPath)
				for _, f := range config.Fields(a.cfg) {
					_, _ = fmt.Fprintf(out, "  %s = %s\n", f.Key, maskedValue(f))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change a config setting and save it to the config file",
			Long: `Change a config setting and save it to the config file.

Keys: driver, user, password, host, port, autocommit, sql_dir, dsn
(autocommit is true for any value starting with 't').`,
			Args: cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := a.cfg
				if err := config.Set(&cfg, args[0], args[1]); err != nil {
					return err
				}
				if err := config.Save(a.configPath, cfg); err != nil {
					return err
				}
				a.cfg = cfg
				for _, f := range config.Fields(cfg) {
					if f.Key == args[0] {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", f.Key, maskedValue(f))
					}
				}
				return nil
			},
		},
	)
	return cmd
}

func maskedValue(f config.Field) string {
	if f.Key == "password" && f.Value != "" {
		return "********"
	}
	return f.Value
}
