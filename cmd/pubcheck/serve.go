package main

import (
	"github.com/spf13/cobra"
)

func newServeCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run checks on schedule.cron until interrupted",
		Long: "Run checks on schedule.cron until interrupted. Each trigger passes the run-hour\n" +
			"gate first. Changes to the config file apply before the next trigger.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(cmd.Context())
		},
	}
}
