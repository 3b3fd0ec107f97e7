package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pubcheck/internal/app"
)

func newRunCmd(o *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the check once if the current hour is a run hour",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, o, app.RunOptions{Force: force})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "ignore schedule.run_hours")
	return cmd
}

func newCheckCmd(o *rootOptions) *cobra.Command {
	var opts app.RunOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the check now, optionally for another date or without sending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Force = true
			return runOnce(cmd, o, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Date, "date", "", "edition date to check (YYYY-MM-DD); default today")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the email instead of sending it")
	return cmd
}

// runOnce exits zero for a failed check whose report was sent; the email is
// the signal.
func runOnce(cmd *cobra.Command, o *rootOptions, opts app.RunOptions) error {
	a, err := o.newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	switch {
	case res.Skipped:
		fmt.Fprintln(out, res.SkipReason)
	case !opts.DryRun:
		fmt.Fprintf(out, "%s (message %s)\n", res.Report.Message.Subject, res.Report.MessageID)
	}
	return nil
}
