package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pubcheck/internal/app"
	"pubcheck/internal/config"
	logx "pubcheck/pkg/logx"
)

func newHistoryCmd(o *rootOptions) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs from the audit store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(o.configPath, nil)
			if err != nil {
				return err
			}
			log := logx.NewConsole(mapLevel(o.logLevel, cfg.Logging.Level))
			recs, err := app.History(cmd.Context(), cfg, limit, log)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tTODAY\tSTATUS\tSTAGE\tARTICLES\tIMAGES\tTOOK\tSUBJECT")
			for _, r := range recs {
				status := r.Status
				if r.SendError != "" {
					status += " (unsent)"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					r.StartedAt.Local().Format(time.DateTime), r.Today, status, dash(r.Stage),
					r.Articles, r.Images, time.Duration(r.TookMS)*time.Millisecond, r.Subject)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")
	return cmd
}

func mapLevel(flag, cfg string) string {
	if flag != "" {
		return flag
	}
	return cfg
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
