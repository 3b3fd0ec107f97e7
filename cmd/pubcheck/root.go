package main

import (
	"github.com/spf13/cobra"

	"pubcheck/internal/app"
	"pubcheck/internal/config"
)

type rootOptions struct {
	configPath string
	envFiles   []string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:           "pubcheck",
		Short:         "Verify last night's edition and email the result",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(o.envFiles...)
		},
	}

	root.PersistentFlags().StringVar(&o.configPath, "config", "", "config file (json or yaml); empty reads the environment only")
	root.PersistentFlags().StringSliceVar(&o.envFiles, "env-file", []string{".env"}, "dotenv files loaded before the config; missing files are skipped")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "override logging.level (trace|debug|info|warn|error)")

	root.AddCommand(newRunCmd(o))
	root.AddCommand(newCheckCmd(o))
	root.AddCommand(newServeCmd(o))
	root.AddCommand(newHistoryCmd(o))
	return root
}

func (o *rootOptions) newApp(cmd *cobra.Command) (*app.App, error) {
	return app.New(o.configPath, nil, app.WithLogLevel(o.logLevel), app.WithStdout(cmd.OutOrStdout()))
}
