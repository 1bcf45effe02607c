package main

import (
	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by all commands
type rootOptions struct {
	EnvFiles []string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "powermatch",
		Short:         "PowerMatch game server",
		Long:          "Streams a target power curve to players and scores them against a live power meter.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "dotenv files to load (default .env)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newLeaderboardCommand(opts))

	return cmd
}
