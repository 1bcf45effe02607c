package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/mcdev12/powermatch/go/internal/models"
	"github.com/mcdev12/powermatch/go/internal/scores"
	"github.com/spf13/cobra"
)

type leaderboardOptions struct {
	JSON bool
}

func newLeaderboardCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &leaderboardOptions{}

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the current highscores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}

			repo, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			board, err := scores.NewApp(repo, nil).Leaderboard(cmd.Context())
			if err != nil {
				return err
			}

			if opts.JSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(board)
			}
			return printLeaderboard(cmd.OutOrStdout(), board)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print JSON instead of a table")

	return cmd
}

func printLeaderboard(w io.Writer, board *models.Leaderboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	sections := []struct {
		title   string
		entries []models.LeaderboardEntry
	}{
		{"All time", board.AllTime},
		{"Last 24 hours", board.Recent},
	}

	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\n", section.title)
		if len(section.entries) == 0 {
			fmt.Fprintln(tw, "  (no scores yet)")
			continue
		}
		fmt.Fprintln(tw, "  #\tNAME\tSCORE\tDIFFICULTY\tWHEN")
		for rank, e := range section.entries {
			fmt.Fprintf(tw, "  %d\t%s\t%.2f\t%s\t%s\n",
				rank+1, e.Name, e.Score, e.Difficulty, e.Timestamp.Local().Format(time.DateTime))
		}
	}

	return tw.Flush()
}
