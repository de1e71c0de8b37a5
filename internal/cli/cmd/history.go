package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"reelfit/internal/dirs"
	"reelfit/internal/history"
	"reelfit/internal/util/format"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "history",
		Short:         "Show recently finished jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			path, err := dirs.HistoryPath()
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			store, err := history.Open(path)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return &ExitError{Code: ExitCLIError, Err: err}
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded yet.")
				return nil
			}
			var rows [][]string
			for _, e := range entries {
				result := string(e.Verdict)
				if e.FailureKind != "" {
					result += " (" + string(e.FailureKind) + ")"
				}
				rows = append(rows, []string{
					e.FinishedAt.Local().Format(time.DateTime),
					filepath.Base(e.Source),
					e.Platform,
					result,
					format.HumanizeBitrate(e.Bitrate),
					format.HumanizeBytes(e.SizeBytes),
					fmt.Sprintf("%d", e.Attempts),
					e.OutputPath,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Finished", "Source", "Platform", "Result", "Bitrate", "Size", "Attempts", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Number of jobs to show")
	return cmd
}
