package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelfit/internal/dirs"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies (ffmpeg, ffprobe) and data folders",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			ff, fp, err := a.tools()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "FFmpeg:   %s\n", ff)
			fmt.Fprintf(out, "FFprobe:  %s\n", fp)
			fmt.Fprintf(out, "Inputs:   %s\n", a.cfg.InputDir)
			fmt.Fprintf(out, "Outputs:  %s\n", a.cfg.OutDir)
			fmt.Fprintf(out, "Archive:  %s\n", a.cfg.ArchiveDir)
			if p, err := dirs.HistoryPath(); err == nil {
				fmt.Fprintf(out, "History:  %s\n", p)
			}
			if p := a.log.Path(); p != "" {
				fmt.Fprintf(out, "Log:      %s\n", p)
			}
			return nil
		},
	}
}
