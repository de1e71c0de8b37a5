package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"reelfit/internal/batch"
	"reelfit/internal/model"
	"reelfit/internal/pipeline"
	"reelfit/internal/util/format"
)

func newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "plan [files...]",
		Short:         "Analyze sources and show the solved encode plan without encoding",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runPlan,
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	a := appFrom(cmd)
	profiles, err := a.cfg.Profiles.Select(a.cfg.Platforms)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	ffmpeg, ffprobe, err := a.tools()
	if err != nil {
		return err
	}
	svc := pipeline.NewService(
		pipeline.WithFFmpegPath(ffmpeg),
		pipeline.WithFFprobePath(ffprobe),
		pipeline.WithLogger(a.log.Logger),
	)

	var sources []string
	for _, raw := range args {
		abs, err := filepath.Abs(raw)
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		sources = append(sources, abs)
	}

	var rows [][]string
	failed := 0
	for _, job := range batch.Plan(sources, profiles, a.cfg.OutDir, a.now()) {
		plans, err := svc.PlanSource(cmd.Context(), job.Source, job.Targets)
		if err != nil {
			failed += len(job.Targets)
			rows = append(rows, []string{filepath.Base(job.Source), "*", "", "", "", "", string(model.KindOf(err)) + ": " + err.Error()})
			continue
		}
		for _, p := range plans {
			rows = append(rows, planRow(p))
			if p.Err != nil {
				failed++
			}
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Source", "Platform", "Duration", "FPS", "Video bitrate", "Est. size", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
	if failed > 0 {
		return failedErr(failed)
	}
	return nil
}

func planRow(p pipeline.Plan) []string {
	status := "fits " + format.HumanizeBytes(p.Profile.SizeCeilingBytes)
	switch {
	case p.Err != nil:
		status = p.Err.Error()
	case !p.Fits():
		status = "over ceiling, expect a retry"
	}
	return []string{
		filepath.Base(p.Source.Path),
		p.Profile.Name,
		fmt.Sprintf("%.1fs", p.DurationSec),
		p.Policy.String(),
		format.HumanizeBitrate(p.Bitrate),
		format.HumanizeBytes(p.EstimatedBytes),
		status,
	}
}
