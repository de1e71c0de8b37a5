package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reelfit/internal/batch"
	"reelfit/internal/dirs"
	"reelfit/internal/history"
	"reelfit/internal/pipeline"
	"reelfit/internal/probe"
	"reelfit/internal/progress"
	"reelfit/internal/ui"
)

type runMode struct {
	ForceTUI bool
	Archiver *batch.Archiver
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "run [files...]",
		Short:         "Render the given source files for every selected platform",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(cmd, args, runMode{})
		},
	}
	bindRunFlags(cmd.Flags())
	return cmd
}

func runFiles(cmd *cobra.Command, args []string, mode runMode) error {
	var sources []string
	for _, raw := range args {
		abs, err := filepath.Abs(raw)
		if err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		if !probe.Allowed(abs) {
			return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("%s: unsupported container (accepted: %v)", raw, probe.AllowedExtensions)}
		}
		if _, err := os.Stat(abs); err != nil {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		sources = append(sources, abs)
	}
	return execute(cmd, sources, mode)
}

// execute plans and runs sources with the configured recorders, through the
// TUI when attached to a terminal.
func execute(cmd *cobra.Command, sources []string, mode runMode) error {
	a := appFrom(cmd)
	profiles, err := a.cfg.Profiles.Select(a.cfg.Platforms)
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	ffmpeg, ffprobe, err := a.tools()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.cfg.OutDir, 0o755); err != nil {
		return &ExitError{Code: ExitCLIError, Err: fmt.Errorf("failed to create output dir: %w", err)}
	}

	keepTemp, _ := cmd.Flags().GetBool("keep-temp")
	noUI, _ := cmd.Flags().GetBool("no-ui")
	useTUI := mode.ForceTUI || (!noUI && isTerminal())

	jobs := batch.Plan(sources, profiles, a.cfg.OutDir, a.now())

	log := a.jobLogger(useTUI)
	recorders := []batch.Recorder{batch.ManifestRecorder{}, batch.LogRecorder{Logger: log}}
	if path, err := dirs.HistoryPath(); err == nil {
		store, err := history.Open(path)
		if err != nil {
			a.log.Warn("history disabled", "error", err)
		} else {
			defer store.Close()
			recorders = append(recorders, batch.HistoryRecorder{Store: store})
		}
	}

	labels := map[string]string{}
	var rows []ui.Row
	for _, j := range jobs {
		for _, t := range j.Targets {
			label := filepath.Base(j.Source) + " → " + t.Profile.Name
			labels[t.JobID] = label
			rows = append(rows, ui.Row{JobID: t.JobID, Label: label, Ceiling: t.Profile.SizeCeilingBytes, MaxAttempts: t.Profile.MaxAttempts})
		}
	}

	runWith := func(ctx context.Context, rep progress.Reporter) batch.Summary {
		svc := pipeline.NewService(
			pipeline.WithFFmpegPath(ffmpeg),
			pipeline.WithFFprobePath(ffprobe),
			pipeline.WithReporter(rep),
			pipeline.WithLogger(log),
			pipeline.WithCTA(a.cfg.CTA),
			pipeline.WithOverlay(a.cfg.Overlay),
			pipeline.WithKeepTemp(keepTemp),
			pipeline.WithVerbose(a.cfg.Verbose),
		)
		r := &batch.Runner{
			Service:   svc,
			Workers:   a.cfg.Jobs,
			Recorders: recorders,
			Archiver:  mode.Archiver,
			Logger:    log,
		}
		return r.Run(ctx, jobs)
	}

	var sum batch.Summary
	if useTUI {
		err := ui.Run(cmd.Context(), rows, func(ctx context.Context, rep progress.Reporter) {
			sum = runWith(ctx, rep)
		})
		if err != nil && sum.Failed() == 0 {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
	} else {
		sum = runWith(cmd.Context(), &progress.Printer{W: cmd.ErrOrStderr(), Labels: labels})
	}

	if err := sum.Write(cmd.OutOrStdout()); err != nil {
		return err
	}
	if n := sum.Failed(); n > 0 {
		return failedErr(n)
	}
	if errors.Is(cmd.Context().Err(), context.Canceled) {
		return &ExitError{Code: ExitJobsFailed, Err: context.Canceled}
	}
	return nil
}
