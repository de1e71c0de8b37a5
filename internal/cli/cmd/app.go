package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"reelfit/internal/config"
	"reelfit/internal/dirs"
	"reelfit/internal/logging"
	"reelfit/internal/util/deps"
)

type appKey struct{}

// app is the per-invocation state shared by subcommands.
type app struct {
	cfg *config.Config
	log *logging.Logger
	now func() time.Time
}

func loadApp(cmd *cobra.Command, _ []string) error {
	if err := config.Init(cmd.Root()); err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	if v, _ := cmd.Flags().GetString("cta"); v != "" {
		cfg.CTA.Text = v
	}
	if v, _ := cmd.Flags().GetString("overlay"); v != "" {
		cfg.Overlay.Path = v
	}

	logDir, _ := dirs.LogDir()
	log, err := logging.New(logging.Options{Verbose: cfg.Verbose, Console: os.Stderr, LogDir: logDir})
	if err != nil {
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	log.Debug("config loaded", "config_file", viper.ConfigFileUsed(), "platforms", cfg.Platforms, "out_dir", cfg.OutDir)

	cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{cfg: cfg, log: log, now: time.Now}))
	return nil
}

func closeApp(cmd *cobra.Command, _ []string) {
	if a, ok := cmd.Context().Value(appKey{}).(*app); ok {
		_ = a.log.Close()
	}
}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

// tools resolves ffmpeg and ffprobe, mapping a miss to ExitMissingDep.
func (a *app) tools() (ffmpeg, ffprobe string, err error) {
	ffmpeg, err = deps.FindFFmpeg(a.cfg.FFmpeg)
	if err != nil {
		return "", "", &ExitError{Code: ExitMissingDep, Err: err}
	}
	ffprobe, err = deps.FindFFprobe(a.cfg.FFprobe)
	if err != nil {
		return "", "", &ExitError{Code: ExitMissingDep, Err: err}
	}
	return ffmpeg, ffprobe, nil
}

// jobLogger is the logger handed to the pipeline and batch runner. The TUI
// redraws in place on the terminal, so console output is suppressed while it
// runs and job records go to the processing log only.
func (a *app) jobLogger(tui bool) *slog.Logger {
	if tui {
		return a.log.FileOnly()
	}
	return a.log.Logger
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func failedErr(n int) error {
	return &ExitError{Code: ExitJobsFailed, Err: fmt.Errorf("%d job(s) failed", n)}
}
