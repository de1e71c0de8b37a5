package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	ExitOK         = 0
	ExitCLIError   = 1
	ExitMissingDep = 2
	ExitJobsFailed = 3
)

// ExitError wraps an error with a process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reelfit [files...]",
		Short: "Render one source video for several short-video platforms",
		Long: "Reelfit turns a source video into platform-ready vertical renders. For every " +
			"platform it normalizes the frame rate, composes the 9:16 canvas with an optional " +
			"call-to-action, and solves the bitrate so the file fits the platform size limit, " +
			"re-encoding when the first attempt comes out too large.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.MinimumNArgs(1),
		PersistentPreRunE: loadApp,
		PersistentPostRun: closeApp,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFiles(cmd, args, runMode{})
		},
	}

	pf := root.PersistentFlags()
	pf.StringP("out-dir", "o", "", "Output root (default <data>/output)")
	pf.BoolP("verbose", "v", false, "Debug logging and full subprocess commands")
	pf.String("ffmpeg", "", "Path to ffmpeg")
	pf.String("ffprobe", "", "Path to ffprobe")
	pf.IntP("jobs", "j", 2, "Sources processed concurrently")
	pf.StringSliceP("platforms", "p", nil, "Platforms to render (default instagram,tiktok,youtube)")

	bindRunFlags(root.Flags())

	root.AddCommand(newRunCmd())
	root.AddCommand(newBatchCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newProfilesCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newTuiCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newCompletionCmd())

	return root
}

func bindRunFlags(fs *pflag.FlagSet) {
	fs.Bool("keep-temp", false, "Keep intermediate files")
	fs.Bool("no-ui", false, "Disable TUI; use plain textual output")
	fs.String("cta", "", "Call-to-action text burned into every render")
	fs.String("overlay", "", "PNG or JPEG image composited over every render")
}

// Execute runs the CLI with the provided context.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
