// Package encoder runs the final ffmpeg encode of a normalized clip.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"reelfit/internal/model"
	"reelfit/internal/progress"
	"reelfit/internal/util"
)

// Options control ffmpeg execution.
type Options struct {
	FFmpegPath string
	Verbose    bool
	OutputPath string // Full path of desired output file (including extension)

	Runner   util.CmdRunner    // nil uses real processes
	Reporter progress.Reporter // optional
	JobID    string
	Label    string // progress message, e.g. "Encoding (attempt 2)"
	Logger   *slog.Logger
}

// Encode performs one blocking encode of clip with params. An incomplete or
// failed output file is removed.
func Encode(ctx context.Context, clip model.NormalizedClip, params model.EncodeParams, opts Options) (model.OutputVideo, error) {
	if opts.FFmpegPath == "" {
		return model.OutputVideo{}, errors.New("ffmpeg path is required")
	}
	if opts.OutputPath == "" {
		return model.OutputVideo{}, errors.New("output path is required")
	}
	if clip.Path == "" {
		return model.OutputVideo{}, errors.New("input clip is required")
	}
	if params.VideoBitrate <= 0 {
		return model.OutputVideo{}, fmt.Errorf("invalid video bitrate %d", params.VideoBitrate)
	}

	// Ensure output dir exists
	if err := util.EnsureDir(filepath.Dir(opts.OutputPath)); err != nil {
		return model.OutputVideo{}, fmt.Errorf("ensure output dir: %w", err)
	}

	params.IncludeProgress = opts.Reporter != nil
	args := BuildVideoArgs(clip, params, opts.OutputPath)

	spec := util.CmdSpec{
		Path:    opts.FFmpegPath,
		Args:    args,
		Verbose: opts.Verbose,
		Logger:  opts.Logger,
	}
	if opts.Reporter != nil {
		ps := &ProgressState{Label: opts.Label}
		spec.StdoutLine = func(line string) {
			if u, ok := ps.UpdateFromLine(line, opts.JobID, clip.DurationSec); ok {
				opts.Reporter.Update(u)
			}
		}
		if opts.Verbose {
			spec.StderrLine = func(line string) {
				opts.Reporter.Log(progress.Log{JobID: opts.JobID, Stream: progress.StreamStderr, Line: line})
			}
		}
	}

	runner := opts.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}
	res, runErr := runner.Run(ctx, spec)
	if runErr != nil {
		// Delete incomplete file
		_ = util.RemoveIfExists(opts.OutputPath)
		return model.OutputVideo{}, fmt.Errorf("ffmpeg failed: %w: %s", runErr, res.StderrTail(3))
	}

	fi, err := os.Stat(opts.OutputPath)
	if err != nil {
		return model.OutputVideo{}, fmt.Errorf("stat output: %w", err)
	}

	return model.OutputVideo{
		OutputPath:   opts.OutputPath,
		Bytes:        fi.Size(),
		VideoBitrate: params.VideoBitrate,
		Resolution:   params.Resolution,
		Rate:         params.Rate,
	}, nil
}
