// Package probe inspects source files with ffprobe and classifies their frame
// timing.
package probe

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reelfit/internal/model"
	"reelfit/internal/util"
)

// AllowedExtensions lists the containers accepted as sources.
var AllowedExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".m4v"}

// Allowed reports whether path has an accepted container extension.
func Allowed(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// sampleWindow bounds how much of the stream is read for timestamp checks.
const sampleWindow = 10.0

// Analyzer produces SourceVideo descriptors.
type Analyzer struct {
	FFprobePath string
	Runner      util.CmdRunner
	Logger      *slog.Logger
}

// NewAnalyzer returns an Analyzer; a nil runner uses real processes.
func NewAnalyzer(ffprobePath string, runner util.CmdRunner, logger *slog.Logger) *Analyzer {
	if runner == nil {
		runner = util.NewDefaultRunner()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Analyzer{FFprobePath: ffprobePath, Runner: runner, Logger: logger}
}

// Analyze inspects path. Every failure is classified as UnreadableSource.
func (a *Analyzer) Analyze(ctx context.Context, path string) (model.SourceVideo, error) {
	if !Allowed(path) {
		return model.SourceVideo{}, model.NewJobError(model.KindUnreadableSource, nil,
			"%s: unsupported container %q", filepath.Base(path), filepath.Ext(path))
	}
	fi, err := os.Stat(path)
	if err != nil {
		return model.SourceVideo{}, model.NewJobError(model.KindUnreadableSource, err, "%s", filepath.Base(path))
	}
	if fi.IsDir() || fi.Size() == 0 {
		return model.SourceVideo{}, model.NewJobError(model.KindUnreadableSource, nil, "%s: empty file", filepath.Base(path))
	}

	res, err := Inspect(ctx, a.Runner, a.FFprobePath, path)
	if err != nil {
		return model.SourceVideo{}, model.NewJobError(model.KindUnreadableSource, err, "%s", filepath.Base(path))
	}
	vs, ok := res.VideoStream()
	if !ok || vs.Width <= 0 || vs.Height <= 0 {
		return model.SourceVideo{}, model.NewJobError(model.KindUnreadableSource, nil, "%s: no video stream", filepath.Base(path))
	}

	duration := vs.DurationSeconds()
	if duration == 0 {
		duration = res.DurationSeconds()
	}
	if duration <= 0 {
		return model.SourceVideo{}, model.NewJobError(model.KindUnreadableSource, nil, "%s: zero-length stream", filepath.Base(path))
	}

	timing := Timing{
		Nominal:    model.ParseFrameRate(vs.RFrameRate),
		Average:    model.ParseFrameRate(vs.AvgFrameRate),
		FrameCount: vs.FrameCount(),
		Duration:   duration,
	}
	if timing.Nominal.IsZero() {
		timing.Nominal = timing.Average
	}
	if timing.Nominal.IsZero() && timing.MeasuredFPS() <= 0 {
		return model.SourceVideo{}, model.NewJobError(model.KindUnreadableSource, nil, "%s: no frame rate", filepath.Base(path))
	}

	// The timestamp sample only sharpens the verdict; a failure here is not fatal.
	if pts, perr := PacketTimes(ctx, a.Runner, a.FFprobePath, path, sampleWindow); perr == nil {
		timing.PacketPTS = pts
	} else {
		a.Logger.Debug("packet sample unavailable", "source", path, "error", perr)
	}

	src := model.SourceVideo{
		Path:         path,
		DurationSec:  duration,
		NominalRate:  timing.Nominal,
		AverageFPS:   timing.MeasuredFPS(),
		FrameCount:   timing.FrameCount,
		ConstantRate: !timing.IsVariable(),
		Resolution:   model.Resolution{Width: vs.Width, Height: vs.Height},
		VideoCodec:   vs.CodecName,
		SizeBytes:    fi.Size(),
	}
	if as, ok := res.AudioStream(); ok {
		src.HasAudio = true
		src.AudioCodec = as.CodecName
		src.AudioDuration = as.DurationSeconds()
		if src.AudioDuration == 0 {
			src.AudioDuration = res.DurationSeconds()
		}
	}

	a.Logger.Debug("source analyzed",
		"source", path,
		"duration", src.DurationSec,
		"nominal_fps", src.NominalRate.String(),
		"measured_fps", src.AverageFPS,
		"cfr", src.ConstantRate,
		"resolution", src.Resolution.String(),
		"audio", src.HasAudio,
	)
	return src, nil
}
