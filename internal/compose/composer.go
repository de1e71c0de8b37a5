// Package compose builds the per-platform intermediate clip: constant frame
// rate, target canvas, overlays and an audio track locked to the video.
package compose

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"reelfit/internal/framerate"
	"reelfit/internal/model"
	"reelfit/internal/util"
)

// DurationTolerance is the allowed difference between the intermediate's
// video duration and the source (or trimmed) duration.
const DurationTolerance = 0.05

// Prober re-inspects the intermediate.
type Prober interface {
	Analyze(ctx context.Context, path string) (model.SourceVideo, error)
}

// Composer runs ffmpeg to produce NormalizedClips.
type Composer struct {
	FFmpegPath string
	Runner     util.CmdRunner
	Prober     Prober
	Logger     *slog.Logger
	CTA        CTA
	Overlay    Overlay
	Verbose    bool
}

// TargetDuration is the source duration, trimmed to the profile maximum.
func TargetDuration(src model.SourceVideo, p model.PlatformProfile) float64 {
	if p.MaxDurationSec > 0 && src.DurationSec > p.MaxDurationSec {
		return p.MaxDurationSec
	}
	return src.DurationSec
}

// Compose produces the intermediate for one profile inside workdir.
func (c *Composer) Compose(ctx context.Context, src model.SourceVideo, p model.PlatformProfile, pol framerate.Policy, workdir string) (model.NormalizedClip, error) {
	log := c.logger().With("source", filepath.Base(src.Path), "platform", p.Name)
	if err := CheckResolution(src.Resolution, p); err != nil {
		return model.NormalizedClip{}, err
	}

	target := TargetDuration(src, p)
	canvas := p.Canvas()
	out := filepath.Join(workdir, "normalized_"+util.SanitizeFilename(p.Name)+".mov")

	args, err := c.buildArgs(src, p, pol, workdir, target, out)
	if err != nil {
		return model.NormalizedClip{}, err
	}
	log.Debug("composing", "fps", pol.String(), "canvas", canvas.String(), "duration", target)
	if res, err := c.run(ctx, args); err != nil {
		_ = util.RemoveIfExists(out)
		return model.NormalizedClip{}, model.NewJobError(model.KindCompositionFailure, err, "ffmpeg: %s", res.StderrTail(3))
	}

	clip, err := c.inspect(ctx, out, src, p, pol)
	if err != nil {
		return model.NormalizedClip{}, err
	}
	if d := math.Abs(clip.DurationSec - target); d > DurationTolerance {
		return clip, model.NewJobError(model.KindCompositionFailure, nil,
			"duration drift %.3fs (got %.3fs, want %.3fs)", d, clip.DurationSec, target)
	}
	return c.reconcileAudio(ctx, clip, p, workdir, log)
}

func (c *Composer) buildArgs(src model.SourceVideo, p model.PlatformProfile, pol framerate.Policy, workdir string, target float64, out string) ([]string, error) {
	args := []string{"-y", "-hide_banner", "-nostdin", "-i", src.Path}

	video := "[0:v:0]" + pol.Filter() + "," + FillFilter(p.Canvas())
	var graph []string
	if c.Overlay.Enabled() {
		asset, err := c.Overlay.Prepare(workdir, p.Canvas())
		if err != nil {
			return nil, err
		}
		args = append(args, "-i", asset)
		graph = append(graph, video+"[base]")
		video = "[base][1:v]" + c.Overlay.filter()
	}
	if c.CTA.Enabled() {
		textFile, err := c.CTA.writeTextFile(workdir, p.Canvas())
		if err != nil {
			return nil, model.NewJobError(model.KindCompositionFailure, err, "cta")
		}
		video += "," + c.CTA.drawtext(textFile)
	}
	graph = append(graph, video+"[v]")
	if src.HasAudio {
		graph = append(graph, "[0:a:0]"+AudioFilter(p.AudioSampleRate)+"[a]")
	}

	args = append(args, "-filter_complex", strings.Join(graph, ";"), "-map", "[v]")
	if src.HasAudio {
		args = append(args, "-map", "[a]")
	}
	if target < src.DurationSec {
		args = append(args, "-t", num(target))
	}
	args = append(args,
		"-c:v", "libx264", "-preset", "ultrafast", "-crf", "12",
		"-pix_fmt", "yuv420p",
		"-fps_mode", "cfr",
	)
	if src.HasAudio {
		args = append(args, "-c:a", "pcm_s16le", "-ar", fmt.Sprint(sampleRate(p)), "-ac", "2")
	} else {
		args = append(args, "-an")
	}
	return append(args, out), nil
}

// inspect probes the intermediate and checks it matches the plan.
func (c *Composer) inspect(ctx context.Context, path string, src model.SourceVideo, p model.PlatformProfile, pol framerate.Policy) (model.NormalizedClip, error) {
	info, err := c.Prober.Analyze(ctx, path)
	if err != nil {
		return model.NormalizedClip{}, model.NewJobError(model.KindCompositionFailure, err, "probe intermediate")
	}
	if info.Resolution != p.Canvas() {
		return model.NormalizedClip{}, model.NewJobError(model.KindCompositionFailure, nil,
			"intermediate is %s, want %s", info.Resolution, p.Canvas())
	}
	if src.HasAudio && !info.HasAudio {
		return model.NormalizedClip{}, model.NewJobError(model.KindCompositionFailure, nil, "audio track lost")
	}
	return model.NormalizedClip{
		Path:          path,
		Platform:      p.Name,
		DurationSec:   info.DurationSec,
		AudioDuration: info.AudioDuration,
		HasAudio:      src.HasAudio,
		Rate:          pol.Target,
		Resolution:    p.Canvas(),
	}, nil
}

// reconcileAudio pads or trims the audio to the video duration when the drift
// is small enough to correct, then verifies the result.
func (c *Composer) reconcileAudio(ctx context.Context, clip model.NormalizedClip, p model.PlatformProfile, workdir string, log *slog.Logger) (model.NormalizedClip, error) {
	drift := clip.SyncDrift()
	if drift <= p.SyncTolerance {
		return clip, nil
	}
	if drift > p.MaxAudioCorrection {
		return clip, model.NewJobError(model.KindSyncMismatchUnresolved, nil,
			"audio/video drift %.3fs exceeds correctable %.3fs", drift, p.MaxAudioCorrection)
	}

	log.Info("correcting audio drift", "drift", drift, "video", clip.DurationSec, "audio", clip.AudioDuration)
	out := filepath.Join(workdir, strings.TrimSuffix(filepath.Base(clip.Path), ".mov")+"_sync.mov")
	args := []string{
		"-y", "-hide_banner", "-nostdin", "-i", clip.Path,
		"-map", "0:v:0", "-map", "0:a:0",
		"-c:v", "copy",
		"-af", "apad,atrim=end=" + num(clip.DurationSec),
		"-c:a", "pcm_s16le", "-ar", fmt.Sprint(sampleRate(p)), "-ac", "2",
		out,
	}
	if res, err := c.run(ctx, args); err != nil {
		_ = util.RemoveIfExists(out)
		return clip, model.NewJobError(model.KindSyncMismatchUnresolved, err, "audio correction: %s", res.StderrTail(3))
	}
	info, err := c.Prober.Analyze(ctx, out)
	if err != nil {
		return clip, model.NewJobError(model.KindSyncMismatchUnresolved, err, "probe corrected clip")
	}
	_ = util.RemoveIfExists(clip.Path)

	clip.Path = out
	clip.DurationSec = info.DurationSec
	clip.AudioDuration = info.AudioDuration
	clip.AudioPadded = true
	if d := clip.SyncDrift(); d > p.SyncTolerance {
		return clip, model.NewJobError(model.KindSyncMismatchUnresolved, nil, "drift %.3fs remains after correction", d)
	}
	return clip, nil
}

func (c *Composer) run(ctx context.Context, args []string) (util.CmdResult, error) {
	runner := c.Runner
	if runner == nil {
		runner = util.NewDefaultRunner()
	}
	return runner.Run(ctx, util.CmdSpec{
		Path:    c.FFmpegPath,
		Args:    args,
		Verbose: c.Verbose,
		Logger:  c.logger(),
	})
}

func (c *Composer) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

func sampleRate(p model.PlatformProfile) int {
	if p.AudioSampleRate > 0 {
		return p.AudioSampleRate
	}
	return 44100
}
