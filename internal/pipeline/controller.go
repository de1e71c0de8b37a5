package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"reelfit/internal/metrics"
	"reelfit/internal/model"
	"reelfit/internal/util"
	"reelfit/internal/util/bitrate"
)

// State is a step of the encode/verify loop.
type State string

const (
	StatePlanning  State = "planning"
	StateEncoding  State = "encoding"
	StateVerifying State = "verifying"
	StateRetrying  State = "retrying"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Encoder produces one output file per call.
type Encoder interface {
	Encode(ctx context.Context, clip model.NormalizedClip, params model.EncodeParams, outPath string, attempt int) (model.OutputVideo, error)
}

// Report is the controller's result for one job.
type Report struct {
	State       State
	Attempts    []model.EncodeAttempt
	Transitions []State
	Final       model.OutputVideo // last produced output; zero when nothing was kept
	Err         error             // nil when State is StateDone
}

func (r *Report) enter(s State) {
	r.State = s
	r.Transitions = append(r.Transitions, s)
}

// LastAttempt returns the most recent attempt, if any.
func (r Report) LastAttempt() (model.EncodeAttempt, bool) {
	if len(r.Attempts) == 0 {
		return model.EncodeAttempt{}, false
	}
	return r.Attempts[len(r.Attempts)-1], true
}

// Controller drives Planning → Encoding → Verifying → Done/Retrying/Failed for
// one clip and one profile.
type Controller struct {
	Encoder Encoder
	Logger  *slog.Logger
	// Observe is called on every state entry; optional.
	Observe func(s State, attempt int)
}

// Params builds the encoder parameter set for clip at videoBps.
func Params(clip model.NormalizedClip, p model.PlatformProfile, videoBps int64) model.EncodeParams {
	return model.EncodeParams{
		Resolution:      clip.Resolution,
		Rate:            clip.Rate,
		VideoBitrate:    videoBps,
		AudioBitrate:    p.AudioBitrate,
		AudioSampleRate: p.AudioSampleRate,
		HasAudio:        clip.HasAudio,
		Preset:          p.Preset,
		Profile:         p.Profile,
		Level:           p.Level,
		RefFrames:       p.RefFrames,
		BFrames:         p.BFrames,
	}
}

// Run encodes clip to outPath until the output fits the profile's size
// ceiling or the attempt budget is exhausted. An oversized output is removed
// before a failed report is returned.
func (c *Controller) Run(ctx context.Context, clip model.NormalizedClip, p model.PlatformProfile, outPath string) Report {
	log := c.logger().With("platform", p.Name, "output", outPath)
	rep := Report{}
	if c.Encoder == nil {
		return c.fail(&rep, fmt.Errorf("no encoder configured"), 0)
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	margin := p.SizeMargin
	relaxed := false
	var prev int64
	for attempt := 1; ; attempt++ {
		c.transition(&rep, StatePlanning, attempt)
		videoBps := bitrate.Solve(clip.DurationSec, p, margin, clip.HasAudio, relaxed)
		if attempt > 1 && videoBps >= prev {
			_ = util.RemoveIfExists(outPath)
			return c.fail(&rep, model.NewJobError(model.KindSizeLimitExceeded, nil,
				"bitrate cannot drop below %d bps at margin %.2f", prev, margin), attempt)
		}
		log.Debug("planned attempt", "attempt", attempt, "bitrate", videoBps, "margin", margin, "relaxed", relaxed)

		c.transition(&rep, StateEncoding, attempt)
		metrics.EncodeAttempts.WithLabelValues(p.Name).Inc()
		started := time.Now()
		out, err := c.Encoder.Encode(ctx, clip, Params(clip, p, videoBps), outPath, attempt)
		metrics.EncodeDuration.Observe(time.Since(started).Seconds())
		if err != nil {
			rep.Attempts = append(rep.Attempts, model.EncodeAttempt{Index: attempt, Bitrate: videoBps, Margin: margin, Relaxed: relaxed})
			return c.fail(&rep, model.NewJobError(model.KindEncodeFailure, err, "attempt %d", attempt), attempt)
		}

		c.transition(&rep, StateVerifying, attempt)
		size, err := measure(outPath)
		if err != nil {
			return c.fail(&rep, model.NewJobError(model.KindEncodeFailure, err, "measure output"), attempt)
		}
		out.Bytes = size
		a := model.EncodeAttempt{
			Index:     attempt,
			Bitrate:   videoBps,
			Margin:    margin,
			Relaxed:   relaxed,
			SizeBytes: size,
			Passed:    size <= p.SizeCeilingBytes,
		}
		rep.Attempts = append(rep.Attempts, a)
		log.Info("verified attempt", "attempt", attempt, "bitrate", videoBps, "size", size, "ceiling", p.SizeCeilingBytes, "passed", a.Passed)

		if a.Passed {
			rep.Final = out
			c.transition(&rep, StateDone, attempt)
			return rep
		}
		if attempt >= maxAttempts {
			_ = util.RemoveIfExists(outPath)
			return c.fail(&rep, model.NewJobError(model.KindSizeLimitExceeded, nil,
				"%d bytes exceeds ceiling %d after %d attempts", size, p.SizeCeilingBytes, attempt), attempt)
		}

		c.transition(&rep, StateRetrying, attempt)
		metrics.Retries.WithLabelValues(p.Name).Inc()
		margin += p.RetryMarginStep
		relaxed = true
		prev = videoBps
	}
}

func (c *Controller) fail(rep *Report, err error, attempt int) Report {
	rep.Err = err
	c.transition(rep, StateFailed, attempt)
	return *rep
}

func (c *Controller) transition(rep *Report, s State, attempt int) {
	rep.enter(s)
	if c.Observe != nil {
		c.Observe(s, attempt)
	}
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

func measure(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
