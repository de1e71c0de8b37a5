// Package pipeline runs the per-source workflow: analyze once, then for every
// platform profile normalize, compose and drive the encode/verify loop.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"reelfit/internal/compose"
	"reelfit/internal/encoder"
	"reelfit/internal/framerate"
	"reelfit/internal/metrics"
	"reelfit/internal/model"
	"reelfit/internal/probe"
	"reelfit/internal/progress"
	"reelfit/internal/util"
	"reelfit/internal/util/format"
)

// Target is one (profile, output) pair for a source.
type Target struct {
	JobID      string
	Profile    model.PlatformProfile
	OutputPath string
}

// Service orchestrates analyze → normalize → compose → encode/verify.
type Service struct {
	ffmpegPath  string
	ffprobePath string
	runner      util.CmdRunner
	reporter    progress.Reporter
	logger      *slog.Logger
	cta         compose.CTA
	overlay     compose.Overlay
	keepTemp    bool
	verbose     bool
	workBase    string
	encoder     Encoder
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithFFmpegPath sets the ffmpeg binary path.
func WithFFmpegPath(p string) Option {
	return func(s *Service) {
		s.ffmpegPath = p
	}
}

// WithFFprobePath sets the ffprobe binary path.
func WithFFprobePath(p string) Option {
	return func(s *Service) {
		s.ffprobePath = p
	}
}

// WithRunner injects a custom command runner (useful for testing).
func WithRunner(r util.CmdRunner) Option {
	return func(s *Service) {
		s.runner = r
	}
}

// WithReporter attaches a progress reporter (used by TUI).
func WithReporter(rp progress.Reporter) Option {
	return func(s *Service) {
		s.reporter = rp
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithCTA sets the text overlay burned into every output.
func WithCTA(c compose.CTA) Option {
	return func(s *Service) {
		s.cta = c
	}
}

// WithOverlay sets the image overlay composited into every output.
func WithOverlay(o compose.Overlay) Option {
	return func(s *Service) {
		s.overlay = o
	}
}

// WithKeepTemp keeps per-job work directories.
func WithKeepTemp(keep bool) Option {
	return func(s *Service) {
		s.keepTemp = keep
	}
}

// WithVerbose mirrors subprocess output to the logger and reporter.
func WithVerbose(v bool) Option {
	return func(s *Service) {
		s.verbose = v
	}
}

// WithWorkDir sets the parent of per-job work directories.
func WithWorkDir(dir string) Option {
	return func(s *Service) {
		s.workBase = dir
	}
}

// WithEncoder replaces the ffmpeg-backed encoder.
func WithEncoder(e Encoder) Option {
	return func(s *Service) {
		s.encoder = e
	}
}

// WithClock overrides the time source for outcome timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService constructs a new Service with the provided options.
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, o := range opts {
		o(s)
	}
	if s.runner == nil {
		s.runner = util.NewDefaultRunner()
	}
	if s.reporter == nil {
		s.reporter = progress.Nop{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *Service) analyzer() *probe.Analyzer {
	return probe.NewAnalyzer(s.ffprobePath, s.runner, s.logger)
}

// RunSource analyzes path once and runs one job per target. Jobs are
// independent: a failure in one never affects another. Cancelling ctx stops
// jobs that have not started; a running job completes.
func (s *Service) RunSource(ctx context.Context, path string, targets []Target) []model.Outcome {
	outcomes := make([]model.Outcome, 0, len(targets))
	if ctx.Err() != nil {
		for _, t := range targets {
			o := s.newOutcome(path, t)
			o.Fail(model.NewJobError(model.KindCanceled, ctx.Err(), "not started"))
			outcomes = append(outcomes, s.finish(o))
		}
		return outcomes
	}
	for _, t := range targets {
		s.reporter.Update(progress.Update{JobID: t.JobID, Stage: progress.StageAnalyzing, Percent: -1, Message: "Analyzing"})
	}

	src, err := s.analyzer().Analyze(ctx, path)
	if err != nil {
		s.logger.Warn("source rejected", "source", path, "error", err)
		for _, t := range targets {
			o := s.newOutcome(path, t)
			o.Fail(err)
			outcomes = append(outcomes, s.finish(o))
		}
		return outcomes
	}

	for _, t := range targets {
		if ctx.Err() != nil {
			o := s.newOutcome(path, t)
			o.VFRSource = !src.ConstantRate
			o.Fail(model.NewJobError(model.KindCanceled, ctx.Err(), "not started"))
			outcomes = append(outcomes, s.finish(o))
			continue
		}
		outcomes = append(outcomes, s.RunJob(ctx, src, t))
	}
	return outcomes
}

// RunJob executes one (source, profile) job. It never prints; the returned
// outcome is complete whether the job succeeded or failed.
func (s *Service) RunJob(ctx context.Context, src model.SourceVideo, t Target) model.Outcome {
	p := t.Profile
	o := s.newOutcome(src.Path, t)
	o.VFRSource = !src.ConstantRate
	log := s.logger.With("job", t.JobID, "source", filepath.Base(src.Path), "platform", p.Name)

	metrics.ActiveJobs.Inc()
	defer metrics.ActiveJobs.Dec()

	if p.MinDurationSec > 0 && src.DurationSec < p.MinDurationSec {
		o.Fail(model.NewJobError(model.KindDurationOutOfRange, nil,
			"%.2fs is shorter than the %.2fs minimum", src.DurationSec, p.MinDurationSec))
		return s.finish(o)
	}

	workdir, err := util.MakeTempWorkdir(s.workBase, "job-"+util.SanitizeFilename(p.Name))
	if err != nil {
		o.Fail(fmt.Errorf("create workdir: %w", err))
		return s.finish(o)
	}
	defer func() {
		if s.keepTemp {
			log.Info("kept work directory", "dir", workdir)
			return
		}
		_ = os.RemoveAll(workdir)
	}()

	// Subprocesses are not preemptible once a job has started.
	runCtx := context.WithoutCancel(ctx)

	policy := framerate.Normalize(src, p)
	log.Debug("frame rate policy", "policy", policy.String())
	s.reporter.Update(progress.Update{JobID: t.JobID, Stage: progress.StageComposing, Percent: -1,
		Message: fmt.Sprintf("Composing %s @ %s fps", p.Canvas(), policy.Target)})

	composer := &compose.Composer{
		FFmpegPath: s.ffmpegPath,
		Runner:     s.runner,
		Prober:     s.analyzer(),
		Logger:     log,
		CTA:        s.cta,
		Overlay:    s.overlay,
		Verbose:    s.verbose,
	}
	clip, err := composer.Compose(runCtx, src, p, policy, workdir)
	if err != nil {
		o.Fail(err)
		return s.finish(o)
	}

	enc := s.encoder
	if enc == nil {
		enc = &ffmpegEncoder{s: s, jobID: t.JobID, log: log}
	}
	ctrl := &Controller{
		Encoder: enc,
		Logger:  log,
		Observe: func(st State, attempt int) {
			switch st {
			case StateVerifying:
				s.reporter.Update(progress.Update{JobID: t.JobID, Stage: progress.StageVerifying, Percent: -1, Attempt: attempt,
					Message: fmt.Sprintf("Verifying size (attempt %d)", attempt)})
			case StateRetrying:
				s.reporter.Update(progress.Update{JobID: t.JobID, Stage: progress.StageEncoding, Percent: -1, Attempt: attempt,
					Message: "Over size ceiling, retrying"})
			}
		},
	}
	rep := ctrl.Run(runCtx, clip, p, t.OutputPath)

	o.Attempts = len(rep.Attempts)
	o.AttemptLog = rep.Attempts
	o.Width = clip.Resolution.Width
	o.Height = clip.Resolution.Height
	o.DurationSec = clip.DurationSec
	o.FPS = clip.Rate.String()
	if last, ok := rep.LastAttempt(); ok {
		o.Bitrate = last.Bitrate
		o.SizeBytes = last.SizeBytes
	}
	if rep.Err != nil {
		o.Fail(rep.Err)
		return s.finish(o)
	}
	o.Verdict = model.VerdictDone
	o.Output = rep.Final.OutputPath
	return s.finish(o)
}

func (s *Service) newOutcome(path string, t Target) model.Outcome {
	return model.Outcome{
		JobID:    t.JobID,
		Source:   path,
		Platform: t.Profile.Name,
	}
}

// finish stamps the outcome, records metrics and emits the final events.
func (s *Service) finish(o model.Outcome) model.Outcome {
	o.FinishedAt = s.now().UTC()
	metrics.JobsTotal.WithLabelValues(o.Platform, string(o.Verdict)).Inc()

	if o.OK() {
		metrics.OutputBytes.WithLabelValues(o.Platform).Set(float64(o.SizeBytes))
		s.reporter.Update(progress.Update{
			JobID:   o.JobID,
			Stage:   progress.StageCompleted,
			Percent: 100,
			Attempt: o.Attempts,
			Bitrate: o.Bitrate,
			Message: fmt.Sprintf("Saved: %s (%s, %d attempt(s))", filepath.Base(o.Output), format.HumanizeBytes(o.SizeBytes), o.Attempts),
		})
		s.reporter.Result(progress.Result{JobID: o.JobID, OutputPath: o.Output, Bytes: o.SizeBytes, Attempts: o.Attempts, Bitrate: o.Bitrate})
		return o
	}

	s.reporter.Update(progress.Update{JobID: o.JobID, Stage: progress.StageError, Percent: -1, Message: o.Detail})
	s.reporter.Result(progress.Result{JobID: o.JobID, Attempts: o.Attempts, Bitrate: o.Bitrate, Err: errors.New(o.Detail)})
	return o
}

// ffmpegEncoder adapts encoder.Encode to the controller.
type ffmpegEncoder struct {
	s     *Service
	jobID string
	log   *slog.Logger
}

func (e *ffmpegEncoder) Encode(ctx context.Context, clip model.NormalizedClip, params model.EncodeParams, outPath string, attempt int) (model.OutputVideo, error) {
	e.s.reporter.Update(progress.Update{
		JobID:   e.jobID,
		Stage:   progress.StageEncoding,
		Percent: 0,
		Attempt: attempt,
		Bitrate: params.VideoBitrate,
		Message: fmt.Sprintf("Encoding at %s (attempt %d)", format.HumanizeBitrate(params.VideoBitrate), attempt),
	})
	return encoder.Encode(ctx, clip, params, encoder.Options{
		FFmpegPath: e.s.ffmpegPath,
		Verbose:    e.s.verbose,
		OutputPath: outPath,
		Runner:     e.s.runner,
		Reporter:   e.s.reporter,
		JobID:      e.jobID,
		Label:      fmt.Sprintf("Encoding (attempt %d)", attempt),
		Logger:     e.log,
	})
}
