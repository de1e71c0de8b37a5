package pipeline

import (
	"context"

	"github.com/google/uuid"

	"reelfit/internal/compose"
	"reelfit/internal/framerate"
	"reelfit/internal/model"
	"reelfit/internal/util/bitrate"
)

// Targets builds one target per profile, each with a fresh job ID.
func Targets(profiles []model.PlatformProfile, outputFor func(model.PlatformProfile) string) []Target {
	out := make([]Target, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, Target{JobID: uuid.NewString(), Profile: p, OutputPath: outputFor(p)})
	}
	return out
}

// Plan is the dry-run view of a job: what would be encoded, without running
// ffmpeg.
type Plan struct {
	JobID          string
	Source         model.SourceVideo
	Profile        model.PlatformProfile
	OutputPath     string
	Policy         framerate.Policy
	DurationSec    float64 // after trimming to the profile maximum
	Bitrate        int64   // first-attempt video bitrate
	EstimatedBytes int64
	Err            error // job would fail before encoding
}

// Fits reports whether the estimated size is within the ceiling.
func (p Plan) Fits() bool {
	return p.Err == nil && p.EstimatedBytes <= p.Profile.SizeCeilingBytes
}

// PlanSource analyzes path and solves the first attempt for every target.
func (s *Service) PlanSource(ctx context.Context, path string, targets []Target) ([]Plan, error) {
	src, err := s.analyzer().Analyze(ctx, path)
	if err != nil {
		return nil, err
	}
	plans := make([]Plan, 0, len(targets))
	for _, t := range targets {
		plans = append(plans, PlanJob(src, t))
	}
	return plans, nil
}

// PlanJob derives the plan for one target from an analyzed source.
func PlanJob(src model.SourceVideo, t Target) Plan {
	p := t.Profile
	pl := Plan{
		JobID:      t.JobID,
		Source:     src,
		Profile:    p,
		OutputPath: t.OutputPath,
		Policy:     framerate.Normalize(src, p),
	}
	if p.MinDurationSec > 0 && src.DurationSec < p.MinDurationSec {
		pl.Err = model.NewJobError(model.KindDurationOutOfRange, nil,
			"%.2fs is shorter than the %.2fs minimum", src.DurationSec, p.MinDurationSec)
		return pl
	}
	if err := compose.CheckResolution(src.Resolution, p); err != nil {
		pl.Err = err
		return pl
	}
	pl.DurationSec = compose.TargetDuration(src, p)
	pl.Bitrate = bitrate.Solve(pl.DurationSec, p, p.SizeMargin, src.HasAudio, false)
	audio := int64(0)
	if src.HasAudio {
		audio = p.AudioBitrate
	}
	pl.EstimatedBytes = bitrate.EstimateBytes(pl.DurationSec, pl.Bitrate, audio)
	return pl
}
