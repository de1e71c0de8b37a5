// Package framerate decides the constant output frame rate for a source.
package framerate

import (
	"fmt"
	"math"

	"reelfit/internal/model"
)

// Canonical rates a variable source may snap to.
var Canonical = []model.FrameRate{
	{Num: 24000, Den: 1001},
	{Num: 24, Den: 1},
	{Num: 25, Den: 1},
	{Num: 30000, Den: 1001},
	{Num: 30, Den: 1},
	{Num: 60, Den: 1},
}

// Policy is the constant frame rate chosen for one (source, profile) pair.
type Policy struct {
	Target   model.FrameRate
	Variable bool    // source had variable timing
	Measured float64 // source average fps
	Snapped  bool    // target came from the canonical set
	Capped   bool    // target was lowered to the profile cap
}

func (p Policy) String() string {
	s := p.Target.String()
	switch {
	case p.Capped:
		s += " (capped)"
	case p.Variable && p.Snapped:
		s += fmt.Sprintf(" (vfr %.3f snapped)", p.Measured)
	case p.Variable:
		s += fmt.Sprintf(" (vfr %.3f)", p.Measured)
	}
	return s
}

// Snap returns the canonical rate nearest to fps when it lies within tol,
// otherwise fps itself unrounded.
func Snap(fps, tol float64) (model.FrameRate, bool) {
	best := model.FrameRate{}
	bestDiff := math.Inf(1)
	for _, c := range Canonical {
		if d := math.Abs(c.FPS() - fps); d < bestDiff {
			best, bestDiff = c, d
		}
	}
	if bestDiff <= tol {
		return best, true
	}
	return model.RateFromFloat(fps), false
}

// Normalize picks the target rate: a constant source keeps its native rate,
// a variable one snaps its measured average. The profile cap applies last.
func Normalize(src model.SourceVideo, p model.PlatformProfile) Policy {
	pol := Policy{Variable: !src.ConstantRate, Measured: src.AverageFPS}
	if src.ConstantRate && !src.NominalRate.IsZero() {
		pol.Target = src.NominalRate
	} else {
		pol.Target, pol.Snapped = Snap(src.AverageFPS, p.FPSSnapTolerance)
	}

	if p.MaxFPS > 0 && pol.Target.FPS() > p.MaxFPS+1e-6 {
		pol.Target, _ = Snap(p.MaxFPS, 1e-3)
		pol.Capped = true
	}
	return pol
}

// Filter returns the duration-preserving ffmpeg fps filter for the policy.
// Frames are dropped or duplicated against the timeline, so playback time
// does not change.
func (p Policy) Filter() string {
	return fmt.Sprintf("fps=fps=%s:round=near", p.Target.String())
}
