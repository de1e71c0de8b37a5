package probe

import (
	"math"
	"sort"

	"reelfit/internal/model"
)

// DriftTolerance is the fps difference above which nominal and measured
// rates are considered inconsistent.
const DriftTolerance = 0.5

// Timing is the raw frame-timing evidence gathered for one video stream.
type Timing struct {
	Nominal    model.FrameRate // r_frame_rate
	Average    model.FrameRate // avg_frame_rate
	FrameCount int64
	Duration   float64
	PacketPTS  []float64 // optional sample, any order
}

// MeasuredFPS is frames/duration, falling back to the reported average.
func (t Timing) MeasuredFPS() float64 {
	if t.FrameCount > 0 && t.Duration > 0 {
		return float64(t.FrameCount) / t.Duration
	}
	return t.Average.FPS()
}

// IsVariable reports whether the stream has non-uniform frame timing.
func (t Timing) IsVariable() bool {
	nominal := t.Nominal.FPS()
	measured := t.MeasuredFPS()
	if nominal > 0 && measured > 0 && math.Abs(measured-nominal) > DriftTolerance {
		return true
	}
	if nominal > 0 && !t.Average.IsZero() && math.Abs(t.Average.FPS()-nominal) > DriftTolerance {
		return true
	}
	return InconsistentDeltas(t.PacketPTS)
}

// InconsistentDeltas reports whether more than 2% of inter-frame gaps in the
// sorted timestamps stray from the median gap by over half its length.
func InconsistentDeltas(pts []float64) bool {
	if len(pts) < 3 {
		return false
	}
	sorted := append([]float64(nil), pts...)
	sort.Float64s(sorted)

	deltas := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		if d := sorted[i] - sorted[i-1]; d > 0 {
			deltas = append(deltas, d)
		}
	}
	if len(deltas) < 2 {
		return false
	}
	byLen := append([]float64(nil), deltas...)
	sort.Float64s(byLen)
	median := byLen[len(byLen)/2]

	allowed := len(deltas) / 50
	if allowed < 1 {
		allowed = 1
	}
	outliers := 0
	for _, d := range deltas {
		if math.Abs(d-median) > median/2 && math.Abs(d-median) > 0.001 {
			outliers++
		}
	}
	return outliers > allowed
}
