// Package bitrate solves for the video bitrate that keeps an encode under a
// platform's size ceiling.
package bitrate

import (
	"math"

	"reelfit/internal/model"
)

// ComputeVideoBitrate returns the video bitrate (bits/s) that fits
// ceilingBytes*(1-margin) over durationSec after reserving audioBps,
// clamped to [minBps, maxBps].
func ComputeVideoBitrate(ceilingBytes int64, margin, durationSec float64, audioBps, minBps, maxBps int64) int64 {
	if durationSec <= 0 {
		return maxBps
	}
	return Clamp(Unclamped(ceilingBytes, margin, durationSec, audioBps), minBps, maxBps)
}

// Unclamped is the raw size formula without policy bounds. It may be negative
// when the audio alone exceeds the byte budget.
func Unclamped(ceilingBytes int64, margin, durationSec float64, audioBps int64) int64 {
	targetBytes := TargetBytes(ceilingBytes, margin)
	totalBps := float64(targetBytes) * 8 / durationSec
	return int64(math.Floor(totalBps)) - audioBps
}

// TargetBytes applies the size margin to the ceiling.
func TargetBytes(ceilingBytes int64, margin float64) int64 {
	return int64(math.Round(float64(ceilingBytes) * (1 - margin)))
}

// Solve computes the bitrate for one attempt. The first attempt treats
// MinBitrate as the floor; a relaxed (retry) attempt may drop to
// AbsoluteFloor. Sources without audio do not reserve audio bits.
func Solve(durationSec float64, p model.PlatformProfile, margin float64, hasAudio, relaxed bool) int64 {
	audio := int64(0)
	if hasAudio {
		audio = p.AudioBitrate
	}
	floor := p.MinBitrate
	if relaxed {
		floor = p.AbsoluteFloor
	}
	return ComputeVideoBitrate(p.SizeCeilingBytes, margin, durationSec, audio, floor, p.MaxBitrate)
}

// EstimateBytes predicts the container size for the given bitrates.
func EstimateBytes(durationSec float64, videoBps, audioBps int64) int64 {
	if durationSec <= 0 {
		return 0
	}
	return int64(math.Ceil(float64(videoBps+audioBps) * durationSec / 8))
}

// Clamp returns v constrained to [min, max].
func Clamp(v, min, max int64) int64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// SafeAudioBitrate keeps AAC bitrates within what encoders accept.
func SafeAudioBitrate(v int64) int64 {
	if v <= 0 {
		return 96_000
	}
	if v < 32_000 {
		return 32_000
	}
	if v > 320_000 {
		return 320_000
	}
	return v
}
