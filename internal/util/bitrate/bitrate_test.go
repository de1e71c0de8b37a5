package bitrate

import (
	"testing"

	"reelfit/internal/model"
)

func scenarioProfile() model.PlatformProfile {
	return model.PlatformProfile{
		Name:             "scenario",
		SizeCeilingBytes: 100 * model.MiB,
		MinBitrate:       2_500_000,
		MaxBitrate:       8_000_000,
		AbsoluteFloor:    800_000,
		AudioBitrate:     192_000,
		SizeMargin:       0.05,
		RetryMarginStep:  0.05,
		MaxAttempts:      2,
	}
}

func TestComputeVideoBitrate(t *testing.T) {
	tests := []struct {
		name        string
		ceiling     int64
		margin      float64
		durationSec float64
		audioBps    int64
		minBps      int64
		maxBps      int64
		want        int64
	}{
		{
			name:        "unclamped 50MB for 60s",
			ceiling:     50 * model.MiB,
			margin:      0,
			durationSec: 60,
			audioBps:    128_000,
			minBps:      500_000,
			maxBps:      10_000_000,
			want:        6_862_506, // floor(50*1048576*8/60) - 128000
		},
		{
			name:        "zero duration returns max",
			ceiling:     50 * model.MiB,
			durationSec: 0,
			audioBps:    128_000,
			minBps:      500_000,
			maxBps:      5_000_000,
			want:        5_000_000,
		},
		{
			name:        "negative duration returns max",
			ceiling:     50 * model.MiB,
			durationSec: -1,
			minBps:      500_000,
			maxBps:      5_000_000,
			want:        5_000_000,
		},
		{
			name:        "below min clamps to min",
			ceiling:     1 * model.MiB,
			durationSec: 120,
			audioBps:    128_000,
			minBps:      500_000,
			maxBps:      5_000_000,
			want:        500_000,
		},
		{
			name:        "audio larger than budget clamps to min",
			ceiling:     1 * model.MiB,
			durationSec: 600,
			audioBps:    320_000,
			minBps:      500_000,
			maxBps:      5_000_000,
			want:        500_000,
		},
		{
			name:        "margin reduces budget",
			ceiling:     100 * model.MiB,
			margin:      0.10,
			durationSec: 600,
			audioBps:    192_000,
			minBps:      800_000,
			maxBps:      8_000_000,
			want:        1_066_291, // floor(94371840*8/600) - 192000
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeVideoBitrate(tt.ceiling, tt.margin, tt.durationSec, tt.audioBps, tt.minBps, tt.maxBps)
			if got != tt.want {
				t.Errorf("ComputeVideoBitrate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSolve_Scenarios(t *testing.T) {
	p := scenarioProfile()
	tests := []struct {
		name     string
		duration float64
		margin   float64
		relaxed  bool
		want     int64
		maxBytes int64 // 0 skips the size check
	}{
		{name: "A: 30s clamps to max", duration: 30, margin: 0.05, want: 8_000_000, maxBytes: 31 * model.MiB},
		{name: "B: 300s clamps to min floor", duration: 300, margin: 0.05, want: 2_500_000, maxBytes: p.SizeCeilingBytes},
		{name: "C first attempt: 600s stays on soft floor", duration: 600, margin: 0.05, want: 2_500_000},
		{name: "C retry: relaxed floor at 10% margin", duration: 600, margin: 0.10, relaxed: true, want: 1_066_291, maxBytes: p.SizeCeilingBytes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Solve(tt.duration, p, tt.margin, true, tt.relaxed)
			if got != tt.want {
				t.Fatalf("Solve() = %d, want %d", got, tt.want)
			}
			if tt.maxBytes > 0 {
				est := EstimateBytes(tt.duration, got, p.AudioBitrate)
				if est > tt.maxBytes {
					t.Errorf("estimated size %d exceeds %d", est, tt.maxBytes)
				}
			}
		})
	}

	// Scenario C: the soft floor over 600s cannot fit under the ceiling.
	if est := EstimateBytes(600, 2_500_000, p.AudioBitrate); est <= p.SizeCeilingBytes {
		t.Errorf("scenario C first attempt estimate %d should exceed ceiling %d", est, p.SizeCeilingBytes)
	}
}

func TestSolve_BoundsProperty(t *testing.T) {
	p := scenarioProfile()
	for d := 0.5; d <= 3600; d *= 1.37 {
		got := Solve(d, p, p.SizeMargin, true, false)
		if got < p.MinBitrate || got > p.MaxBitrate {
			t.Fatalf("duration %.2f: bitrate %d outside [%d, %d]", d, got, p.MinBitrate, p.MaxBitrate)
		}
		// When the floor does not bind, the implied size respects the margin.
		if Unclamped(p.SizeCeilingBytes, p.SizeMargin, d, p.AudioBitrate) >= p.MinBitrate {
			implied := float64(got)*d/8 + float64(p.AudioBitrate)*d/8
			if implied > float64(TargetBytes(p.SizeCeilingBytes, p.SizeMargin)) {
				t.Fatalf("duration %.2f: implied size %.0f exceeds target", d, implied)
			}
		}
	}
}

func TestSolve_Monotonic(t *testing.T) {
	p := scenarioProfile()
	for _, relaxed := range []bool{false, true} {
		prev := Solve(0.1, p, p.SizeMargin, true, relaxed)
		for d := 0.2; d <= 7200; d += 7.3 {
			got := Solve(d, p, p.SizeMargin, true, relaxed)
			if got > prev {
				t.Fatalf("relaxed=%v: bitrate increased from %d to %d at %.1fs", relaxed, prev, got, d)
			}
			prev = got
		}
	}
}

func TestSolve_NoAudioDropsAudioTerm(t *testing.T) {
	p := scenarioProfile()
	withAudio := Solve(400, p, 0.10, true, true)
	without := Solve(400, p, 0.10, false, true)
	if without-withAudio != p.AudioBitrate {
		t.Errorf("no-audio bitrate %d should exceed audio bitrate %d by %d", without, withAudio, p.AudioBitrate)
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		v    int64
		min  int64
		max  int64
		want int64
	}{
		{name: "value in range", v: 50, min: 0, max: 100, want: 50},
		{name: "value below min", v: -10, min: 0, max: 100, want: 0},
		{name: "value above max", v: 150, min: 0, max: 100, want: 100},
		{name: "value equals min", v: 0, min: 0, max: 100, want: 0},
		{name: "single value range", v: 50, min: 42, max: 42, want: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.v, tt.min, tt.max)
			if got != tt.want {
				t.Errorf("Clamp(%d, %d, %d) = %v, want %v", tt.v, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestSafeAudioBitrate(t *testing.T) {
	tests := []struct {
		v    int64
		want int64
	}{
		{v: 0, want: 96_000},
		{v: -10, want: 96_000},
		{v: 16_000, want: 32_000},
		{v: 128_000, want: 128_000},
		{v: 512_000, want: 320_000},
	}
	for _, tt := range tests {
		if got := SafeAudioBitrate(tt.v); got != tt.want {
			t.Errorf("SafeAudioBitrate(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
}
