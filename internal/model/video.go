package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FrameRate is a rational frames-per-second value (e.g. 30000/1001).
type FrameRate struct {
	Num int
	Den int
}

// FPS returns the rate as a float; 0 when the denominator is zero.
func (r FrameRate) FPS() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// IsZero reports whether the rate is unset.
func (r FrameRate) IsZero() bool {
	return r.Num == 0 || r.Den == 0
}

// String renders the rate in ffmpeg's "num/den" form, collapsing integer rates.
func (r FrameRate) String() string {
	if r.Den == 1 {
		return strconv.Itoa(r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// KeyframeInterval is one keyframe per second of output: round(fps) frames.
func (r FrameRate) KeyframeInterval() int {
	k := int(math.Round(r.FPS()))
	if k < 1 {
		return 1
	}
	return k
}

// RateFromFloat approximates fps as a rational with millihertz precision.
func RateFromFloat(fps float64) FrameRate {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return FrameRate{}
	}
	if math.Abs(fps-math.Round(fps)) < 1e-9 {
		return FrameRate{Num: int(math.Round(fps)), Den: 1}
	}
	return FrameRate{Num: int(math.Round(fps * 1000)), Den: 1000}
}

// ParseFrameRate parses ffprobe's "num/den" notation or a plain decimal.
func ParseFrameRate(s string) FrameRate {
	s = strings.TrimSpace(s)
	if s == "" {
		return FrameRate{}
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.Atoi(strings.TrimSpace(num))
		d, err2 := strconv.Atoi(strings.TrimSpace(den))
		if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
			return FrameRate{}
		}
		return FrameRate{Num: n, Den: d}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return FrameRate{}
	}
	return RateFromFloat(f)
}

// Resolution is a pixel size.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// SourceVideo describes an analyzed input. It is created once per source and
// never mutated.
type SourceVideo struct {
	Path          string
	DurationSec   float64
	NominalRate   FrameRate // reported r_frame_rate
	AverageFPS    float64   // frames / duration
	FrameCount    int64
	ConstantRate  bool
	Resolution    Resolution
	HasAudio      bool
	AudioDuration float64
	AudioCodec    string
	VideoCodec    string
	SizeBytes     int64
}

// NormalizedClip is the per-job intermediate after frame-rate normalization and
// composition. It is owned by a single job and deleted when the job ends.
type NormalizedClip struct {
	Path          string
	Platform      string
	DurationSec   float64 // video stream duration
	AudioDuration float64
	HasAudio      bool
	Rate          FrameRate
	Resolution    Resolution
	AudioPadded   bool // audio was padded or trimmed to match video
}

// SyncDrift returns |video - audio| duration; 0 for clips without audio.
func (c NormalizedClip) SyncDrift() float64 {
	if !c.HasAudio {
		return 0
	}
	return math.Abs(c.DurationSec - c.AudioDuration)
}

// EncodeParams is the fully specified parameter set for one encoder invocation.
type EncodeParams struct {
	Resolution      Resolution
	Rate            FrameRate
	VideoBitrate    int64 // bits/s
	MaxRate         int64 // bits/s; 0 derives from VideoBitrate
	AudioBitrate    int64 // bits/s; ignored without audio
	AudioSampleRate int
	HasAudio        bool
	Preset          string
	Profile         string
	Level           string
	RefFrames       int
	BFrames         int
	Threads         int
	IncludeProgress bool
}

// OutputVideo captures encoding results.
type OutputVideo struct {
	OutputPath   string
	Bytes        int64
	VideoBitrate int64
	Resolution   Resolution
	Rate         FrameRate
}
