package model

import (
	"errors"
	"fmt"
)

// MiB is one binary megabyte.
const MiB int64 = 1024 * 1024

// PlatformProfile is the immutable constraint set for one target platform.
// Field tags allow overriding profiles from the config file and exporting
// them as TOML.
type PlatformProfile struct {
	Name string `mapstructure:"name" toml:"-"`

	Width          int     `mapstructure:"width" toml:"width"`
	Height         int     `mapstructure:"height" toml:"height"`
	MaxFPS         float64 `mapstructure:"max_fps" toml:"max_fps"` // 0 = no cap
	MinDurationSec float64 `mapstructure:"min_duration_sec" toml:"min_duration_sec"`
	MaxDurationSec float64 `mapstructure:"max_duration_sec" toml:"max_duration_sec"` // 0 = unbounded

	SizeCeilingBytes int64 `mapstructure:"size_ceiling_bytes" toml:"size_ceiling_bytes"`
	MinBitrate       int64 `mapstructure:"min_bitrate" toml:"min_bitrate"` // bits/s, soft floor on the first attempt
	MaxBitrate       int64 `mapstructure:"max_bitrate" toml:"max_bitrate"`
	AbsoluteFloor    int64 `mapstructure:"absolute_floor_bitrate" toml:"absolute_floor_bitrate"`
	AudioBitrate     int64 `mapstructure:"audio_bitrate" toml:"audio_bitrate"`
	AudioSampleRate  int   `mapstructure:"audio_sample_rate" toml:"audio_sample_rate"`

	SizeMargin      float64 `mapstructure:"size_margin" toml:"size_margin"`             // fraction reserved below the ceiling
	RetryMarginStep float64 `mapstructure:"retry_margin_step" toml:"retry_margin_step"` // added to the margin per retry
	MaxAttempts     int     `mapstructure:"max_attempts" toml:"max_attempts"`

	FPSSnapTolerance   float64 `mapstructure:"fps_snap_tolerance" toml:"fps_snap_tolerance"`
	MaxUpscale         float64 `mapstructure:"max_upscale" toml:"max_upscale"`
	SyncTolerance      float64 `mapstructure:"sync_tolerance_sec" toml:"sync_tolerance_sec"`
	MaxAudioCorrection float64 `mapstructure:"max_audio_correction_sec" toml:"max_audio_correction_sec"`

	VideoCodec string `mapstructure:"video_codec" toml:"video_codec"`
	Preset     string `mapstructure:"preset" toml:"preset"`
	Profile    string `mapstructure:"profile" toml:"profile"`
	Level      string `mapstructure:"level" toml:"level"`
	RefFrames  int    `mapstructure:"ref_frames" toml:"ref_frames"`
	BFrames    int    `mapstructure:"b_frames" toml:"b_frames"`
}

// Canvas returns the target resolution.
func (p PlatformProfile) Canvas() Resolution {
	return Resolution{Width: p.Width, Height: p.Height}
}

// AspectRatio returns width/height of the target canvas.
func (p PlatformProfile) AspectRatio() float64 {
	if p.Height == 0 {
		return 0
	}
	return float64(p.Width) / float64(p.Height)
}

// Validate checks that the profile is internally consistent.
func (p PlatformProfile) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.Width <= 0 || p.Height <= 0 || p.Width%2 != 0 || p.Height%2 != 0 {
		errs = append(errs, fmt.Errorf("canvas %dx%d must be positive and even", p.Width, p.Height))
	}
	if p.SizeCeilingBytes <= 0 {
		errs = append(errs, errors.New("size ceiling must be positive"))
	}
	if p.MinBitrate <= 0 || p.MaxBitrate < p.MinBitrate {
		errs = append(errs, fmt.Errorf("bitrate range [%d, %d] is invalid", p.MinBitrate, p.MaxBitrate))
	}
	if p.AbsoluteFloor <= 0 || p.AbsoluteFloor > p.MinBitrate {
		errs = append(errs, fmt.Errorf("absolute floor %d must be in (0, min_bitrate]", p.AbsoluteFloor))
	}
	if p.AudioBitrate < 0 {
		errs = append(errs, errors.New("audio bitrate must not be negative"))
	}
	if p.SizeMargin < 0 || p.SizeMargin >= 1 {
		errs = append(errs, fmt.Errorf("size margin %.3f must be in [0, 1)", p.SizeMargin))
	}
	if p.RetryMarginStep <= 0 || p.SizeMargin+p.RetryMarginStep*float64(p.MaxAttempts-1) >= 1 {
		errs = append(errs, fmt.Errorf("retry margin step %.3f is invalid for %d attempts", p.RetryMarginStep, p.MaxAttempts))
	}
	if p.MaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be at least 1"))
	}
	if p.MaxDurationSec != 0 && p.MaxDurationSec < p.MinDurationSec {
		errs = append(errs, fmt.Errorf("duration range [%.1f, %.1f] is invalid", p.MinDurationSec, p.MaxDurationSec))
	}
	if p.MaxUpscale < 1 {
		errs = append(errs, errors.New("max upscale must be >= 1"))
	}
	if p.SyncTolerance <= 0 || p.MaxAudioCorrection < p.SyncTolerance {
		errs = append(errs, errors.New("sync tolerance must be positive and not exceed max audio correction"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("profile %q: %w", p.Name, errors.Join(errs...))
}
