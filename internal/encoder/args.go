package encoder

import (
	"fmt"
	"runtime"
	"strconv"

	"reelfit/internal/model"
	"reelfit/internal/util/bitrate"
)

// MaxThreads bounds the encoder's internal worker threads.
const MaxThreads = 8

// BuildVideoArgs constructs ffmpeg arguments for the final encode of clip.
// The output path is always the last argument.
func BuildVideoArgs(clip model.NormalizedClip, p model.EncodeParams, outputPath string) []string {
	keyint := strconv.Itoa(p.Rate.KeyframeInterval())
	maxRate := p.MaxRate
	if maxRate <= 0 {
		maxRate = p.VideoBitrate
	}

	args := []string{
		"-y", "-hide_banner", "-nostdin",
		"-i", clip.Path,
		"-map", "0:v:0",
	}
	if p.HasAudio {
		args = append(args, "-map", "0:a:0")
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", valueOr(p.Preset, "medium"),
		"-profile:v", valueOr(p.Profile, "high"),
	)
	if p.Level != "" {
		args = append(args, "-level:v", p.Level)
	}
	args = append(args,
		"-pix_fmt", "yuv420p",
		"-s", fmt.Sprintf("%dx%d", p.Resolution.Width, p.Resolution.Height),
		"-b:v", strconv.FormatInt(p.VideoBitrate, 10),
		"-maxrate", strconv.FormatInt(maxRate, 10),
		"-bufsize", strconv.FormatInt(2*maxRate, 10),
		"-r", p.Rate.String(),
		"-fps_mode", "cfr",
		"-g", keyint, "-keyint_min", keyint,
		"-sc_threshold", "0",
		"-bf", strconv.Itoa(p.BFrames),
		"-refs", strconv.Itoa(nonZero(p.RefFrames, 3)),
		"-threads", strconv.Itoa(threads(p.Threads)),
	)

	if p.HasAudio {
		args = append(args,
			"-c:a", "aac",
			"-b:a", strconv.FormatInt(bitrate.SafeAudioBitrate(p.AudioBitrate), 10),
			"-ar", strconv.Itoa(nonZero(p.AudioSampleRate, 44100)),
			"-ac", "2",
		)
	} else {
		args = append(args, "-an")
	}

	args = append(args, "-movflags", "+faststart")
	if p.IncludeProgress {
		args = append(args, "-progress", "pipe:1", "-nostats")
	}
	return append(args, outputPath)
}

// threads clamps the requested thread count to [1, MaxThreads]; 0 uses the
// CPU count.
func threads(n int) int {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > MaxThreads {
		return MaxThreads
	}
	if n < 1 {
		return 1
	}
	return n
}

func valueOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func nonZero(v int, def int) int {
	if v == 0 {
		return def
	}
	return v
}
