package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"reelfit/internal/util"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	RFrameRate    string `json:"r_frame_rate"`
	AvgFrameRate  string `json:"avg_frame_rate"`
	Duration      string `json:"duration"`
	NBFrames      string `json:"nb_frames"`
	NBReadPackets string `json:"nb_read_packets"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`

	Tags map[string]string `json:"tags,omitempty"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
	FormatName string `json:"format_name"`
}

// Inspect runs ffprobe with packet counting and decodes the JSON response.
func Inspect(ctx context.Context, runner util.CmdRunner, binary, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	res, err := runner.Run(ctx, util.CmdSpec{
		Path: binary,
		Args: []string{
			"-v", "error", "-hide_banner",
			"-count_packets",
			"-show_format", "-show_streams",
			"-of", "json",
			"--", path,
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, res.StderrTail(3))
	}

	var result Result
	if err := json.Unmarshal(res.Stdout, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// PacketTimes returns the presentation timestamps of the first window seconds
// of the first video stream, in packet order.
func PacketTimes(ctx context.Context, runner util.CmdRunner, binary, path string, window float64) ([]float64, error) {
	if binary == "" {
		binary = "ffprobe"
	}
	res, err := runner.Run(ctx, util.CmdSpec{
		Path: binary,
		Args: []string{
			"-v", "error",
			"-select_streams", "v:0",
			"-read_intervals", fmt.Sprintf("%%+%s", strconv.FormatFloat(window, 'f', -1, 64)),
			"-show_entries", "packet=pts_time",
			"-of", "csv=p=0",
			"--", path,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ffprobe packets: %w: %s", err, res.StderrTail(3))
	}
	var out []float64
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ","))
		if line == "" || line == "N/A" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// VideoStream returns the first video stream.
func (r Result) VideoStream() (Stream, bool) {
	return r.firstOf("video")
}

// AudioStream returns the first audio stream.
func (r Result) AudioStream() (Stream, bool) {
	return r.firstOf("audio")
}

func (r Result) firstOf(kind string) (Stream, bool) {
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, kind) {
			return s, true
		}
	}
	return Stream{}, false
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return positive(parseFloat(r.Format.Duration))
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

// DurationSeconds returns the stream duration, or 0 when unavailable.
// Matroska only reports per-stream durations as a DURATION tag.
func (s Stream) DurationSeconds() float64 {
	if d := positive(parseFloat(s.Duration)); d > 0 {
		return d
	}
	for k, v := range s.Tags {
		if strings.EqualFold(k, "DURATION") {
			return parseClock(v)
		}
	}
	return 0
}

// parseClock parses "HH:MM:SS.fraction".
func parseClock(v string) float64 {
	parts := strings.Split(strings.TrimSpace(v), ":")
	if len(parts) != 3 {
		return 0
	}
	h, err1 := strconv.ParseFloat(parts[0], 64)
	m, err2 := strconv.ParseFloat(parts[1], 64)
	sec, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	return h*3600 + m*60 + sec
}

// FrameCount prefers the counted packets over the container's frame header.
func (s Stream) FrameCount() int64 {
	for _, v := range []string{s.NBReadPackets, s.NBFrames} {
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}

func positive(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
