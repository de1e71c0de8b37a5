package compose

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"reelfit/internal/model"
)

// FillScale is the factor by which the source must be scaled so that it
// covers the canvas on both axes.
func FillScale(src, canvas model.Resolution) float64 {
	if src.Width <= 0 || src.Height <= 0 {
		return math.Inf(1)
	}
	return math.Max(
		float64(canvas.Width)/float64(src.Width),
		float64(canvas.Height)/float64(src.Height),
	)
}

// CheckResolution rejects sources that would need more upscaling than the
// profile allows.
func CheckResolution(src model.Resolution, p model.PlatformProfile) error {
	scale := FillScale(src, p.Canvas())
	if scale > p.MaxUpscale {
		return model.NewJobError(model.KindInsufficientSourceResolution, nil,
			"%s needs %.2fx upscale to fill %s (max %.2fx)", src, scale, p.Canvas(), p.MaxUpscale)
	}
	return nil
}

// FillFilter scales the shorter side to the canvas and center-crops the
// overflow, so no bars are introduced.
func FillFilter(canvas model.Resolution) string {
	return fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase:flags=lanczos,crop=%d:%d,setsar=1",
		canvas.Width, canvas.Height, canvas.Width, canvas.Height,
	)
}

// AudioFilter resamples to a fixed rate and stretches/squeezes timestamps so
// the track starts at zero and follows the video clock.
func AudioFilter(sampleRate int) string {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return fmt.Sprintf("aresample=%d:async=1:first_pts=0", sampleRate)
}

// Position is a named vertical placement for overlays.
type Position string

const (
	PositionTop        Position = "top"
	PositionCenter     Position = "center"
	PositionLowerThird Position = "lower_third"
	PositionBottom     Position = "bottom"
)

// yExpr returns the ffmpeg y expression for an element of height elem
// ("text_h" or "overlay_h") on a frame of height frame ("h" or "main_h").
func (p Position) yExpr(frame, elem string) string {
	switch p {
	case PositionTop:
		return fmt.Sprintf("%s/12", frame)
	case PositionCenter:
		return fmt.Sprintf("(%s-%s)/2", frame, elem)
	case PositionBottom:
		return fmt.Sprintf("%s-%s-%s/12", frame, elem, frame)
	default:
		return fmt.Sprintf("%s*5/6-%s/2", frame, elem)
	}
}

// ParsePosition maps a config value to a Position, defaulting to the lower third.
func ParsePosition(s string) Position {
	switch Position(strings.ToLower(strings.TrimSpace(s))) {
	case PositionTop:
		return PositionTop
	case PositionCenter:
		return PositionCenter
	case PositionBottom:
		return PositionBottom
	default:
		return PositionLowerThird
	}
}

// enableExpr limits a filter to [start, start+duration); zero duration means
// the whole clip.
func enableExpr(start, duration float64) string {
	if duration <= 0 {
		if start <= 0 {
			return ""
		}
		return fmt.Sprintf(":enable='gte(t,%s)'", num(start))
	}
	return fmt.Sprintf(":enable='between(t,%s,%s)'", num(start), num(start+duration))
}

// quoteValue wraps a filter option value in single quotes.
func quoteValue(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*1000)/1000, 'f', -1, 64)
}
