package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"reelfit/internal/model"
)

// CTA is the call-to-action text drawn over the clip.
type CTA struct {
	Text        string
	FontFile    string
	FontSize    int
	FontColor   string
	BoxColor    string
	Opacity     float64
	Position    Position
	StartSec    float64
	DurationSec float64 // 0 = until the end
}

// Enabled reports whether there is text to draw.
func (c CTA) Enabled() bool {
	return strings.TrimSpace(c.Text) != ""
}

func (c CTA) withDefaults() CTA {
	if c.FontSize <= 0 {
		c.FontSize = 40
	}
	if c.FontColor == "" {
		c.FontColor = "white"
	}
	if c.BoxColor == "" {
		c.BoxColor = "black"
	}
	if c.Opacity <= 0 || c.Opacity > 1 {
		c.Opacity = 0.8
	}
	if c.Position == "" {
		c.Position = PositionLowerThird
	}
	return c
}

// writeTextFile wraps the CTA text for the canvas width and stores it in
// workdir, so drawtext never has to escape user text.
func (c CTA) writeTextFile(workdir string, canvas model.Resolution) (string, error) {
	c = c.withDefaults()
	// Average glyph width is roughly 0.55 of the font size.
	perLine := int(float64(canvas.Width) * 0.9 / (float64(c.FontSize) * 0.55))
	path := filepath.Join(workdir, "cta.txt")
	if err := os.WriteFile(path, []byte(Wrap(c.Text, perLine)), 0o644); err != nil {
		return "", fmt.Errorf("write cta text: %w", err)
	}
	return path, nil
}

// drawtext returns the drawtext filter reading its text from textFile.
func (c CTA) drawtext(textFile string) string {
	c = c.withDefaults()
	var b strings.Builder
	fmt.Fprintf(&b, "drawtext=textfile=%s", quoteValue(textFile))
	if c.FontFile != "" {
		fmt.Fprintf(&b, ":fontfile=%s", quoteValue(c.FontFile))
	}
	fmt.Fprintf(&b, ":fontsize=%d:fontcolor=%s@%s", c.FontSize, c.FontColor, num(c.Opacity))
	fmt.Fprintf(&b, ":box=1:boxcolor=%s@%s:boxborderw=%d", c.BoxColor, num(c.Opacity), c.FontSize/2)
	b.WriteString(":line_spacing=8:x=(w-text_w)/2:y=")
	b.WriteString(c.Position.yExpr("h", "text_h"))
	b.WriteString(enableExpr(c.StartSec, c.DurationSec))
	return b.String()
}

// Wrap breaks text into lines of at most width characters on word boundaries.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, word := range strings.Fields(para) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Overlay is an optional image asset composited over the clip.
type Overlay struct {
	Path          string
	WidthFraction float64 // of canvas width; default 0.3
	Position      Position
	StartSec      float64
	DurationSec   float64
}

// Enabled reports whether an asset is configured.
func (o Overlay) Enabled() bool {
	return strings.TrimSpace(o.Path) != ""
}

// Prepare decodes the asset, fits it to the canvas and writes a PNG into
// workdir. A malformed asset is a CompositionFailure.
func (o Overlay) Prepare(workdir string, canvas model.Resolution) (string, error) {
	img, err := imaging.Open(o.Path, imaging.AutoOrientation(true))
	if err != nil {
		return "", model.NewJobError(model.KindCompositionFailure, err, "overlay asset %s", filepath.Base(o.Path))
	}
	frac := o.WidthFraction
	if frac <= 0 || frac > 1 {
		frac = 0.3
	}
	maxW := int(float64(canvas.Width) * frac)
	fitted := imaging.Fit(img, maxW, canvas.Height/2, imaging.Lanczos)

	out := filepath.Join(workdir, "overlay.png")
	if err := imaging.Save(fitted, out); err != nil {
		return "", model.NewJobError(model.KindCompositionFailure, err, "write overlay")
	}
	return out, nil
}

// filter returns the overlay filter for the prepared asset.
func (o Overlay) filter() string {
	pos := o.Position
	if pos == "" {
		pos = PositionTop
	}
	return "overlay=x=(main_w-overlay_w)/2:y=" + pos.yExpr("main_h", "overlay_h") + enableExpr(o.StartSec, o.DurationSec)
}
