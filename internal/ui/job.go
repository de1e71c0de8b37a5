package ui

import (
	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	"reelfit/internal/progress"
)

// Row is one (source, platform) job shown in the TUI.
type Row struct {
	JobID       string
	Label       string
	Ceiling     int64 // platform size ceiling in bytes; 0 hides the size gauge
	MaxAttempts int
}

type jobState struct {
	id     string
	label  string
	stage  progress.Stage
	status string
	err    error
	done   bool

	outputPath  string
	bytes       int64
	attempts    int
	maxAttempts int
	ceiling     int64
	percent     float64 // -1 means unknown

	// requested video bitrate per encode attempt, in order
	bitrates []int64

	spinner spinner.Model
	bar     bubblesprogress.Model

	// recent ffmpeg lines, kept small
	logsRing []string
}

func newJobState(r Row, styles Styles) jobState {
	sp := spinner.New()
	sp.Style = styles.Spinner
	return jobState{
		id:          r.JobID,
		label:       r.Label,
		stage:       progress.StageQueued,
		status:      "Queued",
		percent:     -1,
		maxAttempts: r.MaxAttempts,
		ceiling:     r.Ceiling,
		spinner:     sp,
		bar: bubblesprogress.New(
			bubblesprogress.WithDefaultGradient(),
			bubblesprogress.WithWidth(40),
		),
	}
}

// observe records the attempt and bitrate carried by u, if any.
func (js *jobState) observe(attempt int, bitrate int64) {
	if attempt > js.attempts {
		js.attempts = attempt
	}
	if attempt <= 0 || bitrate <= 0 {
		return
	}
	for len(js.bitrates) < attempt {
		js.bitrates = append(js.bitrates, 0)
	}
	js.bitrates[attempt-1] = bitrate
}
