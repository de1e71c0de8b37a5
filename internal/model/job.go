package model

import "time"

// EncodeAttempt records one encode try within a job.
type EncodeAttempt struct {
	Index     int     `json:"index"`
	Bitrate   int64   `json:"requested_bitrate_bps"`
	Margin    float64 `json:"margin"`
	Relaxed   bool    `json:"relaxed_floor"`
	SizeBytes int64   `json:"size_bytes"`
	Passed    bool    `json:"passed"`
}

// Verdict is the terminal state of a job.
type Verdict string

const (
	VerdictDone   Verdict = "done"
	VerdictFailed Verdict = "failed"
)

// Outcome is the structured result of one (source, platform) job. It carries
// every field a metadata writer or batch summary needs.
type Outcome struct {
	JobID       string          `json:"job_id"`
	Source      string          `json:"source"`
	Platform    string          `json:"platform"`
	Output      string          `json:"output,omitempty"`
	Verdict     Verdict         `json:"verdict"`
	FailureKind FailureKind     `json:"failure_kind,omitempty"`
	Detail      string          `json:"detail,omitempty"`
	Bitrate     int64           `json:"final_bitrate_bps"`
	SizeBytes   int64           `json:"final_size_bytes"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	DurationSec float64         `json:"duration_sec"`
	FPS         string          `json:"fps,omitempty"`
	Attempts    int             `json:"attempts"`
	AttemptLog  []EncodeAttempt `json:"attempt_log,omitempty"`
	VFRSource   bool            `json:"vfr_source"`
	FinishedAt  time.Time       `json:"finished_at"`
}

// OK reports whether the job produced an accepted output.
func (o Outcome) OK() bool {
	return o.Verdict == VerdictDone
}

// Fail marks the outcome failed from err, classifying it by kind.
func (o *Outcome) Fail(err error) {
	o.Verdict = VerdictFailed
	o.FailureKind = KindOf(err)
	o.Detail = err.Error()
}
