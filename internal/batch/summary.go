package batch

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelfit/internal/model"
	"reelfit/internal/util/format"
)

// Summary is the result of one batch.
type Summary struct {
	BatchID  string
	Outcomes []model.Outcome
	Archived []string
	Started  time.Time
	Finished time.Time
}

// Succeeded counts jobs that produced an accepted output.
func (s Summary) Succeeded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed counts jobs that did not.
func (s Summary) Failed() int {
	return len(s.Outcomes) - s.Succeeded()
}

// FailedSources lists source file names with at least one failed job, in
// batch order and without repeats.
func (s Summary) FailedSources() []string {
	seen := map[string]bool{}
	var out []string
	for _, o := range s.Outcomes {
		if o.OK() || seen[o.Source] {
			continue
		}
		seen[o.Source] = true
		out = append(out, filepath.Base(o.Source))
	}
	return out
}

// Write prints one line per job followed by the tally.
func (s Summary) Write(w io.Writer) error {
	title := cases.Title(language.English)
	for _, o := range s.Outcomes {
		var err error
		if o.OK() {
			_, err = fmt.Fprintf(w, "✓ %s → %s: %s (%s @ %s, %d attempt(s))\n",
				filepath.Base(o.Source), title.String(o.Platform), o.Output,
				format.HumanizeBytes(o.SizeBytes), format.HumanizeBitrate(o.Bitrate), o.Attempts)
		} else {
			_, err = fmt.Fprintf(w, "✗ %s → %s: %s\n",
				filepath.Base(o.Source), title.String(o.Platform), o.Detail)
		}
		if err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\nProcessed %d job(s): %d succeeded, %d failed\n", len(s.Outcomes), s.Succeeded(), s.Failed()); err != nil {
		return err
	}
	for _, name := range s.FailedSources() {
		if _, err := fmt.Fprintf(w, "  failed: %s\n", name); err != nil {
			return err
		}
	}
	return nil
}
