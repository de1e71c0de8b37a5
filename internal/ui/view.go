package ui

import (
	"fmt"
	"strings"

	"reelfit/internal/progress"
	"reelfit/internal/util/format"
)

type tally struct {
	done, failed, active, total int
}

func (m Model) tally() tally {
	t := tally{total: len(m.jobOrder)}
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		switch {
		case js.done && js.err == nil:
			t.done++
		case js.done:
			t.failed++
		case js.stage != progress.StageQueued:
			t.active++
		}
	}
	return t
}

func (m Model) viewHeader() string {
	t := m.tally()
	title := m.styles.Title.Render("reelfit")
	counts := fmt.Sprintf("%d jobs · %d done · %d failed · %d active · q quits", t.total, t.done, t.failed, t.active)
	return title + "  " + m.styles.Subtitle.Render(counts)
}

func (m Model) viewJobs() string {
	var b strings.Builder
	for _, id := range m.jobOrder {
		b.WriteString(m.viewJob(m.jobs[id]))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) stageStyle(s progress.Stage) func(...string) string {
	switch s {
	case progress.StageQueued, progress.StageAnalyzing:
		return m.styles.StageAnalyze.Render
	case progress.StageComposing, progress.StageVerifying:
		return m.styles.StageCompose.Render
	case progress.StageEncoding:
		return m.styles.StageEnc.Render
	case progress.StageCompleted:
		return m.styles.Success.Render
	case progress.StageError:
		return m.styles.Error.Render
	}
	return m.styles.JobInfo.Render
}

func (m Model) viewJob(js *jobState) string {
	head := m.styles.JobTitle.Render(truncate(js.label, 48)) + "  " + m.stageStyle(js.stage)(string(js.stage))
	if js.attempts > 0 {
		badge := fmt.Sprintf("attempt %d", js.attempts)
		if js.maxAttempts > 0 {
			badge = fmt.Sprintf("attempt %d/%d", js.attempts, js.maxAttempts)
		}
		if js.attempts > 1 {
			head += "  " + m.styles.Warning.Render(badge)
		} else {
			head += "  " + m.styles.Faint.Render(badge)
		}
	}

	lines := []string{head, m.viewGauge(js)}
	if trail := bitrateTrail(js.bitrates); trail != "" {
		lines = append(lines, m.styles.Faint.Render("bitrate "+trail))
	}
	if !js.done && js.status != "" {
		lines = append(lines, m.styles.JobInfo.Render(js.status))
	}
	return m.styles.Box.Render(strings.Join(lines, "\n"))
}

// viewGauge is the progress bar while encoding and the size verdict after.
func (m Model) viewGauge(js *jobState) string {
	switch {
	case js.done && js.err == nil:
		return m.styles.Success.Render("✓ " + sizeAgainstCeiling(js.bytes, js.ceiling))
	case js.err != nil:
		return m.styles.Error.Render("✗ " + truncate(js.err.Error(), 72))
	case js.percent >= 0 && js.percent <= 100:
		return fmt.Sprintf("%s %5.1f%%", js.bar.ViewAs(js.percent/100.0), js.percent)
	}
	return m.styles.Spinner.Render(js.spinner.View()) + " " + m.styles.Faint.Render("waiting")
}

func sizeAgainstCeiling(size, ceiling int64) string {
	if ceiling <= 0 {
		return format.HumanizeBytes(size)
	}
	return fmt.Sprintf("%s of %s (%.0f%%)", format.HumanizeBytes(size), format.HumanizeBytes(ceiling),
		float64(size)*100/float64(ceiling))
}

func bitrateTrail(bitrates []int64) string {
	parts := make([]string, 0, len(bitrates))
	for _, bps := range bitrates {
		if bps > 0 {
			parts = append(parts, format.HumanizeBitrate(bps))
		}
	}
	return strings.Join(parts, " → ")
}

func (m Model) viewSummary() string {
	var b strings.Builder
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		if !js.done || js.err != nil || js.outputPath == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(m.styles.Subtitle.Render("Outputs:"))
			b.WriteString("\n")
		}
		b.WriteString(m.styles.Success.Render(fmt.Sprintf("  %s  %s", js.outputPath, format.HumanizeBytes(js.bytes))))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
