package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows rows while work executes and returns an error listing the jobs
// that failed. Quitting the view cancels the context passed to work; Run
// still waits for work to return.
func Run(ctx context.Context, rows []Row, work Work) error {
	m := NewModel(ctx, rows, work)
	prog := tea.NewProgram(m, tea.WithContext(ctx))
	final, err := prog.Run()
	m.cancel()
	if m.started.Load() {
		<-m.workDone
	}
	if err != nil {
		return err
	}
	fm, ok := final.(Model)
	if !ok {
		return nil
	}
	return fm.failures()
}

func (m Model) failures() error {
	var failed []string
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		if js != nil && js.err != nil {
			failed = append(failed, fmt.Sprintf("- %s: %s", js.label, js.err.Error()))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d job(s) failed:\n%s", len(failed), strings.Join(failed, "\n"))
}
