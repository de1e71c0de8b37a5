package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"reelfit/internal/progress"
	"reelfit/internal/util/format"
)

// Work runs the jobs, reporting through rep. It must return once every job
// has produced its Result or ctx is done.
type Work func(ctx context.Context, rep progress.Reporter)

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	jobOrder []string
	jobs     map[string]*jobState
	work     Work
	started  *atomic.Bool
	workDone chan struct{}

	width, height int
	styles        Styles

	// reporter events are fed through here as tea messages
	eventCh chan tea.Msg
}

func NewModel(ctx context.Context, rows []Row, work Work) Model {
	c, cancel := context.WithCancel(ctx)
	sty := defaultStyles()

	jobs := make(map[string]*jobState, len(rows))
	order := make([]string, 0, len(rows))
	for _, r := range rows {
		js := newJobState(r, sty)
		jobs[r.JobID] = &js
		order = append(order, r.JobID)
	}
	return Model{
		ctx:      c,
		cancel:   cancel,
		jobs:     jobs,
		jobOrder: order,
		work:     work,
		started:  new(atomic.Bool),
		workDone: make(chan struct{}),
		styles:   sty,
		eventCh:  make(chan tea.Msg, 256),
	}
}

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		cmds = append(cmds, m.jobs[id].spinner.Tick)
	}
	cmds = append(cmds, m.listenEventsCmd(), m.startWorkCmd())
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case jobUpdateMsg:
		u := msg.U
		if js, ok := m.jobs[u.JobID]; ok {
			js.stage = u.Stage
			js.percent = u.Percent
			js.status = u.Message
			if u.Bytes != nil {
				js.bytes = *u.Bytes
			}
			js.observe(u.Attempt, u.Bitrate)
		}
	case jobLogMsg:
		l := msg.L
		if js, ok := m.jobs[l.JobID]; ok {
			if len(js.logsRing) > 200 {
				js.logsRing = js.logsRing[1:]
			}
			js.logsRing = append(js.logsRing, strings.TrimRight(l.Line, "\r\n"))
		}
	case jobResultMsg:
		r := msg.R
		if js, ok := m.jobs[r.JobID]; ok {
			js.done = true
			js.err = r.Err
			js.attempts = r.Attempts
			js.observe(r.Attempts, r.Bitrate)
			if r.Err == nil {
				js.stage = progress.StageCompleted
				js.percent = 100
				js.outputPath = r.OutputPath
				js.bytes = r.Bytes
				js.status = fmt.Sprintf("Saved: %s (%s)", filepath.Base(r.OutputPath), format.HumanizeBytes(r.Bytes))
			} else {
				js.stage = progress.StageError
				js.status = r.Err.Error()
				js.percent = -1
			}
		}
	case allDoneMsg:
		return m, tea.Quit
	}

	var cmds []tea.Cmd
	for _, id := range m.jobOrder {
		js := m.jobs[id]
		var c tea.Cmd
		js.spinner, c = js.spinner.Update(msg)
		if c != nil {
			cmds = append(cmds, c)
		}
	}
	cmds = append(cmds, m.listenEventsCmd())
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	summary := m.viewSummary()
	if summary != "" {
		return m.viewHeader() + "\n\n" + m.viewJobs() + "\n" + summary
	}
	return m.viewHeader() + "\n\n" + m.viewJobs()
}

func (m Model) listenEventsCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return allDoneMsg{}
		case msg := <-m.eventCh:
			return msg
		}
	}
}

// startWorkCmd runs the work in the background and reports allDoneMsg once
// every queued event has been handed to the program.
func (m Model) startWorkCmd() tea.Cmd {
	return func() tea.Msg {
		if !m.started.CompareAndSwap(false, true) {
			return nil
		}
		go func() {
			defer close(m.workDone)
			m.work(m.ctx, teaReporter{ctx: m.ctx, ch: m.eventCh})
			select {
			case m.eventCh <- allDoneMsg{}:
			case <-m.ctx.Done():
			}
		}()
		return nil
	}
}

type teaReporter struct {
	ctx context.Context
	ch  chan tea.Msg
}

func (r teaReporter) Update(u progress.Update) {
	if u.Stage == progress.StageCompleted || u.Stage == progress.StageError {
		r.send(jobUpdateMsg{U: u})
		return
	}
	select {
	case r.ch <- jobUpdateMsg{U: u}:
	default:
	}
}

func (r teaReporter) Log(l progress.Log) {
	select {
	case r.ch <- jobLogMsg{L: l}:
	default:
	}
}

func (r teaReporter) Result(res progress.Result) {
	r.send(jobResultMsg{R: res})
}

// send blocks until delivered unless the UI has gone away.
func (r teaReporter) send(msg tea.Msg) {
	select {
	case r.ch <- msg:
	case <-r.ctx.Done():
	}
}
