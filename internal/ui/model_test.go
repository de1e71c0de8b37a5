package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"reelfit/internal/progress"
)

func testModel() Model {
	rows := []Row{
		{JobID: "j1", Label: "a.mp4 → instagram"},
		{JobID: "j2", Label: "a.mp4 → tiktok"},
	}
	return NewModel(context.Background(), rows, func(context.Context, progress.Reporter) {})
}

func TestModel_AppliesEvents(t *testing.T) {
	m := testModel()

	next, _ := m.Update(jobUpdateMsg{U: progress.Update{JobID: "j1", Stage: progress.StageEncoding, Percent: 42, Message: "Encoding (attempt 1)"}})
	m = next.(Model)
	if js := m.jobs["j1"]; js.stage != progress.StageEncoding || js.percent != 42 {
		t.Errorf("j1 = %+v", js)
	}

	next, _ = m.Update(jobResultMsg{R: progress.Result{JobID: "j1", OutputPath: "/out/instagram/a.mp4", Bytes: 2048, Attempts: 2}})
	m = next.(Model)
	next, _ = m.Update(jobResultMsg{R: progress.Result{JobID: "j2", Err: errors.New("SizeLimitExceeded: too big")}})
	m = next.(Model)

	if js := m.jobs["j1"]; !js.done || js.stage != progress.StageCompleted || js.status != "Saved: a.mp4 (2.0 KB)" {
		t.Errorf("j1 = %+v", js)
	}
	if js := m.jobs["j2"]; js.stage != progress.StageError {
		t.Errorf("j2 stage = %s", js.stage)
	}

	view := m.View()
	if !strings.Contains(view, "1 done · 1 failed") || !strings.Contains(view, "/out/instagram/a.mp4") {
		t.Errorf("view missing progress or summary:\n%s", view)
	}

	err := m.failures()
	if err == nil || !strings.Contains(err.Error(), "a.mp4 → tiktok: SizeLimitExceeded") {
		t.Errorf("failures = %v", err)
	}
}

func TestModel_TracksAttemptBitrates(t *testing.T) {
	rows := []Row{{JobID: "j1", Label: "long.mov → instagram", Ceiling: 100 * 1024 * 1024, MaxAttempts: 2}}
	m := NewModel(context.Background(), rows, func(context.Context, progress.Reporter) {})

	events := []tea.Msg{
		jobUpdateMsg{U: progress.Update{JobID: "j1", Stage: progress.StageEncoding, Attempt: 1, Bitrate: 2_500_000}},
		jobUpdateMsg{U: progress.Update{JobID: "j1", Stage: progress.StageEncoding, Percent: 50}},
		jobUpdateMsg{U: progress.Update{JobID: "j1", Stage: progress.StageEncoding, Percent: -1, Attempt: 1, Message: "Over size ceiling, retrying"}},
		jobUpdateMsg{U: progress.Update{JobID: "j1", Stage: progress.StageEncoding, Attempt: 2, Bitrate: 1_066_291}},
		jobResultMsg{R: progress.Result{JobID: "j1", OutputPath: "/out/long.mp4", Bytes: 80 * 1024 * 1024, Attempts: 2, Bitrate: 1_066_291}},
	}
	for _, e := range events {
		next, _ := m.Update(e)
		m = next.(Model)
	}

	js := m.jobs["j1"]
	if js.attempts != 2 || len(js.bitrates) != 2 || js.bitrates[0] != 2_500_000 || js.bitrates[1] != 1_066_291 {
		t.Fatalf("attempts = %d, bitrates = %v", js.attempts, js.bitrates)
	}
	view := m.View()
	for _, want := range []string{"attempt 2/2", "2.50 Mbps → 1.07 Mbps", "80.0 MB of 100.0 MB (80%)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_IgnoresUnknownJobs(t *testing.T) {
	m := testModel()
	next, _ := m.Update(jobUpdateMsg{U: progress.Update{JobID: "nope", Stage: progress.StageEncoding}})
	if next.(Model).failures() != nil {
		t.Error("unknown job changed state")
	}
}

func TestTeaReporter_DoesNotBlockAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := teaReporter{ctx: ctx, ch: make(chan tea.Msg)}
	r.Update(progress.Update{JobID: "j1", Stage: progress.StageError})
	r.Result(progress.Result{JobID: "j1"})
}
