package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelfit/internal/model"
)

func TestNewFanoutHandlerFiltersNil(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(discardHandler); !ok {
		t.Fatal("expected discard handler when every handler is nil")
	}
	inner := slog.NewJSONHandler(&bytes.Buffer{}, nil)
	if h := newFanoutHandler(nil, inner); h != inner {
		t.Error("expected single handler to be returned unwrapped")
	}
}

func TestNew_WritesConsoleAndProcessingLog(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	day := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

	log, err := New(Options{Console: &console, LogDir: dir, Now: func() time.Time { return day }})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug("hidden on console")
	Outcome(log.Logger, model.Outcome{JobID: "j1", Source: "a.mp4", Platform: "instagram", Verdict: model.VerdictDone, Output: "/out/a.mp4"})
	Outcome(log.Logger, model.Outcome{JobID: "j2", Source: "b.mp4", Platform: "tiktok", Verdict: model.VerdictFailed, FailureKind: model.KindEncodeFailure, Detail: "boom"})
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if want := filepath.Join(dir, "processing_2026-10-16.log"); log.Path() != want {
		t.Errorf("path = %q, want %q", log.Path(), want)
	}
	out := console.String()
	if strings.Contains(out, "hidden on console") {
		t.Error("debug line reached the console without verbose")
	}
	if strings.Contains(out, "time=") {
		t.Error("console output carries timestamps")
	}
	if !strings.Contains(out, "failure_kind=EncodeFailure") {
		t.Errorf("console missing failure kind: %s", out)
	}

	f, err := os.Open(log.Path())
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line is not JSON: %q", sc.Text())
		}
		lines = append(lines, m)
	}
	if len(lines) != 3 {
		t.Fatalf("processing log has %d lines, want 3", len(lines))
	}
	if lines[1]["job_id"] != "j1" || lines[1]["verdict"] != "done" {
		t.Errorf("unexpected record %v", lines[1])
	}
	if lines[2]["level"] != "WARN" || lines[2]["failure_kind"] != "EncodeFailure" {
		t.Errorf("unexpected record %v", lines[2])
	}
}

func TestNew_VerboseEnablesDebug(t *testing.T) {
	var console bytes.Buffer
	log, err := New(Options{Verbose: true, Console: &console})
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("probe args", "path", "x.mp4")
	if !strings.Contains(console.String(), "probe args") {
		t.Errorf("debug line missing: %q", console.String())
	}
	if log.Path() != "" {
		t.Errorf("path = %q, want empty", log.Path())
	}
}

func TestFileOnly_WithoutLogDirDiscards(t *testing.T) {
	var console bytes.Buffer
	log, err := New(Options{Console: &console})
	if err != nil {
		t.Fatal(err)
	}
	log.FileOnly().Error("encode failed")
	if console.Len() != 0 {
		t.Errorf("console written: %q", console.String())
	}
}
