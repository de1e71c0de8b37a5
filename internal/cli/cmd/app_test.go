package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelfit/internal/logging"
)

func TestJobLogger_TUIKeepsConsoleQuiet(t *testing.T) {
	tests := []struct {
		name        string
		tui         bool
		wantConsole bool
	}{
		{name: "tui", tui: true, wantConsole: false},
		{name: "plain", tui: false, wantConsole: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			var console bytes.Buffer
			day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
			l, err := logging.New(logging.Options{Console: &console, LogDir: dir, Now: func() time.Time { return day }})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			a := &app{log: l}

			log := a.jobLogger(tt.tui)
			log.Info("batch started", "sources", 1)
			log.Warn("job failed", "job_id", "j1")
			if err := l.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			if got := console.Len() > 0; got != tt.wantConsole {
				t.Errorf("console written = %v, want %v (%q)", got, tt.wantConsole, console.String())
			}
			data, err := os.ReadFile(filepath.Join(dir, logging.ProcessingLogName(day)))
			if err != nil {
				t.Fatalf("read processing log: %v", err)
			}
			if !strings.Contains(string(data), `"msg":"job failed"`) {
				t.Errorf("processing log missing job record:\n%s", data)
			}
		})
	}
}
