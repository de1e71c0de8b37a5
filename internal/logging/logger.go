// Package logging builds the slog loggers used by the CLI: a human-readable
// console handler and a JSON processing log that rolls over daily.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"reelfit/internal/model"
)

// Options describes logger construction parameters.
type Options struct {
	Verbose bool
	Console io.Writer // nil disables console output
	LogDir  string    // empty disables the processing log
	Now     func() time.Time
}

// Logger is a slog.Logger bound to an optional processing log file.
type Logger struct {
	*slog.Logger
	file     *os.File
	path     string
	fileOnly *slog.Logger
}

// New constructs the fanned-out logger. Close releases the log file.
func New(opts Options) (*Logger, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	var console slog.Handler
	if opts.Console != nil {
		console = slog.NewTextHandler(opts.Console, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: dropTime,
		})
	}

	l := &Logger{}
	var file slog.Handler
	if opts.LogDir != "" {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure log directory: %w", err)
		}
		l.path = filepath.Join(opts.LogDir, ProcessingLogName(now()))
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open processing log: %w", err)
		}
		l.file = f
		file = slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	l.Logger = slog.New(newFanoutHandler(console, file))
	l.fileOnly = slog.New(newFanoutHandler(file))
	return l, nil
}

// Path is the processing log file, or "" when disabled.
func (l *Logger) Path() string { return l.path }

// FileOnly is the same logger without the console handler. It is used while
// a full-screen view owns the terminal.
func (l *Logger) FileOnly() *slog.Logger { return l.fileOnly }

// Close flushes and closes the processing log.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ProcessingLogName is the daily log file name for t.
func ProcessingLogName(t time.Time) string {
	return "processing_" + t.Format("2006-01-02") + ".log"
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Outcome logs one finished job at info (done) or warn (failed).
func Outcome(log *slog.Logger, o model.Outcome) {
	attrs := []any{
		"job_id", o.JobID,
		"source", o.Source,
		"platform", o.Platform,
		"verdict", string(o.Verdict),
		"attempts", o.Attempts,
		"bitrate_bps", o.Bitrate,
		"size_bytes", o.SizeBytes,
	}
	if o.OK() {
		log.Info("job finished", append(attrs, "output", o.Output)...)
		return
	}
	log.Warn("job failed", append(attrs, "failure_kind", string(o.FailureKind), "detail", o.Detail)...)
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
