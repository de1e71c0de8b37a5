package batch

import (
	"context"
	"log/slog"

	"reelfit/internal/history"
	"reelfit/internal/logging"
	"reelfit/internal/manifest"
	"reelfit/internal/model"
	"reelfit/internal/pipeline"
)

// Recorder persists a finished job. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(ctx context.Context, t pipeline.Target, o model.Outcome) error
}

// ManifestRecorder writes the JSON sidecar next to the target output, for
// failed jobs too.
type ManifestRecorder struct{}

func (ManifestRecorder) Record(_ context.Context, t pipeline.Target, o model.Outcome) error {
	return manifest.Write(t.OutputPath, o)
}

// HistoryRecorder appends outcomes to the SQLite ledger.
type HistoryRecorder struct {
	Store *history.Store
}

func (r HistoryRecorder) Record(ctx context.Context, _ pipeline.Target, o model.Outcome) error {
	return r.Store.Record(ctx, o)
}

// LogRecorder writes one structured line per outcome to the processing log.
type LogRecorder struct {
	Logger *slog.Logger
}

func (r LogRecorder) Record(_ context.Context, _ pipeline.Target, o model.Outcome) error {
	logging.Outcome(r.Logger, o)
	return nil
}
