package batch

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"reelfit/internal/logging"
	"reelfit/internal/model"
	"reelfit/internal/pipeline"
)

// SourceRunner runs every target of one source.
type SourceRunner interface {
	RunSource(ctx context.Context, path string, targets []pipeline.Target) []model.Outcome
}

// Runner processes sources on a bounded pool of workers.
type Runner struct {
	Service   SourceRunner
	Workers   int
	Recorders []Recorder
	Archiver  *Archiver // nil disables archiving
	Logger    *slog.Logger
	Now       func() time.Time
}

// Run processes jobs and returns the batch summary. Jobs never fail the
// group: each source's outcomes fill its own slot, so one failure cannot
// cancel or reorder its siblings. Cancelling ctx turns sources that have not
// started into Canceled outcomes.
func (r *Runner) Run(ctx context.Context, jobs []SourceJob) Summary {
	log := r.Logger
	if log == nil {
		log = logging.Discard()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	sum := Summary{BatchID: uuid.NewString(), Started: now()}
	log = log.With("batch", sum.BatchID)
	log.Info("batch started", "sources", len(jobs), "workers", workers)

	slots := make([][]model.Outcome, len(jobs))
	archived := make([]string, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			outcomes := r.Service.RunSource(ctx, job.Source, job.Targets)
			for j, o := range outcomes {
				r.record(ctx, log, job.Targets[j], o)
			}
			slots[i] = outcomes
			if r.Archiver != nil && allDone(outcomes) {
				dst, err := r.Archiver.Archive(job.Source)
				if err != nil {
					log.Warn("archive failed", "source", job.Source, "error", err)
					return nil
				}
				archived[i] = dst
				log.Info("source archived", "source", job.Source, "archive", dst)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range jobs {
		sum.Outcomes = append(sum.Outcomes, slots[i]...)
		if archived[i] != "" {
			sum.Archived = append(sum.Archived, archived[i])
		}
	}
	sum.Finished = now()
	log.Info("batch finished", "succeeded", sum.Succeeded(), "failed", sum.Failed(), "elapsed", sum.Finished.Sub(sum.Started).Round(time.Millisecond))
	return sum
}

func (r *Runner) record(ctx context.Context, log *slog.Logger, t pipeline.Target, o model.Outcome) {
	for _, rec := range r.Recorders {
		if err := rec.Record(context.WithoutCancel(ctx), t, o); err != nil {
			log.Warn("record outcome", "job", o.JobID, "recorder", recorderName(rec), "error", err)
		}
	}
}

func recorderName(rec Recorder) string {
	switch rec.(type) {
	case ManifestRecorder:
		return "manifest"
	case HistoryRecorder:
		return "history"
	case LogRecorder:
		return "log"
	}
	return "custom"
}

func allDone(outcomes []model.Outcome) bool {
	if len(outcomes) == 0 {
		return false
	}
	for _, o := range outcomes {
		if !o.OK() {
			return false
		}
	}
	return true
}
