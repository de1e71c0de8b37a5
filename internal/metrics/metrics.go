// Package metrics exposes Prometheus collectors for transcoding jobs.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Job metrics
var (
	// JobsTotal counts finished jobs by platform and verdict.
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reelfit",
			Name:      "jobs_total",
			Help:      "Total number of finished jobs",
		},
		[]string{"platform", "verdict"},
	)

	// EncodeAttempts counts encoder invocations.
	EncodeAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reelfit",
			Name:      "encode_attempts_total",
			Help:      "Total number of encode attempts",
		},
		[]string{"platform"},
	)

	// Retries counts transitions into the retrying state.
	Retries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reelfit",
			Name:      "retries_total",
			Help:      "Total number of size-driven re-encodes",
		},
		[]string{"platform"},
	)

	EncodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "reelfit",
			Name:      "encode_duration_seconds",
			Help:      "Time taken by one encoder invocation",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// OutputBytes tracks the size of the last accepted output per platform.
	OutputBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "reelfit",
			Name:      "output_bytes",
			Help:      "Size of the last accepted output in bytes",
		},
		[]string{"platform"},
	)

	ActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "reelfit",
			Name:      "active_jobs",
			Help:      "Number of currently processing jobs",
		},
	)
)

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, log *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if log != nil {
			log.Info("starting metrics server", "addr", addr)
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
