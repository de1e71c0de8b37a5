package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelfit/internal/model"
)

func TestWriteRead(t *testing.T) {
	out := filepath.Join(t.TempDir(), "instagram", "2026-10-16", "clip.mp4")
	o := model.Outcome{
		JobID:       "job-1",
		Source:      "/in/clip.mov",
		Platform:    "instagram",
		Output:      out,
		Verdict:     model.VerdictDone,
		Bitrate:     2_500_000,
		SizeBytes:   100_950_000,
		Width:       1080,
		Height:      1920,
		DurationSec: 300,
		FPS:         "30",
		Attempts:    1,
		AttemptLog:  []model.EncodeAttempt{{Index: 1, Bitrate: 2_500_000, Margin: 0.05, SizeBytes: 100_950_000, Passed: true}},
		FinishedAt:  time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}
	if err := Write(out, o); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, ok, err := Read(out)
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if got.Version != version || got.JobID != "job-1" || got.SizeBytes != o.SizeBytes || len(got.AttemptLog) != 1 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.FinishedAt.Equal(o.FinishedAt) {
		t.Errorf("finished_at = %v", got.FinishedAt)
	}

	raw, err := os.ReadFile(PathFor(out))
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"job_id", "verdict", "final_bitrate_bps", "final_size_bytes", "attempt_log", "vfr_source", "finished_at"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("sidecar missing %q", key)
		}
	}
	if _, ok := fields["failure_kind"]; ok {
		t.Error("successful sidecar carries failure_kind")
	}
}

func TestWrite_FailedOutcome(t *testing.T) {
	out := filepath.Join(t.TempDir(), "clip.mp4")
	o := model.Outcome{JobID: "job-2", Platform: "tiktok"}
	o.Fail(model.NewJobError(model.KindSizeLimitExceeded, nil, "too big"))
	if err := Write(out, o); err != nil {
		t.Fatal(err)
	}
	got, ok, err := Read(out)
	if err != nil || !ok {
		t.Fatalf("Read: ok=%v err=%v", ok, err)
	}
	if got.Verdict != model.VerdictFailed || got.FailureKind != model.KindSizeLimitExceeded {
		t.Errorf("got %+v", got.Outcome)
	}
}

func TestRead_Missing(t *testing.T) {
	_, ok, err := Read(filepath.Join(t.TempDir(), "none.mp4"))
	if ok || err != nil {
		t.Errorf("ok=%v err=%v, want false nil", ok, err)
	}
}

func TestWrite_EmptyPath(t *testing.T) {
	if err := Write("  ", model.Outcome{}); err == nil {
		t.Error("expected error for empty output path")
	}
}
