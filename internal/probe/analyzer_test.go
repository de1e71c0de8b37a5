package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelfit/internal/model"
	"reelfit/internal/util"
)

type fakeProbe struct {
	json     string
	pts      string
	failJSON bool
	calls    int
}

func (f *fakeProbe) Run(_ context.Context, spec util.CmdSpec) (util.CmdResult, error) {
	f.calls++
	if contains(spec.Args, "-show_streams") {
		if f.failJSON {
			err := errors.New("exit status 1")
			return util.CmdResult{Code: 1, Stderr: []byte("moov atom not found\n"), Err: err}, err
		}
		return util.CmdResult{Stdout: []byte(f.json)}, nil
	}
	if contains(spec.Args, "-show_entries") {
		return util.CmdResult{Stdout: []byte(f.pts)}, nil
	}
	return util.CmdResult{}, fmt.Errorf("unexpected args %v", spec.Args)
}

func contains(ss []string, q string) bool {
	for _, s := range ss {
		if s == q {
			return true
		}
	}
	return false
}

func writeSource(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return p
}

func probeJSON(rFrameRate, avgFrameRate, frames, duration string, withAudio bool) string {
	audio := ""
	if withAudio {
		audio = `,{"index":1,"codec_name":"aac","codec_type":"audio","duration":"` + duration + `","sample_rate":"48000","channels":2}`
	}
	return `{"streams":[{"index":0,"codec_name":"h264","codec_type":"video","width":1920,"height":1080,` +
		`"r_frame_rate":"` + rFrameRate + `","avg_frame_rate":"` + avgFrameRate + `","duration":"` + duration + `",` +
		`"nb_read_packets":"` + frames + `"}` + audio + `],"format":{"duration":"` + duration + `","size":"1000"}}`
}

func uniformPTS(fps float64, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%.6f\n", float64(i)/fps)
	}
	return b.String()
}

func TestAnalyze_ConstantRate(t *testing.T) {
	src := writeSource(t, "clip.mp4")
	fp := &fakeProbe{
		json: probeJSON("30/1", "30/1", "900", "30.000000", true),
		pts:  uniformPTS(30, 300),
	}
	a := NewAnalyzer("ffprobe", fp, nil)

	got, err := a.Analyze(context.Background(), src)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !got.ConstantRate {
		t.Errorf("ConstantRate = false, want true")
	}
	if got.NominalRate != (model.FrameRate{Num: 30, Den: 1}) {
		t.Errorf("NominalRate = %v", got.NominalRate)
	}
	if got.DurationSec != 30 || !got.HasAudio || got.AudioDuration != 30 {
		t.Errorf("unexpected descriptor: %+v", got)
	}
	if got.Resolution != (model.Resolution{Width: 1920, Height: 1080}) {
		t.Errorf("Resolution = %v", got.Resolution)
	}
}

func TestAnalyze_VariableRate(t *testing.T) {
	tests := []struct {
		name string
		json string
		pts  string
	}{
		{
			name: "frame count disagrees with nominal rate",
			json: probeJSON("30/1", "29/1", "1740", "60.000000", true), // 29.0 fps measured
			pts:  uniformPTS(30, 300),
		},
		{
			name: "irregular timestamps",
			json: probeJSON("30/1", "30/1", "300", "10.000000", false),
			pts:  "0.000\n0.033\n0.100\n0.133\n0.166\n0.250\n0.283\n0.316\n0.400\n0.433\n0.533\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeSource(t, "phone.mov")
			a := NewAnalyzer("ffprobe", &fakeProbe{json: tt.json, pts: tt.pts}, nil)
			got, err := a.Analyze(context.Background(), src)
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			if got.ConstantRate {
				t.Errorf("ConstantRate = true, want false")
			}
		})
	}
}

func TestAnalyze_Unreadable(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		probe *fakeProbe
	}{
		{
			name:  "extension not allowed",
			setup: func(t *testing.T) string { return writeSource(t, "clip.webm") },
			probe: &fakeProbe{},
		},
		{
			name:  "missing file",
			setup: func(t *testing.T) string { return filepath.Join(t.TempDir(), "gone.mp4") },
			probe: &fakeProbe{},
		},
		{
			name: "empty file",
			setup: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "empty.mp4")
				if err := os.WriteFile(p, nil, 0o644); err != nil {
					t.Fatal(err)
				}
				return p
			},
			probe: &fakeProbe{},
		},
		{
			name:  "ffprobe fails",
			setup: func(t *testing.T) string { return writeSource(t, "broken.mp4") },
			probe: &fakeProbe{failJSON: true},
		},
		{
			name:  "no video stream",
			setup: func(t *testing.T) string { return writeSource(t, "audio.m4v") },
			probe: &fakeProbe{json: `{"streams":[{"codec_type":"audio","duration":"5"}],"format":{"duration":"5"}}`},
		},
		{
			name:  "zero duration",
			setup: func(t *testing.T) string { return writeSource(t, "zero.mkv") },
			probe: &fakeProbe{json: probeJSON("30/1", "30/1", "0", "0", false)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer("ffprobe", tt.probe, nil)
			_, err := a.Analyze(context.Background(), tt.setup(t))
			if !errors.Is(err, model.ErrUnreadableSource) {
				t.Fatalf("Analyze() error = %v, want ErrUnreadableSource", err)
			}
			if model.KindOf(err) != model.KindUnreadableSource {
				t.Errorf("KindOf = %s", model.KindOf(err))
			}
		})
	}
}

func TestAnalyze_NoAudio(t *testing.T) {
	src := writeSource(t, "silent.mp4")
	a := NewAnalyzer("ffprobe", &fakeProbe{json: probeJSON("25/1", "25/1", "250", "10.0", false), pts: uniformPTS(25, 250)}, nil)
	got, err := a.Analyze(context.Background(), src)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got.HasAudio || got.AudioDuration != 0 {
		t.Errorf("expected no audio, got %+v", got)
	}
}

func TestStreamDuration_MatroskaTag(t *testing.T) {
	s := Stream{Tags: map[string]string{"DURATION": "00:01:02.500000000"}}
	if got := s.DurationSeconds(); got != 62.5 {
		t.Errorf("DurationSeconds() = %v, want 62.5", got)
	}
}

func TestInconsistentDeltas(t *testing.T) {
	tests := []struct {
		name string
		pts  []float64
		want bool
	}{
		{name: "too few samples", pts: []float64{0, 0.5}, want: false},
		{name: "uniform", pts: []float64{0, 0.04, 0.08, 0.12, 0.16, 0.20}, want: false},
		{name: "b-frame reordering is sorted first", pts: []float64{0, 0.08, 0.04, 0.16, 0.12, 0.20}, want: false},
		{name: "one dropped frame tolerated", pts: []float64{0, 0.04, 0.08, 0.16, 0.20, 0.24, 0.28}, want: false},
		{name: "erratic", pts: []float64{0, 0.04, 0.12, 0.14, 0.25, 0.27, 0.40}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InconsistentDeltas(tt.pts); got != tt.want {
				t.Errorf("InconsistentDeltas() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllowed(t *testing.T) {
	for _, p := range []string{"a.mp4", "B.MOV", "c.avi", "d.mkv", "e.m4v"} {
		if !Allowed(p) {
			t.Errorf("Allowed(%q) = false", p)
		}
	}
	for _, p := range []string{"a.webm", "b", "c.mp4.txt"} {
		if Allowed(p) {
			t.Errorf("Allowed(%q) = true", p)
		}
	}
}
