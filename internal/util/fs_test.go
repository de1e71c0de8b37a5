package util

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "untitled"},
		{"my clip", "my_clip"},
		{"a/b\\c:d", "a_b_c_d"},
		{"__x__", "x"},
		{"...", "untitled"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := SanitizeFilename(strings.Repeat("é", 300)); len([]rune(got)) != 200 {
		t.Errorf("truncated to %d runes, want 200", len([]rune(got)))
	}
}

func TestMakeTempWorkdir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "work")
	a, err := MakeTempWorkdir(base, "job-instagram")
	if err != nil {
		t.Fatal(err)
	}
	b, err := MakeTempWorkdir(base, "job-instagram")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("workdirs are not unique")
	}
	if !strings.HasPrefix(filepath.Base(a), "job-instagram-") || filepath.Dir(a) != base {
		t.Errorf("workdir = %s", a)
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.mp4")
	dst := filepath.Join(dir, "archive", "in.mp4")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source still exists")
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "payload" {
		t.Errorf("dst = %q, err %v", got, err)
	}
}

func TestMoveFile_KeepsExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.mp4")
	dst := filepath.Join(dir, "archived.mp4")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := MoveFile(src, dst); !errors.Is(err, fs.ErrExist) {
		t.Fatalf("MoveFile err = %v, want ErrExist", err)
	}
	if got, _ := os.ReadFile(dst); string(got) != "old" {
		t.Errorf("destination replaced: %q", got)
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source lost: %v", err)
	}
}

func TestRemoveIfExists(t *testing.T) {
	p := filepath.Join(t.TempDir(), "x")
	if err := RemoveIfExists(p); err != nil {
		t.Errorf("missing file: %v", err)
	}
	if err := os.WriteFile(p, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := RemoveIfExists(p); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Error("file not removed")
	}
}
