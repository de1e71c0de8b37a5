// Package manifest writes the JSON sidecar stored next to each rendered file.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reelfit/internal/model"
)

const version = 1

// Sidecar is the on-disk form of a job outcome.
type Sidecar struct {
	Version int `json:"version"`
	model.Outcome
}

// PathFor returns the sidecar path for an output video.
func PathFor(output string) string {
	return output + ".json"
}

// Write stores o as the sidecar for output, replacing any previous one.
func Write(output string, o model.Outcome) error {
	output = strings.TrimSpace(output)
	if output == "" {
		return errors.New("manifest: output path is empty")
	}
	payload, err := json.MarshalIndent(Sidecar{Version: version, Outcome: o}, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("manifest: ensure dir: %w", err)
	}
	tmp := filepath.Join(dir, fmt.Sprintf(".reelfit-manifest-%d.tmp", time.Now().UnixNano()))
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("manifest: write temp: %w", err)
	}
	if err := os.Rename(tmp, PathFor(output)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("manifest: rename: %w", err)
	}
	return nil
}

// Read loads the sidecar for output. The bool is false when none exists.
func Read(output string) (Sidecar, bool, error) {
	payload, err := os.ReadFile(PathFor(output))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Sidecar{}, false, nil
		}
		return Sidecar{}, false, fmt.Errorf("manifest: read: %w", err)
	}
	var s Sidecar
	if err := json.Unmarshal(payload, &s); err != nil {
		return Sidecar{}, false, fmt.Errorf("manifest: decode: %w", err)
	}
	return s, true, nil
}
