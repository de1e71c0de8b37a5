// Package batch turns a folder of source videos into platform renders: it
// discovers inputs, plans one job per (source, platform), runs sources on a
// bounded worker pool, records every outcome and archives finished sources.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"reelfit/internal/model"
	"reelfit/internal/pipeline"
	"reelfit/internal/probe"
	"reelfit/internal/util/media"
)

// Discover lists the accepted source files directly inside dir, sorted by name.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input folder: %w", err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if probe.Allowed(name) {
			out = append(out, filepath.Join(dir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

// SourceJob is one source and its per-platform targets.
type SourceJob struct {
	Source  string
	Targets []pipeline.Target
}

// Plan assigns every source one target per profile. Outputs land in
// <outDir>/<platform>/<day>/<name>.mp4 with names unique across sources.
func Plan(sources []string, profiles []model.PlatformProfile, outDir string, day time.Time) []SourceJob {
	names := media.UniqueNames(sources)
	jobs := make([]SourceJob, 0, len(sources))
	for _, src := range sources {
		name := names[src]
		jobs = append(jobs, SourceJob{
			Source: src,
			Targets: pipeline.Targets(profiles, func(p model.PlatformProfile) string {
				return media.OutputPath(outDir, p.Name, day, name)
			}),
		})
	}
	return jobs
}
