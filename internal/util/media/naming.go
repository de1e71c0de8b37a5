package media

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"reelfit/internal/util"
)

// DateLayout names the per-day output folder.
const DateLayout = "2006-01-02"

// Stem returns the sanitized file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return util.SanitizeFilename(stem)
}

// OutputPath places name under <outDir>/<platform>/<YYYY-MM-DD>/<name>.mp4.
func OutputPath(outDir, platform string, day time.Time, name string) string {
	return filepath.Join(outDir, util.SanitizeFilename(platform), day.Format(DateLayout), name+".mp4")
}

// UniqueNames maps each source to an output name. Sources sharing a stem get
// their container extension appended ("clip_mov"); anything still colliding
// gets a numeric suffix, so every name in the result is distinct.
func UniqueNames(sources []string) map[string]string {
	byStem := make(map[string]int, len(sources))
	for _, s := range sources {
		byStem[strings.ToLower(Stem(s))]++
	}

	out := make(map[string]string, len(sources))
	used := make(map[string]bool, len(sources))
	for _, s := range sources {
		name := Stem(s)
		if byStem[strings.ToLower(name)] > 1 {
			if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(s)), "."); ext != "" {
				name += "_" + ext
			}
		}
		candidate := name
		for i := 2; used[strings.ToLower(candidate)]; i++ {
			candidate = fmt.Sprintf("%s_%d", name, i)
		}
		used[strings.ToLower(candidate)] = true
		out[s] = candidate
	}
	return out
}
