package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"reelfit/internal/util"
)

// Archiver moves processed sources out of the input folder.
type Archiver struct {
	Dir string
	Now func() time.Time
}

// Archive moves src into the archive folder and returns its new path. An
// existing file of the same name gets a timestamp suffix instead of being
// replaced, including one that appears while the move is in progress.
func (a *Archiver) Archive(src string) (string, error) {
	if err := util.EnsureDir(a.Dir); err != nil {
		return "", fmt.Errorf("ensure archive dir: %w", err)
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	stamp := now().Format("20060102-150405")

	for i := 0; ; i++ {
		var dst string
		switch i {
		case 0:
			dst = filepath.Join(a.Dir, base)
		case 1:
			dst = filepath.Join(a.Dir, fmt.Sprintf("%s_%s%s", stem, stamp, ext))
		default:
			dst = filepath.Join(a.Dir, fmt.Sprintf("%s_%s_%d%s", stem, stamp, i, ext))
		}
		err := util.MoveFile(src, dst)
		if err == nil {
			return dst, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("archive %s: %w", base, err)
		}
	}
}
