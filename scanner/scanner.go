// Package scanner lists query directories and runs recognition over them.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"time"

	"monumentfinder/logging"
)

// ErrDirectoryAccess is returned when a directory cannot be opened or read
var ErrDirectoryAccess = errors.New("unable to access directory")

// ListFiles returns the names of the regular files directly inside dir,
// sorted ascending. Subdirectories, symlinks and other special files are
// left out.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrDirectoryAccess, dir, err)
	}

	seen := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, dup := seen[e.Name()]; dup {
			continue
		}
		seen[e.Name()] = struct{}{}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// TestDirectory recognizes every regular file in dir, in name order, and
// writes one result line per file to out. Files that fail to decode are
// logged and skipped; they do not stop the batch. When ctx is done the run
// stops before the next file and returns the stats so far with ctx.Err().
func TestDirectory(ctx context.Context, dir string, r Recognizer, out io.Writer) (BatchStats, error) {
	var stats BatchStats

	names, err := ListFiles(dir)
	if err != nil {
		return stats, err
	}

	logging.DebugLog("Testing %d files in %s", len(names), dir)
	startTime := time.Now()

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			stats.Elapsed = time.Since(startTime)
			logging.LogInfo("Batch interrupted after %d of %d files", stats.Processed, len(names))
			return stats, err
		}

		result := recognizeFile(r, filepath.Join(dir, name))
		stats.record(result)

		if result.Error != nil {
			logging.LogWarning("Skipping %s: %v", result.Path, result.Error)
			continue
		}
		if _, err := fmt.Fprintln(out, result.Recognition.String()); err != nil {
			return stats, fmt.Errorf("cannot write result: %w", err)
		}
	}

	stats.Elapsed = time.Since(startTime)
	return stats, nil
}

// recognizeFile isolates a single query so a panic while decoding one file
// cannot take down the whole batch
func recognizeFile(r Recognizer, path string) (result ProcessImageResult) {
	result.Path = path

	defer func() {
		if p := recover(); p != nil {
			result.Error = fmt.Errorf("panic during recognition: %v", p)
			logging.LogError("Panic during recognition of %s: %v\nStack trace: %s", path, p, string(debug.Stack()))
		}
	}()

	result.Recognition, result.Error = r.Recognize(path)
	return result
}

func (s *BatchStats) record(result ProcessImageResult) {
	s.Processed++
	switch {
	case result.Error != nil:
		s.Errors++
	case result.Recognition.Found:
		s.Found++
	default:
		s.NotFound++
	}
}
