package scanner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"monumentfinder/logging"

	"github.com/fsnotify/fsnotify"
)

var (
	// A file is recognized once no write has been seen for this long
	watchSettle = 300 * time.Millisecond
	watchTick   = 100 * time.Millisecond
)

// Watch recognizes image files as they appear in dir until ctx is done.
// Files are handled one at a time in the order they settle.
func Watch(ctx context.Context, dir string, r Recognizer, out io.Writer) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("%w %s: %w", ErrDirectoryAccess, dir, err)
	}
	logging.LogInfo("Watching %s for new images", dir)

	pending := map[string]time.Time{}
	ticker := time.NewTicker(watchTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !IsImageFile(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()
		case <-ticker.C:
			for _, path := range settled(pending, time.Now()) {
				if ctx.Err() != nil {
					return nil
				}
				if !isRegularFile(path) {
					continue
				}
				result := recognizeFile(r, path)
				if result.Error != nil {
					logging.LogWarning("Skipping %s: %v", path, result.Error)
					continue
				}
				fmt.Fprintln(out, result.Recognition.String())
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.LogWarning("watch error: %v", err)
		}
	}
}

// settled removes the paths quiet for at least watchSettle from pending and
// returns them ordered by their last event, then by name
func settled(pending map[string]time.Time, now time.Time) []string {
	var ready []string
	for path, t := range pending {
		if now.Sub(t) >= watchSettle {
			ready = append(ready, path)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		ti, tj := pending[ready[i]], pending[ready[j]]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return ready[i] < ready[j]
	})
	for _, path := range ready {
		delete(pending, path)
	}
	return ready
}

func isRegularFile(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode().IsRegular()
}

