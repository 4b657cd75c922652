// Package watch reruns a check whenever a patch file or a file it touches
// changes on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sokinpui/patchcheck/internal/ui"
	"github.com/sokinpui/patchcheck/model"
)

// DefaultDebounce is how long the watcher waits for a burst of events to
// settle before reporting a change.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reports changes in a set of directories.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu   sync.Mutex
	dirs []string
}

// New creates a Watcher. A zero debounce uses DefaultDebounce.
func New(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{fsw: fsw, debounce: debounce}, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Watched returns the directories currently watched, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.dirs)
}

// Set replaces the watched directories with dirs. Directories that cannot
// be watched are skipped with a warning.
func (w *Watcher) Set(dirs []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	want := slices.Clone(dirs)
	slices.Sort(want)
	want = slices.Compact(want)

	for _, dir := range w.dirs {
		if _, found := slices.BinarySearch(want, dir); !found {
			if err := w.fsw.Remove(dir); err != nil {
				ui.Debug("Could not stop watching %s: %v", dir, err)
			}
		}
	}
	var kept []string
	for _, dir := range want {
		if _, found := slices.BinarySearch(w.dirs, dir); found {
			kept = append(kept, dir)
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			ui.Warning("Could not watch %s: %v", dir, err)
			continue
		}
		ui.Debug("Watching %s", dir)
		kept = append(kept, dir)
	}
	w.dirs = kept
}

// Run calls onChange once per burst of file events until ctx is done or the
// watcher is closed.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			ui.Debug("Change detected: %s", ev)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			ui.Warning("File watcher error: %v", err)
		case <-fire:
			fire = nil
			onChange()
		}
	}
}

// Dirs lists the directories to watch for a run: those holding the patch
// files, and those holding every path the patches reference. A referenced
// directory that does not exist yet is replaced by its nearest existing
// ancestor so that its creation is seen.
func Dirs(root string, patchFiles []string, patches []model.Patch) []string {
	var dirs []string
	add := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if dir := existingDir(filepath.Dir(abs)); dir != "" {
			dirs = append(dirs, dir)
		}
	}

	for _, f := range patchFiles {
		add(f)
	}
	for _, p := range patches {
		for _, c := range p.Changes {
			add(filepath.Join(root, filepath.FromSlash(c.File)))
			if c.Dest != "" {
				add(filepath.Join(root, filepath.FromSlash(c.Dest)))
			}
		}
	}

	slices.Sort(dirs)
	return slices.Compact(dirs)
}

func existingDir(dir string) string {
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
