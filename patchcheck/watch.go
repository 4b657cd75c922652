package patchcheck

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/sokinpui/patchcheck/internal/source"
	"github.com/sokinpui/patchcheck/internal/watch"
	"github.com/sokinpui/patchcheck/model"
)

// WatchEvent is delivered twice for every run started by Watch: once when
// it starts, with Running set, and once with its outcome. The outcome of a
// run superseded by a newer one is never delivered.
type WatchEvent struct {
	Generation int
	Running    bool
	Report     model.Report
	Err        error
}

// Watch runs Execute now and again whenever a patch file or a file the
// patches touch changes, until ctx is done.
func (a *App) Watch(ctx context.Context, notify func(WatchEvent)) error {
	w, err := watch.New(0)
	if err != nil {
		return err
	}
	defer w.Close()

	patchFiles := lo.Filter(a.cfg.Patches, func(p string, _ int) bool { return p != source.Stdin })
	w.Set(watch.Dirs(a.cfg.Root, patchFiles, nil))

	var mu sync.Mutex
	generation := 0
	cancelRun := context.CancelFunc(func() {})

	start := func() {
		mu.Lock()
		generation++
		gen := generation
		cancelRun()
		runCtx, cancel := context.WithCancel(ctx)
		cancelRun = cancel
		mu.Unlock()

		notify(WatchEvent{Generation: gen, Running: true})
		go func() {
			rep, err := a.Execute(runCtx)

			mu.Lock()
			defer mu.Unlock()
			if gen != generation {
				return
			}
			if err == nil {
				patches := lo.Map(rep.Results, func(r model.Result, _ int) model.Patch { return r.Patch })
				w.Set(watch.Dirs(a.cfg.Root, patchFiles, patches))
			}
			notify(WatchEvent{Generation: gen, Report: rep, Err: err})
		}()
	}

	start()
	err = w.Run(ctx, start)

	// Runs still in flight are stale once Watch returns.
	mu.Lock()
	generation++
	cancelRun()
	mu.Unlock()
	return err
}
