// Package patchcheck checks patches against a working tree before they are
// applied and reports every reason they would not apply cleanly.
package patchcheck

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/sokinpui/patchcheck/cli"
	"github.com/sokinpui/patchcheck/internal/checker"
	"github.com/sokinpui/patchcheck/internal/filter"
	"github.com/sokinpui/patchcheck/internal/nvim"
	"github.com/sokinpui/patchcheck/internal/parser"
	"github.com/sokinpui/patchcheck/internal/patcher"
	"github.com/sokinpui/patchcheck/internal/source"
	"github.com/sokinpui/patchcheck/internal/tree"
	"github.com/sokinpui/patchcheck/internal/ui"
	"github.com/sokinpui/patchcheck/model"
)

// ProgressUpdate is a callback function to report progress.
type ProgressUpdate func(current, total int)

// App orchestrates a run: loading patch sources, parsing them and checking
// every patch against the working tree.
type App struct {
	cfg              *cli.Config
	parseOpts        parser.Options
	checkOpts        checker.Options
	filter           *filter.Filter
	sourceProvider   *source.Provider
	progressCallback ProgressUpdate
	out              io.Writer
	// tree replaces the tree described by cfg when set.
	tree tree.Tree
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error {
	return e.Err
}

// New creates a new App instance.
func New(cfg *cli.Config) (*App, error) {
	format, err := parser.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	f, err := filter.New(cfg.Include, cfg.Exclude)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:            cfg,
		parseOpts:      parser.Options{Format: format, Strict: cfg.Strict},
		checkOpts:      checker.Options{GitZeroRanges: cfg.GitZeroRanges || cfg.Strict},
		filter:         f,
		sourceProvider: source.New(),
		out:            os.Stdout,
	}, nil
}

// SetProgressCallback sets a function to be called for progress updates.
// It is first called with current 0, and never concurrently.
func (a *App) SetProgressCallback(cb ProgressUpdate) {
	a.progressCallback = cb
}

// SetSource replaces where patch sources are read from.
func (a *App) SetSource(p *source.Provider) {
	a.sourceProvider = p
}

// SetOutput sets where corrected diffs are written. It defaults to stdout.
func (a *App) SetOutput(w io.Writer) {
	a.out = w
}

// Execute executes the main application logic based on the configuration.
func (a *App) Execute(ctx context.Context) (rep model.Report, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	inputs, missing, err := a.sourceProvider.Load(a.cfg.Patches, a.cfg.Clipboard)
	if err != nil {
		return model.Report{}, err
	}

	if a.cfg.OutputDiffFix {
		err = a.fixAndPrintDiffs(inputs)
		return model.Report{Missing: missing}, err
	}

	rep, err = a.check(ctx, inputs)
	if err != nil {
		return model.Report{}, err
	}
	rep.Missing = missing
	return rep, nil
}

type job struct {
	source string
	patch  model.Patch
}

// parse turns every input into filtered patches, in input order.
func (a *App) parse(inputs []source.Input) ([]job, error) {
	var jobs []job
	for _, input := range inputs {
		patches, err := parser.Parse(input.Content, a.parseOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", input.Name, err)
		}
		if len(patches) == 0 {
			ui.Warning("No patches found in %s.", input.Name)
			continue
		}
		for _, p := range patches {
			filtered := a.filter.Apply(p)
			if len(p.Changes) > 0 && len(filtered.Changes) == 0 {
				ui.Debug("Skipping a patch of %s: no file matches the filters", input.Name)
				continue
			}
			jobs = append(jobs, job{source: input.Name, patch: filtered})
		}
	}
	return jobs, nil
}

// check runs the checker over every patch of inputs in parallel. Results
// keep input order.
func (a *App) check(ctx context.Context, inputs []source.Input) (model.Report, error) {
	jobs, err := a.parse(inputs)
	if err != nil {
		return model.Report{}, err
	}
	t, err := a.openTree()
	if err != nil {
		return model.Report{}, err
	}

	total := len(jobs)
	var progressMu sync.Mutex
	done := 0
	if a.progressCallback != nil {
		a.progressCallback(0, total)
	}

	results := make([]model.Result, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := checkPatch(t, j, a.checkOpts)
			if err != nil {
				return fmt.Errorf("failed to check %s: %w", j.source, err)
			}
			results[i] = res

			if a.progressCallback != nil {
				progressMu.Lock()
				done++
				a.progressCallback(done, total)
				progressMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Report{}, err
	}
	return model.Report{Results: results}, nil
}

func checkPatch(t tree.Tree, j job, opts checker.Options) (model.Result, error) {
	out, err := checker.New(t, opts).Inspect(j.patch)
	if err != nil {
		return model.Result{}, err
	}
	conflicts := out.Conflicts
	if conflicts == nil {
		conflicts = []model.Conflict{}
	}
	res := model.Result{Source: j.source, Patch: j.patch, Conflicts: conflicts}
	res.Snapshot, res.Relocations = inspectMismatches(out.Lines, j.patch, conflicts)
	return res, nil
}

// inspectMismatches keeps the checked lines of every file with mismatches
// for display and searches them for where the hunks really are.
func inspectMismatches(checked map[string][]string, patch model.Patch, conflicts []model.Conflict) (map[string][]string, []model.Relocation) {
	files := lo.Uniq(lo.FilterMap(conflicts, func(c model.Conflict, _ int) (string, bool) {
		m, ok := c.(model.LineMismatch)
		return m.File, ok
	}))
	if len(files) == 0 {
		return nil, nil
	}

	snapshot := make(map[string][]string, len(files))
	var relocations []model.Relocation
	for _, file := range files {
		lines, ok := checked[file]
		if !ok {
			continue
		}
		snapshot[file] = lines
		for _, change := range patch.Changes {
			if change.File == file && (change.Kind == model.Modify || change.Kind == model.Rename) {
				relocations = append(relocations, patcher.Relocations(lines, change)...)
			}
		}
	}
	return snapshot, relocations
}

// openTree builds the tree patches are checked against: the directory, a
// committed revision of it, and optionally unsaved Neovim buffers on top.
func (a *App) openTree() (tree.Tree, error) {
	if a.tree != nil {
		return a.tree, nil
	}

	var base tree.Tree
	if a.cfg.Rev != "" {
		g, err := tree.NewGit(a.cfg.Root, a.cfg.Rev)
		if err != nil {
			return nil, err
		}
		ui.Debug("Checking against revision %s", g.Revision())
		base = g
	} else {
		d, err := tree.NewDir(a.cfg.Root)
		if err != nil {
			return nil, err
		}
		base = d
	}
	if !a.cfg.Nvim {
		return base, nil
	}

	manager, err := nvim.New()
	if err != nil {
		return nil, err
	}
	defer manager.Close()

	buffers, err := manager.LoadedBuffers()
	if err != nil {
		return nil, err
	}
	overlay, err := nvim.NewOverlay(base, a.cfg.Root, buffers)
	if err != nil {
		return nil, err
	}
	return overlay, nil
}

// fixAndPrintDiffs corrects the hunk headers of every patch and prints the
// result. Changes that cannot be corrected are printed unchanged.
func (a *App) fixAndPrintDiffs(inputs []source.Input) error {
	jobs, err := a.parse(inputs)
	if err != nil {
		return err
	}
	t, err := a.openTree()
	if err != nil {
		return err
	}

	fixed := make([]model.Patch, 0, len(jobs))
	for _, j := range jobs {
		patch, failures := patcher.FixPatch(t, j.patch, a.checkOpts)
		for _, f := range failures {
			ui.Warning("Could not fix %s in %s: %v", f.File, j.source, f.Err)
		}
		fixed = append(fixed, patch)
	}
	_, err = io.WriteString(a.out, patcher.Format(fixed))
	return err
}
