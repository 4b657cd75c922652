// Package checker decides whether a parsed patch applies cleanly to a working
// tree without applying it. It reports every file, rename, line and hunk
// header disagreement as a model.Conflict.
package checker

import (
	"fmt"

	"github.com/sokinpui/patchcheck/internal/tree"
	"github.com/sokinpui/patchcheck/model"
)

// Options tune how hunk headers are validated.
type Options struct {
	// GitZeroRanges anchors zero-length ranges the way git writes them:
	// "-L,0" inserts after line L and "+L,0" deletes after line L.
	GitZeroRanges bool
}

// Checker validates patches against one working tree.
type Checker struct {
	tree tree.Tree
	opts Options
}

// New creates a Checker reading from t.
func New(t tree.Tree, opts Options) *Checker {
	return &Checker{tree: t, opts: opts}
}

// Outcome is everything one patch check found.
type Outcome struct {
	Conflicts []model.Conflict
	// Lines holds the content of every file whose hunks were matched,
	// keyed by the path the patch names, exactly as it was compared.
	Lines map[string][]string
}

// Check validates one patch. Every call starts from empty caches, so two
// calls against an unchanged tree return identical conflicts.
func (c *Checker) Check(p model.Patch) ([]model.Conflict, error) {
	out, err := c.Inspect(p)
	if err != nil {
		return nil, err
	}
	return out.Conflicts, nil
}

// Inspect is Check that also returns the file lines the hunks were
// matched against.
func (c *Checker) Inspect(p model.Patch) (Outcome, error) {
	r := newRun(c.tree, c.opts)
	for i, change := range p.Changes {
		if err := change.Validate(); err != nil {
			return Outcome{}, fmt.Errorf("change %d: %w", i+1, err)
		}
		if err := r.checkChange(change); err != nil {
			return Outcome{}, err
		}
	}
	return Outcome{Conflicts: r.conflicts, Lines: r.matched}, nil
}

// Check is a shorthand for New(t, opts).Check(p).
func Check(t tree.Tree, p model.Patch, opts Options) ([]model.Conflict, error) {
	return New(t, opts).Check(p)
}

// run holds the state of checking a single patch.
type run struct {
	tree      tree.Tree
	opts      Options
	paths     map[string]*pathState
	conflicts []model.Conflict
	matched   map[string][]string
}

func newRun(t tree.Tree, opts Options) *run {
	return &run{
		tree:    t,
		opts:    opts,
		paths:   make(map[string]*pathState),
		matched: make(map[string][]string),
	}
}

func (r *run) emit(c model.Conflict) {
	r.conflicts = append(r.conflicts, c)
}

// checkChange appends the conflicts of one file change: existence and rename
// conflicts first, then per hunk its line mismatches followed by its header
// problems.
func (r *run) checkChange(change model.FileChange) error {
	diffable, err := r.checkExistence(change)
	if err != nil {
		return err
	}
	if change.Kind == model.Rename {
		if err := r.checkRenameDest(change); err != nil {
			return err
		}
	}
	if !diffable || len(change.Hunks) == 0 {
		return nil
	}
	if change.Kind != model.Modify && change.Kind != model.Rename {
		return nil
	}

	lines, ok, err := r.lines(change.File)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	r.matched[change.File] = lines

	offset := 0
	for _, hunk := range change.Hunks {
		r.matchHunk(change.File, lines, hunk)
		offset = r.checkMetadata(change.File, hunk, offset)
	}
	return nil
}
