package checker

import (
	"fmt"

	"github.com/sokinpui/patchcheck/internal/tree"
	"github.com/sokinpui/patchcheck/model"
)

type existence int8

const (
	unchecked existence = iota
	present
	absent
)

// pathState is what one patch run knows about a path.
type pathState struct {
	existence existence
	// missingReported and existingReported are set once the matching
	// existence conflict was emitted for the path.
	missingReported  bool
	existingReported bool
	lines            []string
	loaded           bool
}

func (r *run) state(path string) (*pathState, error) {
	key, err := tree.Clean(path)
	if err != nil {
		return nil, err
	}
	st, ok := r.paths[key]
	if !ok {
		st = &pathState{}
		r.paths[key] = st
	}
	return st, nil
}

// exists asks the tree at most once per path and run.
func (r *run) exists(path string) (*pathState, error) {
	st, err := r.state(path)
	if err != nil {
		return nil, err
	}
	if st.existence != unchecked {
		return st, nil
	}
	ok, err := r.tree.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", path, err)
	}
	if ok {
		st.existence = present
	} else {
		st.existence = absent
	}
	return st, nil
}

// checkExistence reports whether the change can be diffed against the tree.
func (r *run) checkExistence(change model.FileChange) (bool, error) {
	st, err := r.exists(change.File)
	if err != nil {
		return false, err
	}

	switch {
	case change.Kind == model.Add && st.existence == present:
		if !st.existingReported {
			st.existingReported = true
			r.emit(model.UnexpectedExisting{File: change.File})
		}
	case change.Kind != model.Add && st.existence == absent:
		r.reportMissing(st, change.File)
	default:
		return true, nil
	}
	return false, nil
}

func (r *run) reportMissing(st *pathState, path string) {
	if !st.missingReported {
		st.missingReported = true
		r.emit(model.MissingFile{File: path})
	}
}

func (r *run) checkRenameDest(change model.FileChange) error {
	st, err := r.exists(change.Dest)
	if err != nil {
		return err
	}
	if st.existence == present {
		r.emit(model.RenameDestExists{File: change.File, Dest: change.Dest})
	}
	return nil
}
