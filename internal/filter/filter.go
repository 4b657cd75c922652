package filter

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sokinpui/patchcheck/model"
)

// Filter decides which file changes of a patch are checked.
type Filter struct {
	include []string
	exclude []string
}

// New validates the include and exclude globs.
func New(include, exclude []string) (*Filter, error) {
	for _, rule := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(rule) {
			return nil, fmt.Errorf("invalid file glob: %v", rule)
		}
	}
	return &Filter{include: include, exclude: exclude}, nil
}

// Match reports whether path passes the filter. With no include rules
// every path not excluded passes.
func (f *Filter) Match(path string) bool {
	if f == nil {
		return true
	}
	for _, rule := range f.exclude {
		if m, _ := doublestar.Match(rule, path); m {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, rule := range f.include {
		if m, _ := doublestar.Match(rule, path); m {
			return true
		}
	}
	return false
}

// Apply returns the patch without the changes the filter rejects. A rename
// is kept when either of its paths passes.
func (f *Filter) Apply(patch model.Patch) model.Patch {
	if f == nil || (len(f.include) == 0 && len(f.exclude) == 0) {
		return patch
	}
	kept := patch
	kept.Changes = nil
	for _, change := range patch.Changes {
		if f.Match(change.File) || (change.Kind == model.Rename && f.Match(change.Dest)) {
			kept.Changes = append(kept.Changes, change)
		}
	}
	return kept
}
