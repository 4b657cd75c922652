package patchcheck

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/patchcheck/internal/config"
	"github.com/sokinpui/patchcheck/internal/source"
	"github.com/sokinpui/patchcheck/internal/tree"
	"github.com/sokinpui/patchcheck/model"
)

// readCounter counts ReadFile calls per path.
type readCounter struct {
	tree.Tree
	mu    sync.Mutex
	reads map[string]int
}

func (r *readCounter) ReadFile(path string) ([]byte, error) {
	r.mu.Lock()
	r.reads[path]++
	r.mu.Unlock()
	return r.Tree.ReadFile(path)
}

func TestMismatchedFilesAreReadOnce(t *testing.T) {
	t.Parallel()

	counter := &readCounter{
		Tree:  tree.NewMem(map[string]string{"a.txt": "x\ny\n"}),
		reads: make(map[string]int),
	}
	app, err := New(config.Default())
	require.NoError(t, err)
	app.tree = counter

	diff := "--- a/a.txt\n+++ b/a.txt\n@@ -1,2 +1,2 @@\n x\n-Y\n+z\n"
	rep, err := app.check(context.Background(), []source.Input{{Name: "fix.diff", Content: diff}})
	require.NoError(t, err)

	require.Len(t, rep.Results, 1)
	res := rep.Results[0]
	assert.Equal(t, []model.Conflict{model.LineMismatch{File: "a.txt", Line: 2, Expected: "Y"}}, res.Conflicts)
	assert.Equal(t, []string{"x", "y"}, res.Snapshot["a.txt"])
	assert.Equal(t, 1, counter.reads["a.txt"])
}
