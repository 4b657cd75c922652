package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/patchcheck/model"
)

func TestDirs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	patchFile := filepath.Join(root, "fix.diff")

	patches := []model.Patch{{Changes: []model.FileChange{
		{Kind: model.Modify, File: "src/main.go"},
		{Kind: model.Add, File: "docs/new/guide.md"},
		{Kind: model.Rename, File: "src/old.go", Dest: "pkg/new.go"},
	}}}

	dirs := Dirs(root, []string{patchFile}, patches)
	assert.Equal(t, []string{root, filepath.Join(root, "src")}, dirs)
}

func TestSetReplacesWatchedDirs(t *testing.T) {
	t.Parallel()

	a, b := t.TempDir(), t.TempDir()
	w, err := New(0)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	w.Set([]string{a, a})
	assert.Equal(t, []string{a}, w.Watched())

	w.Set([]string{b})
	assert.Equal(t, []string{b}, w.Watched())
}

func TestRunDebouncesEvents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w, err := New(50 * time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	w.Set([]string{dir})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { changes <- struct{}{} })
	}()

	path := filepath.Join(dir, "a.txt")
	for i := range 3 {
		require.NoError(t, os.WriteFile(path, []byte{byte('a' + i)}, 0o644))
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case <-changes:
		t.Fatal("a burst of writes was reported more than once")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}
