package tree

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
	}

	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func TestGitReadsCommittedContent(t *testing.T) {
	t.Parallel()

	dir := initRepo(t, map[string]string{
		"a.txt":     "committed\n",
		"sub/b.txt": "b\n",
	})
	// Working copy edits are invisible to a revision tree.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("edited\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "untracked.txt"), []byte("u\n"), 0o644))

	g, err := NewGit(dir, "")
	require.NoError(t, err)
	assert.Equal(t, "HEAD", g.Revision())

	content, err := g.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "committed\n", string(content))

	ok, err := g.Exists("untracked.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.Exists("sub/b.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = g.ReadFile("untracked.txt")
	assert.True(t, IsNotFound(err))
}

func TestGitResolvesPathsFromSubdirectory(t *testing.T) {
	t.Parallel()

	dir := initRepo(t, map[string]string{"sub/b.txt": "b\n"})

	g, err := NewGit(filepath.Join(dir, "sub"), "HEAD")
	require.NoError(t, err)

	content, err := g.ReadFile("b.txt")
	require.NoError(t, err)
	assert.Equal(t, "b\n", string(content))
}

func TestGitUnknownRevision(t *testing.T) {
	t.Parallel()

	dir := initRepo(t, map[string]string{"a.txt": "a\n"})

	_, err := NewGit(dir, "does-not-exist")
	assert.Error(t, err)
}
