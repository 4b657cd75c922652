package tree

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Git is a tree backed by a committed revision of a git repository.
// Paths are resolved relative to dir, which may be a subdirectory of the worktree.
type Git struct {
	mu     sync.Mutex
	tree   *object.Tree
	prefix string
	rev    string
}

// NewGit opens the repository containing dir and resolves rev (e.g. "HEAD", a branch, a sha).
func NewGit(dir, rev string) (*Git, error) {
	if strings.TrimSpace(rev) == "" {
		rev = "HEAD"
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid root %s: %w", dir, err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", dir, err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve revision %s: %w", rev, err)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", hash, err)
	}
	gitTree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to load tree of %s: %w", hash, err)
	}

	prefix := ""
	if wt, err := repo.Worktree(); err == nil {
		if rel, err := filepath.Rel(wt.Filesystem.Root(), abs); err == nil && rel != "." {
			prefix = filepath.ToSlash(rel)
		}
	}

	return &Git{tree: gitTree, prefix: prefix, rev: rev}, nil
}

// Revision returns the revision the tree was resolved from.
func (g *Git) Revision() string {
	return g.rev
}

func (g *Git) entryPath(p string) (string, error) {
	rel, err := Clean(p)
	if err != nil {
		return "", err
	}
	slashed := filepath.ToSlash(rel)
	if g.prefix != "" {
		slashed = path.Join(g.prefix, slashed)
	}
	return slashed, nil
}

func (g *Git) Exists(p string) (bool, error) {
	name, err := g.entryPath(p)
	if err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	_, err = g.tree.FindEntry(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, object.ErrEntryNotFound), errors.Is(err, object.ErrDirectoryNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to look up %s at %s: %w", p, g.rev, err)
	}
}

func (g *Git) ReadFile(p string) ([]byte, error) {
	name, err := g.entryPath(p)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	file, err := g.tree.File(name)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up %s at %s: %w", p, g.rev, err)
	}
	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s at %s: %w", p, g.rev, err)
	}
	return []byte(content), nil
}
