// Package tree provides read-only views of a working tree that a patch is
// checked against: a directory on disk, an in-memory map, or a git revision.
package tree

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by ReadFile when the path does not exist.
// It wraps fs.ErrNotExist so errors.Is works with either.
var ErrNotFound = fmt.Errorf("file not found: %w", fs.ErrNotExist)

// Tree is a read-only working tree. Paths are relative to the tree root.
type Tree interface {
	// Exists reports whether path is present. A non-nil error means the
	// tree could not answer, not that the file is absent.
	Exists(path string) (bool, error)
	// ReadFile returns the content of path, or an error wrapping ErrNotFound.
	ReadFile(path string) ([]byte, error)
}

// IsNotFound reports whether err means the file is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// Clean normalizes a patch path into the key used by every tree.
func Clean(path string) (string, error) {
	rel := strings.TrimSpace(path)
	if rel == "" {
		return "", fmt.Errorf("invalid patch path %q", path)
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if cleaned == "." {
		return "", fmt.Errorf("invalid patch path %q", path)
	}
	return cleaned, nil
}
