package model

import "fmt"

// ChangeKind is the kind of change a patch makes to one file.
type ChangeKind string

const (
	Add    ChangeKind = "add"
	Delete ChangeKind = "delete"
	Modify ChangeKind = "modify"
	Rename ChangeKind = "rename"
)

// LineRole tells whether a hunk line exists before the change, after it, or both.
type LineRole string

const (
	Context LineRole = "context"
	Added   LineRole = "added"
	Removed LineRole = "removed"
)

// Patch is one parsed patch: an ordered list of file changes.
type Patch struct {
	// Title is the commit subject or markdown hint the patch came with, if any.
	Title   string       `json:"title,omitempty"`
	Changes []FileChange `json:"changes"`
}

// FileChange represents a single planned change to a file.
type FileChange struct {
	Kind ChangeKind `json:"kind"`
	File string     `json:"file"`
	// Dest is only meaningful for Rename.
	Dest string `json:"dest,omitempty"`
	// Hunks are only consulted for Modify and Rename.
	Hunks []Hunk `json:"hunks,omitempty"`
}

// Range is one side of a hunk header. A nil Length means the patch format
// did not declare it, which is not the same as zero.
type Range struct {
	Start  int  `json:"start"`
	Length *int `json:"length,omitempty"`
}

// Hunk is a contiguous block of a file change.
type Hunk struct {
	InputRange  Range      `json:"inputRange"`
	OutputRange Range      `json:"outputRange"`
	Lines       []HunkLine `json:"lines"`
}

// HunkLine is a single line of a hunk body.
type HunkLine struct {
	Role LineRole `json:"role"`
	Text string   `json:"text"`
}

// Len returns a pointer to n, for declaring range lengths.
func Len(n int) *int {
	return &n
}

// InOld reports whether the line is asserted present in the pre-change file.
func (l HunkLine) InOld() bool {
	return l.Role == Context || l.Role == Removed
}

// InNew reports whether the line is present in the post-change file.
func (l HunkLine) InNew() bool {
	return l.Role == Context || l.Role == Added
}

// Validate checks the fields a change needs before it can be checked at all.
func (c FileChange) Validate() error {
	switch c.Kind {
	case Add, Delete, Modify:
	case Rename:
		if c.Dest == "" {
			return fmt.Errorf("rename of %q has no destination", c.File)
		}
	default:
		return fmt.Errorf("unknown change kind %q for %q", c.Kind, c.File)
	}
	if c.File == "" {
		return fmt.Errorf("%s change has no file path", c.Kind)
	}
	return nil
}
