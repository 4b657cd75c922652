package model

import (
	"encoding/json"
	"fmt"
)

// Conflict is one detected disagreement between a patch and the working tree.
// The set of implementations is closed: MissingFile, UnexpectedExisting,
// RenameDestExists, LineMismatch and MalformedHunk.
type Conflict interface {
	// Path is the file the conflict is reported against.
	Path() string
	fmt.Stringer
	conflict()
}

// MissingFile: a non-Add change references a file that does not exist.
type MissingFile struct {
	File string
}

// UnexpectedExisting: an Add change references a file that already exists.
type UnexpectedExisting struct {
	File string
}

// RenameDestExists: the rename target is already occupied.
type RenameDestExists struct {
	File string
	Dest string
}

// LineMismatch: the live content at Line differs from the hunk's expected text.
type LineMismatch struct {
	File     string
	Line     int
	Expected string
}

// MalformedHunk: a hunk header disagrees with the hunk body.
type MalformedHunk struct {
	File    string
	Line    int
	Message string
}

func (MissingFile) conflict()        {}
func (UnexpectedExisting) conflict() {}
func (RenameDestExists) conflict()   {}
func (LineMismatch) conflict()       {}
func (MalformedHunk) conflict()      {}

func (c MissingFile) Path() string        { return c.File }
func (c UnexpectedExisting) Path() string { return c.File }
func (c RenameDestExists) Path() string   { return c.File }
func (c LineMismatch) Path() string       { return c.File }
func (c MalformedHunk) Path() string      { return c.File }

func (c MissingFile) String() string {
	return fmt.Sprintf("%s: file does not exist", c.File)
}

func (c UnexpectedExisting) String() string {
	return fmt.Sprintf("%s: file already exists", c.File)
}

func (c RenameDestExists) String() string {
	return fmt.Sprintf("%s: rename destination %s already exists", c.File, c.Dest)
}

func (c LineMismatch) String() string {
	return fmt.Sprintf("%s:%d: expected %q", c.File, c.Line, c.Expected)
}

func (c MalformedHunk) String() string {
	return fmt.Sprintf("%s:%d: malformed hunk: %s", c.File, c.Line, c.Message)
}

// Kind names the variant, as used in JSON output.
func Kind(c Conflict) string {
	switch c.(type) {
	case MissingFile:
		return "missingFile"
	case UnexpectedExisting:
		return "unexpectedExisting"
	case RenameDestExists:
		return "renameDestExists"
	case LineMismatch:
		return "lineMismatch"
	case MalformedHunk:
		return "malformedHunk"
	default:
		return "unknown"
	}
}

type conflictJSON struct {
	Kind     string `json:"kind"`
	File     string `json:"file"`
	Dest     string `json:"dest,omitempty"`
	Line     int    `json:"line,omitempty"`
	Expected string `json:"expected,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (c MissingFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(conflictJSON{Kind: Kind(c), File: c.File})
}

func (c UnexpectedExisting) MarshalJSON() ([]byte, error) {
	return json.Marshal(conflictJSON{Kind: Kind(c), File: c.File})
}

func (c RenameDestExists) MarshalJSON() ([]byte, error) {
	return json.Marshal(conflictJSON{Kind: Kind(c), File: c.File, Dest: c.Dest})
}

func (c LineMismatch) MarshalJSON() ([]byte, error) {
	return json.Marshal(conflictJSON{Kind: Kind(c), File: c.File, Line: c.Line, Expected: c.Expected})
}

func (c MalformedHunk) MarshalJSON() ([]byte, error) {
	return json.Marshal(conflictJSON{Kind: Kind(c), File: c.File, Line: c.Line, Message: c.Message})
}
