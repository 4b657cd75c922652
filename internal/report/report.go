// Package report turns conflicts into the messages shown to the user.
package report

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/sokinpui/patchcheck/model"
)

// Entry is one printable problem: a single conflict, or a range of
// consecutive mismatching lines of one file.
type Entry struct {
	Kind string
	File string
	// Dest is set for failed renames.
	Dest string
	// Start and End delimit the reported lines; both are zero for
	// file level conflicts.
	Start, End int
	// Detail explains a corrupted hunk.
	Detail string
	// Actual holds the live lines of a mismatch range and Expected the
	// lines the patch asserts there.
	Actual   []string
	Expected []string
}

// Headline is the first line of the entry's message. path styles the
// file names in it and may be nil.
func (e Entry) Headline(path func(string) string) string {
	if path == nil {
		path = func(s string) string { return s }
	}
	switch e.Kind {
	case "missingFile":
		return "File does not exist: " + path(e.File)
	case "unexpectedExisting":
		return "File already exists: " + path(e.File)
	case "renameDestExists":
		return "Rename failed. File already exists: " + path(e.Dest)
	case "malformedHunk":
		return fmt.Sprintf("Diff for line %d of %s is corrupted:", e.Start, path(e.File))
	case "lineMismatch":
		if e.Start == e.End {
			return fmt.Sprintf("Line %d of %s does not match:", e.Start, path(e.File))
		}
		return fmt.Sprintf("Lines %d-%d of %s do not match:", e.Start, e.End, path(e.File))
	}
	return path(e.File)
}

// LineReader returns the lines of a file in the checked tree.
type LineReader func(path string) ([]string, error)

// Build converts the conflicts of one patch into entries. The first
// conflict of a file is shown last, so reading from the bottom of the
// terminal up follows the file from the top down. Mismatch ranges come
// after every other entry.
func Build(conflicts []model.Conflict, read LineReader) []Entry {
	reversed := slices.Clone(conflicts)
	slices.Reverse(reversed)

	var entries []Entry
	var ranges []*Entry
	var current *Entry
	for _, c := range reversed {
		switch c := c.(type) {
		case model.MissingFile:
			entries = append(entries, Entry{Kind: model.Kind(c), File: c.File})
		case model.UnexpectedExisting:
			entries = append(entries, Entry{Kind: model.Kind(c), File: c.File})
		case model.RenameDestExists:
			entries = append(entries, Entry{Kind: model.Kind(c), File: c.File, Dest: c.Dest})
		case model.MalformedHunk:
			entries = append(entries, Entry{Kind: model.Kind(c), File: c.File, Start: c.Line, End: c.Line, Detail: c.Message})
		case model.LineMismatch:
			if current != nil && current.File == c.File && c.Line == current.Start-1 {
				current.Start--
				current.Expected = append([]string{c.Expected}, current.Expected...)
				continue
			}
			current = &Entry{Kind: model.Kind(c), File: c.File, Start: c.Line, End: c.Line, Expected: []string{c.Expected}}
			ranges = append(ranges, current)
		}
	}

	lines := map[string][]string{}
	for _, r := range ranges {
		source, ok := lines[r.File]
		if !ok && read != nil {
			source, _ = read(r.File)
			lines[r.File] = source
		}
		r.Actual = sliceLines(source, r.Start, r.End)
		entries = append(entries, *r)
	}
	return entries
}

// sliceLines returns lines start..end (1-based, inclusive) that exist.
func sliceLines(source []string, start, end int) []string {
	from := max(start, 1) - 1
	to := min(end, len(source))
	if from >= to {
		return nil
	}
	return source[from:to]
}

// Stats counts the conflicts of a report and the files they touch.
type Stats struct {
	Conflicts int
	Files     int
	Missing   int
}

// Count summarises a report.
func Count(r model.Report) Stats {
	conflicts := r.Conflicts()
	files := lo.Uniq(lo.Map(conflicts, func(c model.Conflict, _ int) string { return c.Path() }))
	return Stats{Conflicts: len(conflicts), Files: len(files), Missing: len(r.Missing)}
}
