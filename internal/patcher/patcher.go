package patcher

import (
	"fmt"
	"strings"

	"github.com/sokinpui/patchcheck/internal/checker"
	"github.com/sokinpui/patchcheck/internal/tree"
	"github.com/sokinpui/patchcheck/model"
)

// Failure is a file change that could not be corrected.
type Failure struct {
	File string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.File, f.Err)
}

// FixPatch relocates every hunk of the patch to where its pre-change lines
// sit in t and rewrites the hunk headers to agree with the hunk bodies.
// Changes that cannot be corrected are kept as they were and reported.
func FixPatch(t tree.Tree, patch model.Patch, opts checker.Options) (model.Patch, []Failure) {
	fixed := model.Patch{Title: patch.Title}
	var failures []Failure
	for _, change := range patch.Changes {
		corrected, err := FixChange(t, change, opts)
		if err != nil {
			failures = append(failures, Failure{File: change.File, Err: err})
			corrected = change
		}
		fixed.Changes = append(fixed.Changes, corrected)
	}
	return fixed, failures
}

// FixChange corrects the hunk headers of one file change.
func FixChange(t tree.Tree, change model.FileChange, opts checker.Options) (model.FileChange, error) {
	fixed := change
	fixed.Hunks = make([]model.Hunk, len(change.Hunks))
	copy(fixed.Hunks, change.Hunks)

	switch change.Kind {
	case model.Add:
		for i := range fixed.Hunks {
			_, newLength := checker.CountLines(fixed.Hunks[i])
			fixed.Hunks[i].InputRange = model.Range{Start: 0, Length: model.Len(0)}
			fixed.Hunks[i].OutputRange = model.Range{Start: min(1, newLength), Length: model.Len(newLength)}
		}
		return fixed, nil
	case model.Delete:
		for i := range fixed.Hunks {
			oldLength, _ := checker.CountLines(fixed.Hunks[i])
			fixed.Hunks[i].InputRange = model.Range{Start: min(1, oldLength), Length: model.Len(oldLength)}
			fixed.Hunks[i].OutputRange = model.Range{Start: 0, Length: model.Len(0)}
		}
		return fixed, nil
	}

	if len(change.Hunks) == 0 {
		return fixed, nil
	}

	content, err := t.ReadFile(change.File)
	if err != nil {
		return change, err
	}
	source := checker.SplitLines(content)

	offset := 0
	from := 1
	for i := range fixed.Hunks {
		hunk := &fixed.Hunks[i]
		oldLength, newLength := checker.CountLines(*hunk)

		start := hunk.InputRange.Start
		if !matchesAt(source, *hunk, start) {
			if found := Locate(source, *hunk, from); found != -1 {
				start = found
			} else if block, _ := targetBlock(*hunk); len(block) > 0 {
				return change, fmt.Errorf("could not find matching block for hunk %d", i+1)
			}
		}

		hunk.InputRange = model.Range{Start: start, Length: model.Len(oldLength)}
		hunk.OutputRange = model.Range{Length: model.Len(newLength)}
		hunk.OutputRange.Start = checker.ExpectedOutputStart(*hunk, offset, opts)

		offset += newLength - oldLength
		from = start + oldLength
	}
	return fixed, nil
}

func buildHunkHeader(hunk model.Hunk) string {
	side := func(r model.Range) string {
		if r.Length == nil {
			return fmt.Sprint(r.Start)
		}
		return fmt.Sprintf("%d,%d", r.Start, *r.Length)
	}
	return fmt.Sprintf("@@ -%s +%s @@\n", side(hunk.InputRange), side(hunk.OutputRange))
}

// Format renders patches as a git style unified diff.
func Format(patches []model.Patch) string {
	var b strings.Builder
	for _, patch := range patches {
		for _, change := range patch.Changes {
			writeChange(&b, change)
		}
	}
	return b.String()
}

func writeChange(b *strings.Builder, change model.FileChange) {
	oldName, newName := "a/"+change.File, "b/"+change.File
	switch change.Kind {
	case model.Add:
		fmt.Fprintf(b, "diff --git %s %s\nnew file mode 100644\n", oldName, newName)
		oldName = "/dev/null"
	case model.Delete:
		fmt.Fprintf(b, "diff --git %s %s\ndeleted file mode 100644\n", oldName, newName)
		newName = "/dev/null"
	case model.Rename:
		newName = "b/" + change.Dest
		fmt.Fprintf(b, "diff --git %s %s\nrename from %s\nrename to %s\n", oldName, newName, change.File, change.Dest)
	default:
		fmt.Fprintf(b, "diff --git %s %s\n", oldName, newName)
	}

	if len(change.Hunks) == 0 {
		return
	}
	fmt.Fprintf(b, "--- %s\n+++ %s\n", oldName, newName)
	for _, hunk := range change.Hunks {
		b.WriteString(buildHunkHeader(hunk))
		for _, line := range hunk.Lines {
			switch line.Role {
			case model.Added:
				b.WriteByte('+')
			case model.Removed:
				b.WriteByte('-')
			default:
				b.WriteByte(' ')
			}
			b.WriteString(line.Text)
			b.WriteByte('\n')
		}
	}
}
