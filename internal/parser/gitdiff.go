package parser

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/sokinpui/patchcheck/model"
)

// ParseGitDiff parses diff text with go-gitdiff, which rejects hunks whose
// bodies disagree with their headers instead of checking them.
func ParseGitDiff(text string) ([]model.Patch, error) {
	var patches []model.Patch
	for _, chunk := range splitMbox(splitLines(text)) {
		files, preamble, err := gitdiff.Parse(strings.NewReader(strings.Join(chunk, "\n")+"\n"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse diff: %w", err)
		}

		patch := model.Patch{Title: patchTitle(preamble)}
		for _, f := range files {
			if f.IsBinary {
				continue
			}
			patch.Changes = append(patch.Changes, convertFile(f))
		}
		if len(patch.Changes) > 0 {
			patches = append(patches, patch)
		}
	}
	return patches, nil
}

func patchTitle(preamble string) string {
	if strings.TrimSpace(preamble) == "" {
		return ""
	}
	header, err := gitdiff.ParsePatchHeader(preamble)
	if err != nil {
		return ""
	}
	return header.Title
}

func convertFile(f *gitdiff.File) model.FileChange {
	change := model.FileChange{}
	switch {
	case f.IsNew, f.IsCopy:
		change.Kind, change.File = model.Add, f.NewName
	case f.IsDelete:
		change.Kind, change.File = model.Delete, f.OldName
	case f.IsRename:
		change.Kind, change.File, change.Dest = model.Rename, f.OldName, f.NewName
	default:
		change.Kind, change.File = model.Modify, f.NewName
	}

	for _, frag := range f.TextFragments {
		change.Hunks = append(change.Hunks, convertFragment(frag))
	}
	return change
}

func convertFragment(frag *gitdiff.TextFragment) model.Hunk {
	hunk := model.Hunk{
		InputRange:  model.Range{Start: int(frag.OldPosition), Length: model.Len(int(frag.OldLines))},
		OutputRange: model.Range{Start: int(frag.NewPosition), Length: model.Len(int(frag.NewLines))},
	}
	for _, l := range frag.Lines {
		text := strings.TrimSuffix(strings.TrimSuffix(l.Line, "\n"), "\r")
		switch l.Op {
		case gitdiff.OpContext:
			hunk.Lines = append(hunk.Lines, model.HunkLine{Role: model.Context, Text: text})
		case gitdiff.OpAdd:
			hunk.Lines = append(hunk.Lines, model.HunkLine{Role: model.Added, Text: text})
		case gitdiff.OpDelete:
			hunk.Lines = append(hunk.Lines, model.HunkLine{Role: model.Removed, Text: text})
		}
	}
	return hunk
}
