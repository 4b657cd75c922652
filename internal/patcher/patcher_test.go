package patcher

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/patchcheck/internal/checker"
	"github.com/sokinpui/patchcheck/internal/tree"
	"github.com/sokinpui/patchcheck/model"
)

func numbered(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "l%d\n", i)
	}
	return b.String()
}

func ctx(text string) model.HunkLine { return model.HunkLine{Role: model.Context, Text: text} }
func add(text string) model.HunkLine { return model.HunkLine{Role: model.Added, Text: text} }
func del(text string) model.HunkLine { return model.HunkLine{Role: model.Removed, Text: text} }

func hunkAt(start int, lines ...model.HunkLine) model.Hunk {
	return model.Hunk{
		InputRange:  model.Range{Start: start},
		OutputRange: model.Range{Start: start},
		Lines:       lines,
	}
}

func TestMatchBlockIgnoresWhitespace(t *testing.T) {
	t.Parallel()

	source := []string{"func a() {", "", "   return  1", "}"}
	assert.Equal(t, 3, matchBlock(source, []string{"return 1", "}"}, 1))
	assert.Equal(t, -1, matchBlock(source, []string{"return 2"}, 1))
	assert.Equal(t, -1, matchBlock(source, nil, 1))
	assert.Equal(t, -1, matchBlock(source, []string{"func a() {"}, 2), "search starts at from")
}

func TestLocate(t *testing.T) {
	t.Parallel()

	source := checker.SplitLines([]byte("x\ny\nx\ny\n"))
	hunk := hunkAt(1, ctx("x"), del("y"))

	assert.Equal(t, 1, Locate(source, hunk, 1))
	assert.Equal(t, 3, Locate(source, hunk, 2))
	assert.Equal(t, -1, Locate(source, hunkAt(1, add("only added")), 1))
}

func TestLocateSkipsLeadingBlankLines(t *testing.T) {
	t.Parallel()

	source := checker.SplitLines([]byte("a\n\nc\n"))
	assert.Equal(t, 2, Locate(source, hunkAt(7, ctx(""), ctx("c")), 1))
}

func TestRelocations(t *testing.T) {
	t.Parallel()

	source := checker.SplitLines([]byte(numbered(10)))
	change := model.FileChange{Kind: model.Modify, File: "f.txt", Hunks: []model.Hunk{
		hunkAt(2, ctx("l2"), add("new")),
		hunkAt(5, ctx("l8"), del("l9")),
		hunkAt(6, ctx("not in the file")),
	}}

	assert.Equal(t, []model.Relocation{{File: "f.txt", Declared: 5, Found: 8}}, Relocations(source, change))
}

func TestFixChangeRelocatesAndRecomputesHeaders(t *testing.T) {
	t.Parallel()

	mem := tree.NewMem(map[string]string{"f.txt": numbered(10)})
	change := model.FileChange{Kind: model.Modify, File: "f.txt", Hunks: []model.Hunk{
		{
			InputRange:  model.Range{Start: 2, Length: model.Len(7)},
			OutputRange: model.Range{Start: 40},
			Lines:       []model.HunkLine{ctx("l2"), add("new")},
		},
		hunkAt(5, ctx("l8"), del("l9")),
	}}

	fixed, err := FixChange(mem, change, checker.Options{})
	require.NoError(t, err)

	require.Len(t, fixed.Hunks, 2)
	assert.Equal(t, model.Range{Start: 2, Length: model.Len(1)}, fixed.Hunks[0].InputRange)
	assert.Equal(t, model.Range{Start: 2, Length: model.Len(2)}, fixed.Hunks[0].OutputRange)
	assert.Equal(t, model.Range{Start: 8, Length: model.Len(2)}, fixed.Hunks[1].InputRange)
	assert.Equal(t, model.Range{Start: 9, Length: model.Len(1)}, fixed.Hunks[1].OutputRange)

	assert.Equal(t, 7, *change.Hunks[0].InputRange.Length, "input change is not modified")

	conflicts, err := checker.Check(mem, model.Patch{Changes: []model.FileChange{fixed}}, checker.Options{})
	require.NoError(t, err)
	assert.Empty(t, conflicts, "a fixed change checks clean")
}

func TestFixChangeGitZeroRanges(t *testing.T) {
	t.Parallel()

	mem := tree.NewMem(map[string]string{"f.txt": numbered(3)})
	change := model.FileChange{Kind: model.Modify, File: "f.txt", Hunks: []model.Hunk{
		hunkAt(2, del("l2")),
	}}

	opts := checker.Options{GitZeroRanges: true}
	fixed, err := FixChange(mem, change, opts)
	require.NoError(t, err)
	assert.Equal(t, model.Range{Start: 1, Length: model.Len(0)}, fixed.Hunks[0].OutputRange)

	conflicts, err := checker.Check(mem, model.Patch{Changes: []model.FileChange{fixed}}, opts)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestFixChangeAddAndDelete(t *testing.T) {
	t.Parallel()

	mem := tree.NewMem(nil)

	added, err := FixChange(mem, model.FileChange{Kind: model.Add, File: "n.txt", Hunks: []model.Hunk{
		hunkAt(3, add("a"), add("b")),
	}}, checker.Options{})
	require.NoError(t, err)
	assert.Equal(t, model.Range{Start: 0, Length: model.Len(0)}, added.Hunks[0].InputRange)
	assert.Equal(t, model.Range{Start: 1, Length: model.Len(2)}, added.Hunks[0].OutputRange)

	deleted, err := FixChange(mem, model.FileChange{Kind: model.Delete, File: "o.txt", Hunks: []model.Hunk{
		hunkAt(3, del("a")),
	}}, checker.Options{})
	require.NoError(t, err)
	assert.Equal(t, model.Range{Start: 1, Length: model.Len(1)}, deleted.Hunks[0].InputRange)
	assert.Equal(t, model.Range{Start: 0, Length: model.Len(0)}, deleted.Hunks[0].OutputRange)
}

func TestFixPatchKeepsUnfixableChanges(t *testing.T) {
	t.Parallel()

	mem := tree.NewMem(map[string]string{"f.txt": "a\n"})
	patch := model.Patch{Title: "t", Changes: []model.FileChange{
		{Kind: model.Modify, File: "f.txt", Hunks: []model.Hunk{hunkAt(1, del("zzz"))}},
		{Kind: model.Modify, File: "missing.txt", Hunks: []model.Hunk{hunkAt(1, del("a"))}},
	}}

	fixed, failures := FixPatch(mem, patch, checker.Options{})
	assert.Equal(t, patch, fixed)
	require.Len(t, failures, 2)
	assert.Equal(t, "f.txt", failures[0].File)
	assert.Contains(t, failures[0].Error(), "could not find matching block for hunk 1")
	assert.True(t, tree.IsNotFound(failures[1].Err))
}

func TestFormat(t *testing.T) {
	t.Parallel()

	patches := []model.Patch{{Changes: []model.FileChange{
		{Kind: model.Modify, File: "m.txt", Hunks: []model.Hunk{{
			InputRange:  model.Range{Start: 1, Length: model.Len(2)},
			OutputRange: model.Range{Start: 1},
			Lines:       []model.HunkLine{ctx("a"), del("b"), add("c")},
		}}},
		{Kind: model.Rename, File: "old.txt", Dest: "new.txt"},
		{Kind: model.Add, File: "n.txt", Hunks: []model.Hunk{{
			InputRange:  model.Range{Start: 0, Length: model.Len(0)},
			OutputRange: model.Range{Start: 1, Length: model.Len(1)},
			Lines:       []model.HunkLine{add("x")},
		}}},
	}}}

	want := "diff --git a/m.txt b/m.txt\n" +
		"--- a/m.txt\n+++ b/m.txt\n" +
		"@@ -1,2 +1 @@\n a\n-b\n+c\n" +
		"diff --git a/old.txt b/new.txt\nrename from old.txt\nrename to new.txt\n" +
		"diff --git a/n.txt b/n.txt\nnew file mode 100644\n" +
		"--- /dev/null\n+++ b/n.txt\n" +
		"@@ -0,0 +1,1 @@\n+x\n"
	assert.Equal(t, want, Format(patches))
}
