package report

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/patchcheck/model"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func reader(files map[string]string) LineReader {
	return func(path string) ([]string, error) {
		return strings.Split(strings.TrimSuffix(files[path], "\n"), "\n"), nil
	}
}

func TestBuildGroupsAndReverses(t *testing.T) {
	t.Parallel()

	conflicts := []model.Conflict{
		model.MissingFile{File: "gone.txt"},
		model.LineMismatch{File: "a.txt", Line: 2, Expected: "B"},
		model.LineMismatch{File: "a.txt", Line: 3, Expected: "C"},
		model.LineMismatch{File: "a.txt", Line: 4, Expected: "D"},
		model.LineMismatch{File: "a.txt", Line: 9, Expected: "I"},
		model.MalformedHunk{File: "a.txt", Line: 2, Message: "header declares 5 post-change lines but the hunk has 2"},
		model.RenameDestExists{File: "x", Dest: "y"},
	}
	read := reader(map[string]string{"a.txt": "a\nb\nc\nd\ne\nf\ng\nh\ni\n"})

	entries := Build(conflicts, read)
	require.Len(t, entries, 5)

	assert.Equal(t, "renameDestExists", entries[0].Kind)
	assert.Equal(t, "malformedHunk", entries[1].Kind)
	assert.Equal(t, "missingFile", entries[2].Kind)

	assert.Equal(t, Entry{Kind: "lineMismatch", File: "a.txt", Start: 9, End: 9, Actual: []string{"i"}, Expected: []string{"I"}}, entries[3])
	assert.Equal(t, Entry{
		Kind:     "lineMismatch",
		File:     "a.txt",
		Start:    2,
		End:      4,
		Actual:   []string{"b", "c", "d"},
		Expected: []string{"B", "C", "D"},
	}, entries[4])
}

func TestBuildOutOfRangeLines(t *testing.T) {
	t.Parallel()

	conflicts := []model.Conflict{
		model.LineMismatch{File: "a.txt", Line: 2, Expected: "two"},
		model.LineMismatch{File: "a.txt", Line: 3, Expected: "three"},
	}
	entries := Build(conflicts, reader(map[string]string{"a.txt": "one\n"}))
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Actual)
	assert.Equal(t, []string{"two", "three"}, entries[0].Expected)
}

func TestHeadline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		entry Entry
		want  string
	}{
		{Entry{Kind: "missingFile", File: "f"}, "File does not exist: f"},
		{Entry{Kind: "unexpectedExisting", File: "f"}, "File already exists: f"},
		{Entry{Kind: "renameDestExists", File: "f", Dest: "g"}, "Rename failed. File already exists: g"},
		{Entry{Kind: "malformedHunk", File: "f", Start: 4, End: 4}, "Diff for line 4 of f is corrupted:"},
		{Entry{Kind: "lineMismatch", File: "f", Start: 4, End: 4}, "Line 4 of f does not match:"},
		{Entry{Kind: "lineMismatch", File: "f", Start: 4, End: 6}, "Lines 4-6 of f do not match:"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.entry.Headline(nil))
	}

	quoted := Entry{Kind: "missingFile", File: "f"}.Headline(func(s string) string { return "<" + s + ">" })
	assert.Equal(t, "File does not exist: <f>", quoted)
}

func TestSummary(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "No conflicts found.", Summary(Stats{}))
	assert.Equal(t, "Found 1 conflict in 1 file", Summary(Stats{Conflicts: 1, Files: 1}))
	assert.Equal(t, "Found 3 conflicts in 2 files", Summary(Stats{Conflicts: 3, Files: 2}))
	assert.Equal(t, "2 patches do not exist", Summary(Stats{Missing: 2}))
	assert.Equal(t, "Found 2 conflicts in 1 file; 1 patch does not exist", Summary(Stats{Conflicts: 2, Files: 1, Missing: 1}))
}

func TestCount(t *testing.T) {
	t.Parallel()

	rep := model.Report{
		Results: []model.Result{
			{Conflicts: []model.Conflict{model.MissingFile{File: "a"}, model.LineMismatch{File: "b", Line: 1}}},
			{Conflicts: []model.Conflict{model.LineMismatch{File: "b", Line: 2}}},
		},
		Missing: []string{"p.diff"},
	}
	assert.Equal(t, Stats{Conflicts: 3, Files: 2, Missing: 1}, Count(rep))
}

func TestHighlight(t *testing.T) {
	t.Parallel()

	was, want := Highlight("return a + b", "return a - b")
	assert.Equal(t, "return a + b", joinSpans(was))
	assert.Equal(t, "return a - b", joinSpans(want))
	assert.Contains(t, was, Span{Text: "+", Changed: true})
	assert.Contains(t, want, Span{Text: "-", Changed: true})
}

func joinSpans(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

func TestRender(t *testing.T) {
	t.Parallel()

	rep := model.Report{
		Results: []model.Result{{
			Source: "fix.diff",
			Conflicts: []model.Conflict{
				model.LineMismatch{File: "a.txt", Line: 1, Expected: "hello"},
			},
			Relocations: []model.Relocation{{File: "a.txt", Declared: 1, Found: 3}},
			Snapshot:    map[string][]string{"a.txt": {"hi"}},
		}},
		Missing: []string{"gone.diff"},
	}

	var buf bytes.Buffer
	Render(&buf, rep)
	out := buf.String()

	assert.Contains(t, out, "✗ Patch does not exist: gone.diff\n")
	assert.Contains(t, out, "✗ Line 1 of a.txt does not match:\n - hi\n + hello\n")
	assert.Contains(t, out, "hint: the hunk declared at line 1 of a.txt matches at line 3")
	assert.Contains(t, out, "Found 1 conflict in 1 file; 1 patch does not exist")
	assert.NotContains(t, out, "--- fix.diff", "a single untitled result has no heading")
}

func TestRenderClean(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Render(&buf, model.Report{Results: []model.Result{{Source: "fix.diff"}}})
	assert.Equal(t, "\n✨ No conflicts found.\n", buf.String())
}

func TestRenderHeadingsForSeveralResults(t *testing.T) {
	t.Parallel()

	rep := model.Report{Results: []model.Result{
		{Source: "one.diff", Conflicts: []model.Conflict{model.MissingFile{File: "a"}}},
		{Source: "two.diff", Patch: model.Patch{Title: "Add b"}, Conflicts: []model.Conflict{model.UnexpectedExisting{File: "b"}}},
	}}

	var buf bytes.Buffer
	Render(&buf, rep)
	assert.Contains(t, buf.String(), "--- one.diff ---")
	assert.Contains(t, buf.String(), "--- two.diff: Add b ---")
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rep := model.Report{Results: []model.Result{{
		Source:    "fix.diff",
		Conflicts: []model.Conflict{model.RenameDestExists{File: "a", Dest: "b"}},
	}}}

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rep))

	var doc struct {
		Failed  bool   `json:"failed"`
		Summary string `json:"summary"`
		Results []struct {
			Source    string              `json:"source"`
			Conflicts []map[string]string `json:"conflicts"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.True(t, doc.Failed)
	assert.Equal(t, "Found 1 conflict in 1 file", doc.Summary)
	require.Len(t, doc.Results, 1)
	assert.Equal(t, map[string]string{"kind": "renameDestExists", "file": "a", "dest": "b"}, doc.Results[0].Conflicts[0])
}
