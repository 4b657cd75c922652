package report

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Span is a piece of a line, marked when it differs from the other side.
type Span struct {
	Text    string
	Changed bool
}

// Highlight splits an actual and an expected line into spans so the
// characters that differ can be emphasised.
func Highlight(actual, expected string) (was, want []Span) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(actual, expected, false))

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			was = append(was, Span{Text: d.Text})
			want = append(want, Span{Text: d.Text})
		case diffmatchpatch.DiffDelete:
			was = append(was, Span{Text: d.Text, Changed: true})
		case diffmatchpatch.DiffInsert:
			want = append(want, Span{Text: d.Text, Changed: true})
		}
	}
	return was, want
}
