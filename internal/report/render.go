package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gertd/go-pluralize"

	"github.com/sokinpui/patchcheck/internal/ui"
	"github.com/sokinpui/patchcheck/model"
)

var (
	actualColor   = color.New(color.FgRed)
	expectedColor = color.New(color.FgGreen)
	changedActual = color.New(color.FgRed, color.Bold, color.Underline)
	changedWanted = color.New(color.FgGreen, color.Bold, color.Underline)
	bulletColor   = color.New(color.FgRed, color.Bold)
)

var plural = pluralize.NewClient()

// Summary is the closing line of a run.
func Summary(s Stats) string {
	if s.Conflicts == 0 && s.Missing == 0 {
		return "No conflicts found."
	}
	var parts []string
	if s.Conflicts > 0 {
		parts = append(parts, fmt.Sprintf("Found %s in %s",
			plural.Pluralize("conflict", s.Conflicts, true),
			plural.Pluralize("file", s.Files, true)))
	}
	if s.Missing > 0 {
		verb := "does"
		if s.Missing > 1 {
			verb = "do"
		}
		parts = append(parts, fmt.Sprintf("%s %s not exist", plural.Pluralize("patch", s.Missing, true), verb))
	}
	return strings.Join(parts, "; ")
}

// Render writes a human readable report. The live lines shown next to
// mismatches come from each result's snapshot.
func Render(w io.Writer, rep model.Report) {
	bullet := "\n" + bulletColor.Sprint("✗") + " "
	path := func(s string) string { return ui.PathColor.Sprint(s) }

	for _, missing := range rep.Missing {
		fmt.Fprintf(w, "%sPatch does not exist: %s\n", bullet, path(missing))
	}

	titled := len(rep.Results) > 1
	for _, res := range rep.Results {
		if len(res.Conflicts) == 0 {
			continue
		}
		if titled || res.Patch.Title != "" {
			heading := res.Source
			if res.Patch.Title != "" {
				heading += ": " + res.Patch.Title
			}
			ui.HeaderColor.Fprintf(w, "\n--- %s ---\n", heading)
		}

		snapshot := res.Snapshot
		read := func(p string) ([]string, error) { return snapshot[p], nil }
		for _, e := range Build(res.Conflicts, read) {
			fmt.Fprintf(w, "%s%s\n", bullet, e.Headline(path))
			if e.Detail != "" {
				ui.ErrorColor.Fprintf(w, "%s\n", e.Detail)
			}
			if e.Kind == "lineMismatch" {
				writeMismatch(w, e)
			}
		}
		for _, r := range res.Relocations {
			ui.InfoColor.Fprintf(w, "  hint: the hunk declared at line %d of %s matches at line %d\n", r.Declared, r.File, r.Found)
		}
	}

	stats := Count(rep)
	if rep.Failed() {
		ui.ErrorColor.Fprintf(w, "\n%s\n", Summary(stats))
	} else {
		ui.SuccessColor.Fprintf(w, "\n✨ %s\n", Summary(stats))
	}
}

// writeMismatch prints the live lines prefixed with " - " and the expected
// lines with " + ", emphasising what differs between paired lines.
func writeMismatch(w io.Writer, e Entry) {
	was := make([][]Span, len(e.Actual))
	want := make([][]Span, len(e.Expected))
	for i := range max(len(e.Actual), len(e.Expected)) {
		switch {
		case i < len(e.Actual) && i < len(e.Expected):
			was[i], want[i] = Highlight(e.Actual[i], e.Expected[i])
		case i < len(e.Actual):
			was[i] = []Span{{Text: e.Actual[i]}}
		default:
			want[i] = []Span{{Text: e.Expected[i]}}
		}
	}

	for _, spans := range was {
		writeSpans(w, " - ", spans, actualColor, changedActual)
	}
	for _, spans := range want {
		writeSpans(w, " + ", spans, expectedColor, changedWanted)
	}
}

func writeSpans(w io.Writer, prefix string, spans []Span, plain, changed *color.Color) {
	var b strings.Builder
	b.WriteString(plain.Sprint(prefix))
	for _, s := range spans {
		if s.Changed {
			b.WriteString(changed.Sprint(s.Text))
		} else {
			b.WriteString(plain.Sprint(s.Text))
		}
	}
	fmt.Fprintln(w, b.String())
}

type jsonReport struct {
	Failed  bool           `json:"failed"`
	Summary string         `json:"summary"`
	Results []model.Result `json:"results"`
	Missing []string       `json:"missing,omitempty"`
}

// WriteJSON writes the report as an indented JSON document. Every conflict
// carries a "kind" field naming its variant.
func WriteJSON(w io.Writer, rep model.Report) error {
	results := rep.Results
	if results == nil {
		results = []model.Result{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Failed:  rep.Failed(),
		Summary: Summary(Count(rep)),
		Results: results,
		Missing: rep.Missing,
	})
}
