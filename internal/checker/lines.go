package checker

import (
	"strings"

	"github.com/sokinpui/patchcheck/internal/tree"
	"github.com/sokinpui/patchcheck/model"
)

// SplitLines splits file content on "\n", tolerating "\r\n". The empty
// element after a final newline is not a line and is dropped.
func SplitLines(content []byte) []string {
	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		lines[i] = normalizeLine(line)
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// normalizeLine applies the same line-ending rule to file and hunk text.
func normalizeLine(line string) string {
	return strings.TrimSuffix(line, "\r")
}

// lines reads the live file once per run. ok is false when the file vanished
// after its existence check; that is reported as a MissingFile.
func (r *run) lines(path string) ([]string, bool, error) {
	st, err := r.state(path)
	if err != nil {
		return nil, false, err
	}
	if st.loaded {
		return st.lines, st.existence != absent, nil
	}

	content, err := r.tree.ReadFile(path)
	if err != nil {
		if !tree.IsNotFound(err) {
			return nil, false, err
		}
		st.existence = absent
		st.loaded = true
		r.reportMissing(st, path)
		return nil, false, nil
	}

	st.lines = SplitLines(content)
	st.loaded = true
	return st.lines, true, nil
}

// matchHunk compares every pre-change line of the hunk with the live file,
// starting at the hunk's declared input start.
func (r *run) matchHunk(file string, lines []string, hunk model.Hunk) {
	index := hunk.InputRange.Start
	for _, line := range hunk.Lines {
		if !line.InOld() {
			continue
		}
		expected := normalizeLine(line.Text)
		if index < 1 || index > len(lines) || lines[index-1] != expected {
			r.emit(model.LineMismatch{File: file, Line: index, Expected: expected})
		}
		index++
	}
}
