package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sokinpui/patchcheck/model"
)

var (
	hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)
	// mboxFromRegex matches the separator git format-patch writes before each commit.
	mboxFromRegex      = regexp.MustCompile(`^From [0-9a-f]{40} `)
	subjectPrefixRegex = regexp.MustCompile(`^(?:\[[^\]]*\]\s*)+`)
)

const devNull = "/dev/null"

// ParseDiff parses unified or git diff text. A git format-patch stream with
// several commits yields one patch per commit.
//
// Hunk bodies are delimited by their content rather than by the counts in
// their headers, so a hunk whose header miscounts its lines is kept as is.
// Lengths omitted from a header stay nil.
func ParseDiff(text string) ([]model.Patch, error) {
	var patches []model.Patch
	for _, chunk := range splitMbox(splitLines(text)) {
		patch, err := parseChunk(chunk)
		if err != nil {
			return nil, err
		}
		if len(patch.Changes) > 0 {
			patches = append(patches, patch)
		}
	}
	return patches, nil
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// splitMbox cuts a format-patch stream at its "From <sha>" separators.
func splitMbox(lines []string) [][]string {
	var chunks [][]string
	start := 0
	for i, line := range lines {
		if i > start && mboxFromRegex.MatchString(line) {
			chunks = append(chunks, lines[start:i])
			start = i
		}
	}
	return append(chunks, lines[start:])
}

// fileDiff accumulates the headers and hunks of one file while parsing.
type fileDiff struct {
	oldName, newName     string
	renameFrom, renameTo string
	isNew, isDelete      bool
	sawNames             bool
	hunks                []model.Hunk
}

func (f *fileDiff) change() model.FileChange {
	switch {
	case f.isNew:
		return model.FileChange{Kind: model.Add, File: f.newName, Hunks: f.hunks}
	case f.isDelete:
		return model.FileChange{Kind: model.Delete, File: f.oldName, Hunks: f.hunks}
	case f.renameFrom != "" || f.renameTo != "":
		from, to := f.renameFrom, f.renameTo
		if from == "" {
			from = f.oldName
		}
		if to == "" {
			to = f.newName
		}
		return model.FileChange{Kind: model.Rename, File: from, Dest: to, Hunks: f.hunks}
	}
	name := f.newName
	if name == "" {
		name = f.oldName
	}
	return model.FileChange{Kind: model.Modify, File: name, Hunks: f.hunks}
}

type chunkParser struct {
	patch  model.Patch
	file   *fileDiff
	hunk   *model.Hunk
	counts [2]int // pre/post-change lines seen in the open hunk
}

func (p *chunkParser) closeHunk() {
	if p.hunk == nil {
		return
	}
	p.file.hunks = append(p.file.hunks, *p.hunk)
	p.hunk = nil
}

func (p *chunkParser) closeFile() {
	p.closeHunk()
	if p.file == nil {
		return
	}
	p.patch.Changes = append(p.patch.Changes, p.file.change())
	p.file = nil
}

func parseChunk(lines []string) (model.Patch, error) {
	p := &chunkParser{}
	i := 0
	if len(lines) > 0 && mboxFromRegex.MatchString(lines[0]) {
		p.patch.Title, i = parseMailHeader(lines)
	}

	for ; i < len(lines); i++ {
		line := lines[i]

		if p.hunk != nil {
			if p.hunkLine(line, lines[i+1:]) {
				continue
			}
			p.closeHunk()
		}

		switch {
		case line == "-- ":
			// format-patch signature; nothing after it belongs to the diff.
			p.closeFile()
			return p.patch, nil

		case strings.HasPrefix(line, "diff --git "):
			p.closeFile()
			oldName, newName := parseGitHeaderNames(strings.TrimPrefix(line, "diff --git "))
			p.file = &fileDiff{oldName: oldName, newName: newName}

		case strings.HasPrefix(line, "--- ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ "):
			if p.file == nil || p.file.sawNames || len(p.file.hunks) > 0 {
				p.closeFile()
				p.file = &fileDiff{}
			}
			oldName := parseHeaderName(strings.TrimPrefix(line, "--- "), "a/")
			newName := parseHeaderName(strings.TrimPrefix(lines[i+1], "+++ "), "b/")
			if oldName == devNull {
				p.file.isNew = true
			} else {
				p.file.oldName = oldName
			}
			if newName == devNull {
				p.file.isDelete = true
			} else {
				p.file.newName = newName
			}
			p.file.sawNames = true
			i++

		case strings.HasPrefix(line, "@@"):
			if p.file == nil {
				return model.Patch{}, fmt.Errorf("line %d: hunk header before any file header", i+1)
			}
			hunk, err := parseHunkHeader(line)
			if err != nil {
				return model.Patch{}, fmt.Errorf("line %d: %w", i+1, err)
			}
			p.hunk = &hunk
			p.counts = [2]int{}

		case p.file != nil && len(p.file.hunks) == 0:
			p.extendedHeader(line)
		}
	}

	p.closeFile()
	return p.patch, nil
}

// hunkLine consumes line as part of the open hunk and reports whether it did.
func (p *chunkParser) hunkLine(line string, rest []string) bool {
	if line == "" {
		// Editors and mail clients strip the space of empty context lines;
		// only treat a blank line as context while the header expects more.
		if !p.expectsMore() {
			return false
		}
		p.appendLine(model.Context, "")
		return true
	}
	switch line[0] {
	case ' ':
		p.appendLine(model.Context, line[1:])
	case '+':
		p.appendLine(model.Added, line[1:])
	case '-':
		if line == "-- " && !p.expectsMore() {
			// format-patch signature; while the header still expects lines
			// it is a removed "- " line.
			return false
		}
		if strings.HasPrefix(line, "--- ") && len(rest) > 0 && strings.HasPrefix(rest[0], "+++ ") {
			return false
		}
		p.appendLine(model.Removed, line[1:])
	case '\\':
		// "\ No newline at end of file"
	default:
		return false
	}
	return true
}

func (p *chunkParser) appendLine(role model.LineRole, text string) {
	line := model.HunkLine{Role: role, Text: text}
	if line.InOld() {
		p.counts[0]++
	}
	if line.InNew() {
		p.counts[1]++
	}
	p.hunk.Lines = append(p.hunk.Lines, line)
}

func (p *chunkParser) expectsMore() bool {
	declared := func(r model.Range) int {
		if r.Length == nil {
			return 1
		}
		return *r.Length
	}
	return p.counts[0] < declared(p.hunk.InputRange) || p.counts[1] < declared(p.hunk.OutputRange)
}

// extendedHeader handles the git header lines between "diff --git" and the first hunk.
func (p *chunkParser) extendedHeader(line string) {
	switch {
	case strings.HasPrefix(line, "new file mode "):
		p.file.isNew = true
	case strings.HasPrefix(line, "deleted file mode "):
		p.file.isDelete = true
	case strings.HasPrefix(line, "rename from "):
		p.file.renameFrom = unquote(strings.TrimPrefix(line, "rename from "))
	case strings.HasPrefix(line, "rename to "):
		p.file.renameTo = unquote(strings.TrimPrefix(line, "rename to "))
	case strings.HasPrefix(line, "copy to "):
		// A copy only needs its destination to be free.
		p.file.isNew = true
		p.file.newName = unquote(strings.TrimPrefix(line, "copy to "))
	}
}

func parseHunkHeader(line string) (model.Hunk, error) {
	match := hunkHeaderRegex.FindStringSubmatch(line)
	if match == nil {
		return model.Hunk{}, fmt.Errorf("malformed hunk header %q", line)
	}
	var nums [4]*int
	for i, s := range match[1:5] {
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return model.Hunk{}, fmt.Errorf("malformed hunk header %q: %w", line, err)
		}
		nums[i] = model.Len(n)
	}
	return model.Hunk{
		InputRange:  model.Range{Start: *nums[0], Length: nums[1]},
		OutputRange: model.Range{Start: *nums[2], Length: nums[3]},
	}, nil
}

// parseMailHeader reads the mail headers of a format-patch commit and
// returns its subject and the index of the first line after the headers.
func parseMailHeader(lines []string) (string, int) {
	var subject string
	inSubject := false
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		switch {
		case line == "":
			return cleanSubject(subject), i + 1
		case strings.HasPrefix(line, "Subject: "):
			subject = strings.TrimPrefix(line, "Subject: ")
			inSubject = true
		case inSubject && (line[0] == ' ' || line[0] == '\t'):
			subject += " " + strings.TrimSpace(line)
		default:
			inSubject = false
		}
	}
	return cleanSubject(subject), len(lines)
}

func cleanSubject(subject string) string {
	return strings.TrimSpace(subjectPrefixRegex.ReplaceAllString(strings.TrimSpace(subject), ""))
}

// parseHeaderName extracts the path of a "---" or "+++" line, dropping a
// trailing timestamp and the given a/ or b/ prefix.
func parseHeaderName(value, prefix string) string {
	if tab := strings.IndexByte(value, '\t'); tab >= 0 {
		value = value[:tab]
	}
	name := unquote(strings.TrimSpace(value))
	if name == devNull {
		return name
	}
	return strings.TrimPrefix(name, prefix)
}

func parseGitHeaderNames(rest string) (string, string) {
	if strings.HasPrefix(rest, `"`) {
		fields := splitQuoted(rest)
		if len(fields) == 2 {
			return strings.TrimPrefix(fields[0], "a/"), strings.TrimPrefix(fields[1], "b/")
		}
		return "", ""
	}
	if strings.HasPrefix(rest, "a/") {
		if idx := strings.Index(rest, " b/"); idx >= 0 {
			return rest[2:idx], rest[idx+3:]
		}
	}
	fields := strings.Fields(rest)
	if len(fields) == 2 {
		return fields[0], fields[1]
	}
	return "", ""
}

func splitQuoted(s string) []string {
	var fields []string
	for s = strings.TrimSpace(s); s != ""; s = strings.TrimSpace(s) {
		if s[0] != '"' {
			end := strings.IndexByte(s, ' ')
			if end < 0 {
				end = len(s)
			}
			fields = append(fields, s[:end])
			s = s[end:]
			continue
		}
		prefix, err := strconv.QuotedPrefix(s)
		if err != nil {
			return nil
		}
		fields = append(fields, unquote(prefix))
		s = s[len(prefix):]
	}
	return fields
}

func unquote(name string) string {
	if strings.HasPrefix(name, `"`) {
		if unquoted, err := strconv.Unquote(name); err == nil {
			return unquoted
		}
	}
	return name
}
