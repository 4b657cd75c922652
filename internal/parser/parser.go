package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sokinpui/patchcheck/model"
)

// Format names an input representation of patches.
type Format string

const (
	FormatAuto     Format = "auto"
	FormatDiff     Format = "diff"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatDiff, FormatMarkdown, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown input format %q (want auto, diff, markdown or json)", name)
}

// Options controls how input text becomes patches.
type Options struct {
	Format Format
	// Strict parses diffs with go-gitdiff, failing on miscounted hunks.
	Strict bool
}

// BlockError reports which markdown diff block failed to parse.
type BlockError struct {
	Index int
	Hint  string
	Err   error
}

func (e *BlockError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("diff block %d (%s): %v", e.Index, e.Hint, e.Err)
	}
	return fmt.Sprintf("diff block %d: %v", e.Index, e.Err)
}

func (e *BlockError) Unwrap() error { return e.Err }

var (
	fenceRegex     = regexp.MustCompile("(?m)^\\s*(```|~~~)")
	diffStartRegex = regexp.MustCompile(`^(diff --git |--- |\+\+\+ |@@ |Index: |From [0-9a-f]{40} )`)
)

// Detect guesses the format of content. A leading diff header wins over
// fenced blocks further down.
func Detect(content string) Format {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") {
		return FormatJSON
	}
	for _, line := range strings.Split(trimmed, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if diffStartRegex.MatchString(line) {
			return FormatDiff
		}
		break
	}
	if fenceRegex.MatchString(content) {
		return FormatMarkdown
	}
	return FormatDiff
}

// Parse turns content into patches according to opts.
func Parse(content string, opts Options) ([]model.Patch, error) {
	format := opts.Format
	if format == "" || format == FormatAuto {
		format = Detect(content)
	}

	parseDiff := ParseDiff
	if opts.Strict {
		parseDiff = ParseGitDiff
	}

	switch format {
	case FormatJSON:
		return ParseJSON([]byte(content))
	case FormatMarkdown:
		return ParseMarkdown([]byte(content), parseDiff)
	case FormatDiff:
		return parseDiff(content)
	}
	return nil, fmt.Errorf("unknown input format %q", format)
}
