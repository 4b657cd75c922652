package patcher

import (
	"strings"

	"github.com/sokinpui/patchcheck/model"
)

// targetBlock is the search pattern of a hunk: its pre-change lines without
// the blank ones, so matching survives whitespace-only drift. lead counts
// the blank pre-change lines skipped before the first pattern line.
func targetBlock(hunk model.Hunk) (block []string, lead int) {
	for _, line := range hunk.Lines {
		if !line.InOld() {
			continue
		}
		if strings.TrimSpace(line.Text) == "" {
			if len(block) == 0 {
				lead++
			}
			continue
		}
		block = append(block, line.Text)
	}
	return block, lead
}

// normalizeLineForMatching trims a line and collapses its inner whitespace.
func normalizeLineForMatching(line string) string {
	return strings.Join(strings.Fields(line), " ")
}

// matchBlock finds the 1-based line where block starts in source, ignoring
// blank source lines and whitespace differences. The search starts at line
// from; -1 means no match.
func matchBlock(source, block []string, from int) int {
	if len(block) == 0 {
		return -1
	}

	normalizedBlock := make([]string, len(block))
	for i, line := range block {
		normalizedBlock[i] = normalizeLineForMatching(line)
	}

	var filteredSource []string
	var originalLineNumbers []int
	for i, line := range source {
		if i+1 < from {
			continue
		}
		normalizedLine := normalizeLineForMatching(line)
		if normalizedLine != "" {
			filteredSource = append(filteredSource, normalizedLine)
			originalLineNumbers = append(originalLineNumbers, i+1)
		}
	}

	for i := 0; i <= len(filteredSource)-len(normalizedBlock); i++ {
		match := true
		for j := range normalizedBlock {
			if filteredSource[i+j] != normalizedBlock[j] {
				match = false
				break
			}
		}
		if match {
			return originalLineNumbers[i]
		}
	}
	return -1
}

// Locate returns the 1-based line where the pre-change lines of hunk start
// in source, searching from line from and then from the top. It returns -1
// when the hunk has nothing to search for or is not found.
func Locate(source []string, hunk model.Hunk, from int) int {
	block, lead := targetBlock(hunk)
	found := -1
	if from > 1 {
		found = matchBlock(source, block, from)
	}
	if found == -1 {
		found = matchBlock(source, block, 1)
	}
	if found == -1 {
		return -1
	}
	if start := found - lead; start >= 1 {
		return start
	}
	return 1
}

// matchesAt reports whether every pre-change line of hunk sits exactly at start.
func matchesAt(source []string, hunk model.Hunk, start int) bool {
	index := start
	for _, line := range hunk.Lines {
		if !line.InOld() {
			continue
		}
		if index < 1 || index > len(source) || strings.TrimSuffix(source[index-1], "\r") != strings.TrimSuffix(line.Text, "\r") {
			return false
		}
		index++
	}
	return true
}

// Relocations lists the hunks of change that do not match where they are
// declared but whose lines were found elsewhere in source.
func Relocations(source []string, change model.FileChange) []model.Relocation {
	var relocations []model.Relocation
	from := 1
	for _, hunk := range change.Hunks {
		declared := hunk.InputRange.Start
		if matchesAt(source, hunk, declared) {
			from = declared
			continue
		}
		found := Locate(source, hunk, from)
		if found == -1 || found == declared {
			continue
		}
		relocations = append(relocations, model.Relocation{File: change.File, Declared: declared, Found: found})
		from = found
	}
	return relocations
}
