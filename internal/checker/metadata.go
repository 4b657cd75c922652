package checker

import (
	"fmt"

	"github.com/sokinpui/patchcheck/model"
)

// CountLines returns how many lines a hunk spans before and after the change.
func CountLines(hunk model.Hunk) (oldLength, newLength int) {
	for _, line := range hunk.Lines {
		if line.InOld() {
			oldLength++
		}
		if line.InNew() {
			newLength++
		}
	}
	return oldLength, newLength
}

// ExpectedOutputStart computes where a hunk must start in the post-change
// file given the net line delta of the earlier hunks of the same file.
func ExpectedOutputStart(hunk model.Hunk, offset int, opts Options) int {
	oldLength, newLength := CountLines(hunk)
	start := hunk.InputRange.Start
	if opts.GitZeroRanges {
		switch {
		case newLength == 0:
			return start + offset - 1
		case oldLength == 0:
			return start + offset + 1
		}
		return start + offset
	}
	if newLength == 0 {
		return 0
	}
	return start + offset
}

// checkMetadata validates the hunk header against the hunk body and returns
// the offset to carry into the next hunk of the same file.
func (r *run) checkMetadata(file string, hunk model.Hunk, offset int) int {
	oldLength, newLength := CountLines(hunk)
	in, out := hunk.InputRange, hunk.OutputRange

	// Lengths are only cross-checked when something already looks off.
	inputDisagrees := in.Length != nil && *in.Length != oldLength
	if inputDisagrees || oldLength != newLength {
		if inputDisagrees {
			r.emit(model.MalformedHunk{
				File:    file,
				Line:    in.Start,
				Message: fmt.Sprintf("header declares %d pre-change lines but the hunk has %d", *in.Length, oldLength),
			})
		}
		if out.Length != nil && *out.Length != newLength {
			r.emit(model.MalformedHunk{
				File:    file,
				Line:    in.Start,
				Message: fmt.Sprintf("header declares %d post-change lines but the hunk has %d", *out.Length, newLength),
			})
		}
	}

	if expected := ExpectedOutputStart(hunk, offset, r.opts); out.Start != expected {
		r.emit(model.MalformedHunk{
			File:    file,
			Line:    in.Start,
			Message: fmt.Sprintf("header declares post-change start %d but %d was expected", out.Start, expected),
		})
	}

	return offset + newLength - oldLength
}
