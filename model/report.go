package model

// Result holds the outcome of checking one patch.
type Result struct {
	// Source names where the patch came from: a file path, "stdin" or "clipboard".
	Source    string     `json:"source"`
	Patch     Patch      `json:"patch"`
	Conflicts []Conflict `json:"conflicts"`
	// Relocations point at where mismatching hunks actually sit in their files.
	Relocations []Relocation `json:"relocations,omitempty"`
	// Snapshot holds the lines of every file with mismatches exactly as the
	// check compared them.
	Snapshot map[string][]string `json:"-"`
}

// Relocation says where the pre-change lines of a hunk were found after
// they failed to match at the declared start.
type Relocation struct {
	File     string `json:"file"`
	Declared int    `json:"declared"`
	Found    int    `json:"found"`
}

// Report holds the results of a whole run for display.
type Report struct {
	Results []Result `json:"results"`
	// Missing lists patch sources that could not be found.
	Missing []string `json:"missing,omitempty"`
}

// Failed reports whether the run found anything to complain about.
func (r Report) Failed() bool {
	if len(r.Missing) > 0 {
		return true
	}
	for _, res := range r.Results {
		if len(res.Conflicts) > 0 {
			return true
		}
	}
	return false
}

// Conflicts returns every conflict of the run in result order.
func (r Report) Conflicts() []Conflict {
	var all []Conflict
	for _, res := range r.Results {
		all = append(all, res.Conflicts...)
	}
	return all
}
