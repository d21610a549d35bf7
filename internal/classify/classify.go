// Package classify maps free-text supplier descriptions onto the taxonomy.
//
// Matching is deterministic, first-match-wins over the taxonomy's declared
// order: the first type whose name appears in the description is committed
// to, then the first of its branches whose name appears. There is no scoring
// and no backtracking; if the committed type has no matching branch the
// description stays unclassified even when a later type would have matched.
package classify

import (
	"regexp"
	"strings"

	"partsbin/internal/taxonomy"
)

// Result is the outcome of classifying one description. A zero Result means
// the description matched nothing; that is data, not an error, and such
// components are stored uncategorized.
type Result struct {
	ComponentType   string                                 `json:"component_type,omitempty"`
	ComponentBranch string                                 `json:"component_branch,omitempty"`
	Parameters      map[taxonomy.ParameterKind]string      `json:"parameters,omitempty"`
	StoragePlace    string                                 `json:"storage_place,omitempty"`
}

// Matched reports whether the description landed on a branch.
func (r Result) Matched() bool {
	return r.ComponentBranch != ""
}

// Parameter returns the raw extracted substring for one kind, or "".
func (r Result) Parameter(kind taxonomy.ParameterKind) string {
	return r.Parameters[kind]
}

// extractors holds one fixed extraction pattern per parameter kind, tuned to
// the textual shape that kind takes in supplier descriptions. The first match
// by scan order wins; a kind with no match is simply omitted.
var extractors = map[taxonomy.ParameterKind]*regexp.Regexp{
	taxonomy.KindResistance:   regexp.MustCompile(`(?i)\b(\d+(?:\.\d*)?\s*[km]?\s*(?:Ω|ohms?))`),
	taxonomy.KindCapacitance:  regexp.MustCompile(`(?i)\b(\d+(?:\.\d*)?\s*[pnuµμ]?F)`),
	taxonomy.KindInductance:   regexp.MustCompile(`(?i)\b(\d+(?:\.\d*)?\s*[pnuµμm]?H)`),
	taxonomy.KindVoltage:      regexp.MustCompile(`\b(\d+(?:\.\d*)?\s*[Vv])`),
	taxonomy.KindTolerance:    regexp.MustCompile(`(±\d+%|\d+%)`),
	taxonomy.KindCurrentPower: regexp.MustCompile(`(?i)\b(\d+(?:\.\d*)?\s*[mu]?A|\d+(?:\.\d*)?\s*[mku]?W)`),
}

// Classify determines the best-matching (type, branch) for description and
// extracts each parameter the branch rule declares. It never fails: an empty
// or unmatched description yields a zero Result.
func Classify(description string, tax taxonomy.Taxonomy) Result {
	if description == "" {
		return Result{}
	}

	lower := strings.ToLower(description)

	for _, ct := range tax.Types {
		if !strings.Contains(lower, strings.ToLower(ct.Name)) {
			continue
		}
		// Committed to this type: a branch miss here is final.
		for _, br := range ct.Branches {
			if !strings.Contains(lower, strings.ToLower(br.Name)) {
				continue
			}
			return Result{
				ComponentType:   ct.Name,
				ComponentBranch: br.Name,
				Parameters:      extract(description, br.Parameters),
				StoragePlace:    br.StoragePlace,
			}
		}
		return Result{}
	}
	return Result{}
}

// extract runs each declared kind's pattern over the description. Results
// keep the original units and spelling; trimming is the only cleanup.
func extract(description string, kinds []taxonomy.ParameterKind) map[taxonomy.ParameterKind]string {
	var params map[taxonomy.ParameterKind]string
	for _, kind := range kinds {
		re, ok := extractors[kind]
		if !ok {
			continue
		}
		m := re.FindStringSubmatch(description)
		if m == nil {
			continue
		}
		if params == nil {
			params = make(map[taxonomy.ParameterKind]string, len(kinds))
		}
		params[kind] = strings.TrimSpace(m[1])
	}
	return params
}
