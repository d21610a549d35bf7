// Package units resolves unit-suffixed magnitudes ("4.7kΩ", "100nF", "25V")
// into canonical base-unit floats.
//
// Canonical values exist only for comparison and sorting. They are never
// written back to storage; component parameters stay as the raw strings the
// supplier shipped, and normalization happens again on every query.
package units

import (
	"regexp"
	"strconv"
	"strings"
)

// multipliers maps an SI-style prefix to its base-unit factor.
//
// Case matters for m/M only: lowercase m is milli, uppercase M (or "meg")
// is mega. Every other prefix is matched exactly as listed.
var multipliers = map[string]float64{
	"p":   1e-12,
	"n":   1e-9,
	"u":   1e-6,
	"µ":   1e-6,
	"m":   1e-3,
	"k":   1e3,
	"M":   1e6,
	"meg": 1e6,
}

// magnitudeRe matches a signed decimal followed by an optional prefix.
// The "meg" alternative must come before the single-letter class so that
// "5meg" does not stop at milli. Anything after the prefix is ignored.
var magnitudeRe = regexp.MustCompile(`^([+-]?\d+(?:\.\d*)?)((?i:meg)|[pnuµmkM])?`)

// unitTokenReplacer strips known unit tokens. "ohm" is removed in any case
// before the single letters so that its 'm' never survives to be misread as
// a prefix. The single letters are stripped in both cases explicitly; a
// blanket case-insensitive pass would also fold m/M and destroy the
// milli/mega distinction.
var unitTokenReplacer = strings.NewReplacer(
	"Ω", "",
	"F", "", "f", "",
	"H", "", "h", "",
	"V", "", "v", "",
	" ", "", "\t", "",
)

var ohmRe = regexp.MustCompile(`(?i)ohms?`)

// Normalize parses a value string with an optional SI-style prefix and unit
// suffix into a base-unit float. The second return value reports whether the
// input contained a parsable magnitude; empty or non-numeric input yields
// (0, false). Callers treat false as "no value", not as an error.
func Normalize(val string) (float64, bool) {
	if val == "" {
		return 0, false
	}

	stripped := ohmRe.ReplaceAllString(strings.TrimSpace(val), "")
	stripped = unitTokenReplacer.Replace(stripped)

	m := magnitudeRe.FindStringSubmatch(stripped)
	if m == nil || m[1] == "" {
		return 0, false
	}

	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	if mult, ok := multipliers[m[2]]; ok {
		num *= mult
	} else if strings.EqualFold(m[2], "meg") {
		num *= 1e6
	}

	return num, true
}

// InRange reports whether a stored parameter value falls inside [min, max].
// Nil bounds are open. When at least one bound is supplied, a value that
// fails to normalize is excluded; with no bounds every value passes.
func InRange(val string, min, max *float64) bool {
	if min == nil && max == nil {
		return true
	}
	v, ok := Normalize(val)
	if !ok {
		return false
	}
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}
