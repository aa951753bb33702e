package directory

import "strings"

// suffixStopwords are generic legal suffixes stripped during normalization.
// The set is deliberately small: stripping broader sector words ("bank",
// "technologies") would collapse distinct listings onto one key.
var suffixStopwords = map[string]struct{}{
	"limited":     {},
	"ltd":         {},
	"plc":         {},
	"corp":        {},
	"corporation": {},
}

// Normalize canonicalizes a free-text company name or symbol to a comparable
// key: case-folded, punctuation removed, legal suffixes stripped, whitespace
// collapsed. Pure and deterministic; the prefilter and the validator must
// compute identical keys for the same input.
//
// A name made up entirely of stopwords would strip to nothing, so the
// fallback is the case-folded, punctuation-free form of the full name. Every
// directory entry therefore keeps a usable non-empty key.
func Normalize(name string) string {
	folded := foldName(name)
	fields := strings.Fields(folded)

	kept := fields[:0]
	for _, f := range fields {
		if _, stop := suffixStopwords[f]; !stop {
			kept = append(kept, f)
		}
	}

	if len(kept) == 0 {
		return strings.Join(strings.Fields(foldName(name)), " ")
	}
	return strings.Join(kept, " ")
}

// foldName lower-cases and replaces punctuation with spaces so that
// "Ltd." and "Ltd" fold to the same token.
func foldName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
