package directory

import (
	"strings"

	"MarketWire/internal/domain"
)

// genericTokens are display-name words too common to identify a company on
// their own; a token-overlap hit on one of these would flood the candidate
// set with unrelated listings.
var genericTokens = map[string]struct{}{
	"limited":   {},
	"ltd":       {},
	"india":     {},
	"company":   {},
	"finance":   {},
	"financial": {},
	"bank":      {},
	"capital":   {},
	"services":  {},
	"group":     {},
}

// Prefilter scans the article text against the directory and returns the
// entries plausibly mentioned, capped at max. Matching is two-step per
// entry: a whole-word symbol hit first, then overlap on distinctive
// display-name tokens. The result is deliberately permissive; the validator
// rejects anything the enrichment stage does not confirm.
func (s *Snapshot) Prefilter(text string, max int) []domain.DirectoryEntry {
	if max <= 0 || len(s.entries) == 0 {
		return nil
	}

	words := tokenSet(text)
	if len(words) == 0 {
		return nil
	}

	candidates := make([]domain.DirectoryEntry, 0, max)
	for _, entry := range s.entries {
		if matchesEntry(entry, words) {
			candidates = append(candidates, entry)
			if len(candidates) == max {
				break
			}
		}
	}

	return candidates
}

func matchesEntry(entry domain.DirectoryEntry, words map[string]struct{}) bool {
	if sym := strings.ToLower(strings.TrimSpace(entry.Symbol)); sym != "" {
		if _, ok := words[sym]; ok {
			return true
		}
	}

	for _, token := range strings.Fields(Normalize(entry.DisplayName)) {
		if len(token) <= 3 {
			continue
		}
		if _, generic := genericTokens[token]; generic {
			continue
		}
		if _, ok := words[token]; ok {
			return true
		}
	}

	return false
}

// tokenSet splits text into a set of lower-cased words. Splitting on
// non-alphanumerics gives whole-word semantics: a symbol never matches as a
// substring of an unrelated word.
func tokenSet(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	words := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		words[f] = struct{}{}
	}
	return words
}
