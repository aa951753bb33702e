package directory

import (
	"log/slog"
	"strings"

	"MarketWire/internal/domain"
)

// Validator reconciles company names claimed by the enrichment stage against
// the directory. It is the anti-hallucination control: a claimed name either
// resolves to an exact directory entry or it is dropped. No fuzzy matching,
// no guessed corrections.
type Validator struct {
	snapshot *Snapshot
	logger   *slog.Logger
}

// NewValidator wires a directory snapshot; logger may be nil.
func NewValidator(snapshot *Snapshot, logger *slog.Logger) *Validator {
	return &Validator{snapshot: snapshot, logger: logger}
}

// Validate maps each claimed name to a directory display name, checking the
// candidate set shown to the model first and the full directory second. The
// fallback hit is logged separately: it means the prefilter was too narrow
// for this article, which is a tunable quality signal rather than an error.
// Output carries exact directory casing and no duplicates.
func (v *Validator) Validate(claimed []string, candidates []domain.DirectoryEntry) []string {
	if len(claimed) == 0 {
		return nil
	}

	candKeys := make(map[string]string, len(candidates)*2)
	for _, c := range candidates {
		if key := Normalize(c.DisplayName); key != "" {
			candKeys[key] = c.DisplayName
		}
		if sym := strings.ToLower(strings.TrimSpace(c.Symbol)); sym != "" {
			candKeys[sym] = c.DisplayName
		}
	}

	var out []string
	seen := map[string]struct{}{}

	accept := func(display string) {
		if _, dup := seen[display]; dup {
			return
		}
		seen[display] = struct{}{}
		out = append(out, display)
	}

	for _, name := range claimed {
		key := Normalize(name)
		if key == "" {
			continue
		}

		if display, ok := candKeys[key]; ok {
			accept(display)
			continue
		}

		if display, ok := v.snapshot.lookup(key); ok {
			v.debug("company matched via full-directory fallback", "claimed", name, "matched", display)
			accept(display)
			continue
		}

		v.debug("dropped unrecognized company claim", "claimed", name)
	}

	return out
}

func (v *Validator) debug(msg string, args ...any) {
	if v.logger != nil {
		v.logger.Debug(msg, args...)
	}
}
