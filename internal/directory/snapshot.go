package directory

import (
	"strings"

	"MarketWire/internal/domain"
)

// Snapshot is a read-only view of the company directory taken at the start
// of a batch. It owns the normalized lookup table shared by the prefilter
// and the validator; nothing mutates it during a run.
type Snapshot struct {
	entries []domain.DirectoryEntry
	byKey   map[string]string // normalized name or symbol -> exact display name
}

// NewSnapshot indexes the directory entries. Entries whose name and symbol
// both normalize to nothing are excluded from the lookup table. On key
// collision the first entry wins, so lookups stay deterministic.
func NewSnapshot(entries []domain.DirectoryEntry) *Snapshot {
	s := &Snapshot{
		entries: entries,
		byKey:   make(map[string]string, len(entries)*2),
	}

	for _, e := range entries {
		if key := Normalize(e.DisplayName); key != "" {
			if _, ok := s.byKey[key]; !ok {
				s.byKey[key] = e.DisplayName
			}
		}
		if sym := strings.ToLower(strings.TrimSpace(e.Symbol)); sym != "" {
			if _, ok := s.byKey[sym]; !ok {
				s.byKey[sym] = e.DisplayName
			}
		}
	}

	return s
}

// Entries returns the directory entries backing this snapshot.
func (s *Snapshot) Entries() []domain.DirectoryEntry {
	return s.entries
}

// Len reports the number of directory entries.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// lookup resolves an already-normalized key to its exact display name.
func (s *Snapshot) lookup(key string) (string, bool) {
	name, ok := s.byKey[key]
	return name, ok
}
