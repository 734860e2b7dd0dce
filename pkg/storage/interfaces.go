package storage

import (
	"context"

	"seo-keywords/pkg/seeds"
)

// PhraseSet is the set of seed phrases already submitted in earlier runs.
// Keys are normalized the same way seed phrases are, so log entries written
// with stray whitespace or in decomposed Unicode still match their seed.
type PhraseSet map[string]struct{}

// NewPhraseSet builds a set from a list, ignoring duplicates and blanks
func NewPhraseSet(phrases ...string) PhraseSet {
	set := make(PhraseSet, len(phrases))
	for _, p := range phrases {
		set.Add(p)
	}
	return set
}

// Contains reports whether the phrase has been processed
func (s PhraseSet) Contains(phrase string) bool {
	_, ok := s[seeds.Normalize(phrase)]
	return ok
}

// Add marks a phrase as processed. Blank phrases are ignored.
func (s PhraseSet) Add(phrase string) {
	if key := seeds.Normalize(phrase); key != "" {
		s[key] = struct{}{}
	}
}

// Len returns the number of distinct phrases
func (s PhraseSet) Len() int {
	return len(s)
}

// ProcessedLog is the durable, append-only record of processed seed phrases.
// Entries are never removed; duplicates are allowed and collapse on Load.
type ProcessedLog interface {
	// Load returns every phrase ever appended. A log that does not exist yet
	// yields an empty set, not an error.
	Load(ctx context.Context) (PhraseSet, error)
	// Append records phrases in order without touching existing entries
	Append(ctx context.Context, phrases []string) error
	Close() error
	Describe() string
}
