package keyword

// Formatter selects which ideas reach the output sinks
type Formatter struct {
	// MinVolume keeps ideas with AvgMonthlySearches >= MinVolume
	MinVolume int64
	// MinWords, when positive, also requires at least that many words
	MinWords int
	// MaxResults, when positive, caps the filtered output
	MaxResults int
}

// Filter returns the ideas that satisfy the formatter's predicates, in input
// order. The input slice is not modified.
func (f Formatter) Filter(ideas []Idea) []Idea {
	kept := make([]Idea, 0, len(ideas))
	for _, idea := range ideas {
		if !f.Keep(idea) {
			continue
		}
		kept = append(kept, idea)
		if f.MaxResults > 0 && len(kept) == f.MaxResults {
			break
		}
	}
	return kept
}

// Keep reports whether a single idea passes the volume and word predicates
func (f Formatter) Keep(idea Idea) bool {
	if idea.AvgMonthlySearches < f.MinVolume {
		return false
	}
	if f.MinWords > 0 && idea.WordCount() < f.MinWords {
		return false
	}
	return true
}
