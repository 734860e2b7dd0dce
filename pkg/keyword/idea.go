// Package keyword holds the keyword idea model shared by the fetcher, the
// formatter and the output sinks.
package keyword

import (
	"math"
	"strings"
	"time"
)

// Competition is the advertiser competition level reported for an idea
type Competition string

const (
	CompetitionUnspecified Competition = "UNSPECIFIED"
	CompetitionLow         Competition = "LOW"
	CompetitionMedium      Competition = "MEDIUM"
	CompetitionHigh        Competition = "HIGH"
)

// ParseCompetition maps the API's enum names onto Competition. Unknown and
// empty values become UNSPECIFIED.
func ParseCompetition(s string) Competition {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return CompetitionLow
	case "MEDIUM":
		return CompetitionMedium
	case "HIGH":
		return CompetitionHigh
	default:
		return CompetitionUnspecified
	}
}

// DateLayout is how idea dates are rendered in every sink
const DateLayout = "2006-01-02"

// microsPerUnit converts API micro-currency amounts to display units
const microsPerUnit = 1_000_000

// Idea is one keyword suggestion returned for a seed phrase
type Idea struct {
	Text                   string      `json:"text"`
	AvgMonthlySearches     int64       `json:"avg_monthly_searches"`
	Competition            Competition `json:"competition"`
	LowTopOfPageBidMicros  int64       `json:"low_top_of_page_bid_micros"`
	HighTopOfPageBidMicros int64       `json:"high_top_of_page_bid_micros"`
	SourcePhrase           string      `json:"source_phrase"`
	Date                   time.Time   `json:"date"`
}

// CostPerClick is the high top-of-page bid in currency units, rounded to cents
func (i Idea) CostPerClick() float64 {
	return MicrosToUnits(i.HighTopOfPageBidMicros)
}

// LowBid is the low top-of-page bid in currency units, rounded to cents
func (i Idea) LowBid() float64 {
	return MicrosToUnits(i.LowTopOfPageBidMicros)
}

// WordCount counts whitespace separated words in the idea text
func (i Idea) WordCount() int {
	return len(strings.Fields(i.Text))
}

// MicrosToUnits divides by one million and rounds to two decimals.
// Negative amounts are clamped to zero.
func MicrosToUnits(micros int64) float64 {
	if micros <= 0 {
		return 0
	}
	return math.Round(float64(micros)/microsPerUnit*100) / 100
}
