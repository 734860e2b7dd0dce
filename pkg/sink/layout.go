package sink

import (
	"fmt"
	"strconv"
	"strings"

	"seo-keywords/pkg/keyword"
)

// Layout selects the column set written for each idea
type Layout string

const (
	// LayoutFull writes Keyword, Search Volume, Competition, CPC, Seed Phrase, Date
	LayoutFull Layout = "full"
	// LayoutBids writes the raw volume and both top-of-page bids
	LayoutBids Layout = "bids"
)

// ParseLayout accepts "full" or "bids"; empty means full
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutFull:
		return LayoutFull, nil
	case LayoutBids:
		return LayoutBids, nil
	default:
		return "", fmt.Errorf("unknown output layout %q (want full or bids)", s)
	}
}

// Header returns the column names
func (l Layout) Header() []string {
	if l == LayoutBids {
		return []string{"keyword", "avg_monthly_searches", "competition", "low_top_of_page_bid", "high_top_of_page_bid"}
	}
	return []string{"Keyword", "Search Volume", "Competition", "CPC", "Seed Phrase", "Date"}
}

// Record renders an idea as text fields
func (l Layout) Record(idea keyword.Idea) []string {
	if l == LayoutBids {
		return []string{
			idea.Text,
			strconv.FormatInt(idea.AvgMonthlySearches, 10),
			string(idea.Competition),
			formatMoney(idea.LowBid()),
			formatMoney(idea.CostPerClick()),
		}
	}
	return []string{
		idea.Text,
		strconv.FormatInt(idea.AvgMonthlySearches, 10),
		string(idea.Competition),
		formatMoney(idea.CostPerClick()),
		idea.SourcePhrase,
		formatDate(idea),
	}
}

// Values renders an idea with numeric cells kept numeric, for spreadsheets
func (l Layout) Values(idea keyword.Idea) []interface{} {
	if l == LayoutBids {
		return []interface{}{idea.Text, idea.AvgMonthlySearches, string(idea.Competition), idea.LowBid(), idea.CostPerClick()}
	}
	return []interface{}{idea.Text, idea.AvgMonthlySearches, string(idea.Competition), idea.CostPerClick(), idea.SourcePhrase, formatDate(idea)}
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatDate(idea keyword.Idea) string {
	if idea.Date.IsZero() {
		return ""
	}
	return idea.Date.Format(keyword.DateLayout)
}
