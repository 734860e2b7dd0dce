package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"seo-keywords/pkg/keyword"
)

// flexInt64 accepts int64 values encoded either as JSON numbers or, as the
// REST API does for 64-bit fields, as JSON strings.
type flexInt64 int64

func (v *flexInt64) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid int64 %q: %w", string(data), err)
	}
	*v = flexInt64(n)
	return nil
}

// KeywordIdeasResponse is one page of generateKeywordIdeas results
type KeywordIdeasResponse struct {
	Results []struct {
		Text               string `json:"text"`
		KeywordIdeaMetrics *struct {
			Competition            string    `json:"competition"`
			AvgMonthlySearches     flexInt64 `json:"avgMonthlySearches"`
			LowTopOfPageBidMicros  flexInt64 `json:"lowTopOfPageBidMicros"`
			HighTopOfPageBidMicros flexInt64 `json:"highTopOfPageBidMicros"`
		} `json:"keywordIdeaMetrics"`
	} `json:"results"`
	NextPageToken string    `json:"nextPageToken"`
	TotalSize     flexInt64 `json:"totalSize"`
}

// ParseKeywordIdeas decodes a response page into ideas and the token of the
// next page ("" on the last page). Results without text are skipped; missing
// metrics read as zero volume and UNSPECIFIED competition.
func ParseKeywordIdeas(body []byte) ([]keyword.Idea, string, error) {
	if len(body) == 0 {
		return nil, "", fmt.Errorf("empty response body from keyword ideas API")
	}

	var resp KeywordIdeasResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("failed to decode keyword ideas response: %w (response: %s)", err, truncate(string(body), 200))
	}

	ideas := make([]keyword.Idea, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Text == "" {
			continue
		}

		idea := keyword.Idea{
			Text:        r.Text,
			Competition: keyword.CompetitionUnspecified,
		}
		if m := r.KeywordIdeaMetrics; m != nil {
			idea.AvgMonthlySearches = nonNegative(int64(m.AvgMonthlySearches))
			idea.Competition = keyword.ParseCompetition(m.Competition)
			idea.LowTopOfPageBidMicros = nonNegative(int64(m.LowTopOfPageBidMicros))
			idea.HighTopOfPageBidMicros = nonNegative(int64(m.HighTopOfPageBidMicros))
		}
		ideas = append(ideas, idea)
	}

	return ideas, resp.NextPageToken, nil
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}
