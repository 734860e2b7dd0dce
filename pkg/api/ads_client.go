package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/oauth2"

	"seo-keywords/pkg/keyword"
	"seo-keywords/pkg/logger"
)

const (
	DefaultAdsEndpoint   = "https://googleads.googleapis.com"
	DefaultAdsAPIVersion = "v19"
	DefaultLanguage      = "languageConstants/1000" // English
	DefaultGeoTarget     = "geoTargetConstants/2840" // United States
	DefaultNetwork       = "GOOGLE_SEARCH"

	maxPagesPerPhrase = 20
)

// AdsConfig describes the account and targeting for keyword idea lookups
type AdsConfig struct {
	Endpoint        string
	APIVersion      string
	DeveloperToken  string
	CustomerID      string
	LoginCustomerID string
	Language        string
	GeoTargets      []string
	Network         string
	IncludeAdult    bool
	Timeout         time.Duration
}

func (c *AdsConfig) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = DefaultAdsEndpoint
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAdsAPIVersion
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if len(c.GeoTargets) == 0 {
		c.GeoTargets = []string{DefaultGeoTarget}
	}
	if c.Network == "" {
		c.Network = DefaultNetwork
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	c.Endpoint = strings.TrimRight(c.Endpoint, "/")
	c.CustomerID = digitsOnly(c.CustomerID)
	c.LoginCustomerID = digitsOnly(c.LoginCustomerID)
}

// digitsOnly strips the dashes customers usually copy from the Ads UI
func digitsOnly(id string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, id)
}

type keywordSeed struct {
	Keywords []string `json:"keywords"`
}

type generateKeywordIdeasRequest struct {
	Language             string      `json:"language,omitempty"`
	GeoTargetConstants   []string    `json:"geoTargetConstants,omitempty"`
	IncludeAdultKeywords bool        `json:"includeAdultKeywords"`
	KeywordPlanNetwork   string      `json:"keywordPlanNetwork,omitempty"`
	KeywordSeed          keywordSeed `json:"keywordSeed"`
	PageToken            string      `json:"pageToken,omitempty"`
}

// AdsClient calls the Google Ads REST generateKeywordIdeas method
type AdsClient struct {
	config AdsConfig
	tokens oauth2.TokenSource
	client *fasthttp.Client
	log    *logger.Logger

	totalRequests  atomic.Uint64
	failedRequests atomic.Uint64
}

// NewAdsClient creates a keyword ideas client. tokens supplies the bearer
// token for each request.
func NewAdsClient(config AdsConfig, tokens oauth2.TokenSource) (*AdsClient, error) {
	config.applyDefaults()
	if config.DeveloperToken == "" {
		return nil, fmt.Errorf("developer token is required")
	}
	if config.CustomerID == "" {
		return nil, fmt.Errorf("customer id is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}

	return &AdsClient{
		config: config,
		tokens: oauth2.ReuseTokenSource(nil, tokens),
		client: &fasthttp.Client{
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxConnsPerHost:     4,
			MaxIdleConnDuration: 90 * time.Second,
		},
		log: logger.GetLogger().WithField("component", "ads_client"),
	}, nil
}

// GenerateIdeas returns every idea for the phrase, following pagination.
// Non-2xx responses come back as *QuotaError or *PermanentError.
func (c *AdsClient) GenerateIdeas(ctx context.Context, phrase string) ([]keyword.Idea, error) {
	var all []keyword.Idea
	pageToken := ""

	for page := 0; page < maxPagesPerPhrase; page++ {
		ideas, next, err := c.fetchPage(ctx, phrase, pageToken)
		if err != nil {
			return nil, err
		}
		all = append(all, ideas...)
		if next == "" {
			return all, nil
		}
		pageToken = next
	}

	c.log.WithField("phrase", phrase).Warn("Stopped following pagination after page limit")
	return all, nil
}

func (c *AdsClient) fetchPage(ctx context.Context, phrase, pageToken string) ([]keyword.Idea, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	c.totalRequests.Add(1)

	token, err := c.tokens.Token()
	if err != nil {
		c.failedRequests.Add(1)
		return nil, "", &PermanentError{Message: "obtain access token", Err: err}
	}

	body, err := json.Marshal(generateKeywordIdeasRequest{
		Language:             c.config.Language,
		GeoTargetConstants:   c.config.GeoTargets,
		IncludeAdultKeywords: c.config.IncludeAdult,
		KeywordPlanNetwork:   c.config.Network,
		KeywordSeed:          keywordSeed{Keywords: []string{phrase}},
		PageToken:            pageToken,
	})
	if err != nil {
		return nil, "", fmt.Errorf("marshal keyword ideas request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.requestURL())
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "seo-keywords/1.0")
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("developer-token", c.config.DeveloperToken)
	if c.config.LoginCustomerID != "" {
		req.Header.Set("login-customer-id", c.config.LoginCustomerID)
	}
	req.SetBody(body)

	if err := c.do(ctx, req, resp); err != nil {
		c.failedRequests.Add(1)
		return nil, "", &PermanentError{Message: err.Error(), Err: err}
	}

	if status := resp.StatusCode(); status < 200 || status > 299 {
		c.failedRequests.Add(1)
		return nil, "", ClassifyResponse(status, resp.Body())
	}

	ideas, next, err := ParseKeywordIdeas(resp.Body())
	if err != nil {
		c.failedRequests.Add(1)
		return nil, "", &PermanentError{StatusCode: resp.StatusCode(), Message: err.Error(), Err: err}
	}
	return ideas, next, nil
}

// do honours the context deadline when it is earlier than the client timeout
func (c *AdsClient) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return nil
}

func (c *AdsClient) requestURL() string {
	return fmt.Sprintf("%s/%s/customers/%s:generateKeywordIdeas", c.config.Endpoint, c.config.APIVersion, c.config.CustomerID)
}

// Stats returns request counters since creation
func (c *AdsClient) Stats() (total, failed uint64) {
	return c.totalRequests.Load(), c.failedRequests.Load()
}
