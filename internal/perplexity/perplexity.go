package perplexity

import (
	"context"
	"errors"
)

var (
	ErrUnauthorized   = errors.New("perplexity: invalid API key")
	ErrRateLimit      = errors.New("perplexity: rate limit exceeded")
	ErrInvalidRequest = errors.New("perplexity: invalid request parameters")
	ErrRequestFailed  = errors.New("perplexity: request failed")
	ErrEmptyResponse  = errors.New("perplexity: empty response")
	ErrMalformed      = errors.New("perplexity: malformed structured answer")
)

// MarketResearchPrefix добавляется к свободным вопросам пользователя
const MarketResearchPrefix = "Saudi Arabia market analysis: "

type Researcher interface {
	AnalyzeWebsite(ctx context.Context, url string) (*WebsiteProfile, error)
	Research(ctx context.Context, query string) (*Research, error)
}

// WebsiteProfile - структурированные факты о бизнесе по его сайту
type WebsiteProfile struct {
	URL                  string      `json:"url"`
	BusinessDescription  string      `json:"business_description"`
	IndustryClass        string      `json:"industry_classification"`
	TargetMarketInsights string      `json:"target_market_insights"`
	CompetitorNames      []string    `json:"competitor_names"`
	Contact              ContactInfo `json:"contact_info"`
	MarketPositioning    string      `json:"market_positioning"`
	GeographicFocus      string      `json:"geographic_focus"`
	ServicesOffered      []string    `json:"services_offered"`
	Citations            []string    `json:"citations,omitempty"`
}

type ContactInfo struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Research struct {
	Query     string   `json:"query"`
	Answer    string   `json:"answer"`
	Citations []string `json:"citations,omitempty"`
}
