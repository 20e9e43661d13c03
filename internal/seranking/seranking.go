package seranking

import (
	"context"
	"errors"
)

var (
	ErrUnauthorized   = errors.New("seranking: invalid API key")
	ErrRateLimit      = errors.New("seranking: quota exceeded")
	ErrInvalidRequest = errors.New("seranking: invalid request parameters")
	ErrRequestFailed  = errors.New("seranking: request failed")
	ErrNoData         = errors.New("seranking: no backlink data for domain")
	ErrMalformed      = errors.New("seranking: malformed response")
)

type BacklinkAnalyzer interface {
	BacklinkSummary(ctx context.Context, domain string) (*Summary, error)
}

// Summary - первая запись из /backlinks/summary
type Summary struct {
	Target              string          `json:"target"`
	Backlinks           int             `json:"backlinks"`
	RefDomains          int             `json:"refdomains"`
	DofollowBacklinks   int             `json:"dofollow_backlinks"`
	DomainInlinkRank    int             `json:"domain_inlink_rank"`
	TopCountries        []CountryStat   `json:"top_countries"`
	TopAnchors          []AnchorStat    `json:"top_anchors_by_backlinks"`
	TopReferringDomains []RefDomainStat `json:"top_referring_domains"`
}

type CountryStat struct {
	Country          string `json:"country"`
	ReferringDomains int    `json:"referring_domains"`
}

type AnchorStat struct {
	Anchor    string `json:"anchor"`
	Backlinks int    `json:"backlinks"`
}

type RefDomainStat struct {
	Domain    string `json:"domain"`
	Backlinks int    `json:"backlinks"`
}

type summaryResponse struct {
	Summary []Summary `json:"summary"`
}
