package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/morvo/internal/seranking"
)

type Client struct {
	Summary *seranking.Summary
	Error   error
	Delay   time.Duration

	mu      sync.Mutex
	domains []string
	closed  bool
}

func New() *Client {
	return &Client{
		Summary: &seranking.Summary{
			Backlinks:  840,
			RefDomains: 60,
			TopCountries: []seranking.CountryStat{
				{Country: "sa", ReferringDomains: 18},
				{Country: "ae", ReferringDomains: 6},
			},
			TopAnchors: []seranking.AnchorStat{
				{Anchor: "قهوة مختصة", Backlinks: 30},
				{Anchor: "specialty coffee", Backlinks: 25},
			},
			TopReferringDomains: []seranking.RefDomainStat{
				{Domain: "news.example.com", Backlinks: 40},
			},
		},
	}
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(d time.Duration) *Client {
	c.Delay = d
	return c
}

func (c *Client) BacklinkSummary(ctx context.Context, domain string) (*seranking.Summary, error) {
	c.mu.Lock()
	c.domains = append(c.domains, domain)
	c.mu.Unlock()

	if c.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Delay):
		}
	}
	if c.Error != nil {
		return nil, c.Error
	}

	s := *c.Summary
	s.Target = domain
	return &s, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *Client) Domains() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.domains...)
}

func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var _ seranking.BacklinkAnalyzer = (*Client)(nil)
