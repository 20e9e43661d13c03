package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/morvo/internal/perplexity"
)

type Client struct {
	Profile *perplexity.WebsiteProfile
	Answer  string
	Error   error
	Delay   time.Duration

	mu            sync.Mutex
	websiteCalls  []string
	researchCalls []string
	closed        bool
}

func New() *Client {
	return &Client{
		Profile: &perplexity.WebsiteProfile{
			BusinessDescription:  "Specialty coffee roaster with online ordering",
			IndustryClass:        "Food & Beverage",
			TargetMarketInsights: "Young professionals in Riyadh and Jeddah",
			CompetitorNames:      []string{"Half Million", "Barn's"},
			GeographicFocus:      "Saudi Arabia",
			ServicesOffered:      []string{"coffee beans", "subscriptions"},
		},
		Answer: "Saudi e-commerce is growing quickly, driven by mobile-first shoppers and Vision 2030 digitization.",
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

func (c *Client) wait(ctx context.Context) error {
	if c.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.Delay):
		}
	}
	return c.Error
}

func (c *Client) AnalyzeWebsite(ctx context.Context, url string) (*perplexity.WebsiteProfile, error) {
	c.mu.Lock()
	c.websiteCalls = append(c.websiteCalls, url)
	c.mu.Unlock()

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	p := *c.Profile
	p.URL = url
	return &p, nil
}

func (c *Client) Research(ctx context.Context, query string) (*perplexity.Research, error) {
	c.mu.Lock()
	c.researchCalls = append(c.researchCalls, query)
	c.mu.Unlock()

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return &perplexity.Research{Query: perplexity.MarketResearchPrefix + query, Answer: c.Answer}, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *Client) WebsiteCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.websiteCalls...)
}

func (c *Client) ResearchCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.researchCalls...)
}

func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var _ perplexity.Researcher = (*Client)(nil)
