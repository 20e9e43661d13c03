package mock

import (
	"context"
	"sync"
	"time"

	"github.com/kitbuilder587/morvo/internal/llm"
)

// Client - потокобезопасная заглушка llm.Client для тестов
type Client struct {
	Response string
	Error    error
	Delay    time.Duration
	// Responder, если задан, важнее Response/Error
	Responder func(system, prompt string) (string, error)

	mu    sync.Mutex
	calls []LLMCall
}

type LLMCall struct {
	System string
	Prompt string
}

func New() *Client {
	return &Client{
		Response: `{"opportunities": ["Localize landing pages for Saudi shoppers"], "pain_points": ["Few Arabic backlinks"]}`,
	}
}

func (c *Client) WithResponse(response string) *Client {
	c.Response = response
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, LLMCall{System: system, Prompt: prompt})
	c.mu.Unlock()

	if c.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.Delay):
		}
	}

	if c.Responder != nil {
		return c.Responder(system, prompt)
	}
	if c.Error != nil {
		return "", c.Error
	}
	return c.Response, nil
}

func (c *Client) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *Client) LastCall() LLMCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return LLMCall{}
	}
	return c.calls[len(c.calls)-1]
}

func (c *Client) Reset() {
	c.mu.Lock()
	c.calls = nil
	c.mu.Unlock()
}

var _ llm.Client = (*Client)(nil)
