package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/morvo/internal/llm"
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// Backoff - паузы между повторами на 5xx и сетевых ошибках
	Backoff []time.Duration
}

type Client struct {
	apiKey  string
	model   string
	baseURL string
	backoff []time.Duration
	client  *http.Client
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.perplexity.ai"
	}
	if cfg.Model == "" {
		cfg.Model = "llama-3.1-sonar-large-128k-online"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Backoff == nil {
		cfg.Backoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		backoff: cfg.Backoff,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

const websitePrompt = `Analyze the business website: %s

Extract the following information in a structured JSON format:
{
    "business_description": "",
    "industry_classification": "",
    "target_market_insights": "",
    "competitor_names": [],
    "contact_info": {"email": "", "phone": ""},
    "market_positioning": "",
    "geographic_focus": "",
    "services_offered": []
}

Focus on factual information that would be useful for marketing strategy.
Consider Saudi Arabian business context if applicable.`

const researchSystem = `You are a market research analyst focused on Saudi Arabia and the GCC.
Answer with concise, factual findings. Mention concrete numbers and local specifics when available.`

func (c *Client) AnalyzeWebsite(ctx context.Context, url string) (*WebsiteProfile, error) {
	req := llm.ChatRequest{
		Model:           c.model,
		Messages:        []llm.Message{{Role: "user", Content: fmt.Sprintf(websitePrompt, url)}},
		ReturnCitations: true,
	}.WithTemperature(0.3)

	resp, err := c.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	content, err := llm.ExtractContent(resp)
	if err != nil {
		return nil, ErrEmptyResponse
	}

	raw, err := llm.ExtractJSON(content)
	if err != nil {
		c.logger.Warn("perplexity answer has no json", zap.String("url", url))
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var profile WebsiteProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	profile.URL = url
	profile.Citations = resp.Citations

	return &profile, nil
}

// Research задает свободный вопрос о рынке. Префикс рынка добавляется, если его нет.
func (c *Client) Research(ctx context.Context, query string) (*Research, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidRequest
	}
	if !strings.HasPrefix(query, MarketResearchPrefix) {
		query = MarketResearchPrefix + query
	}

	req := llm.NewChatRequest(c.model, researchSystem, query).WithTemperature(0.3)
	req.ReturnCitations = true

	resp, err := c.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	answer, err := llm.ExtractContent(resp)
	if err != nil {
		return nil, ErrEmptyResponse
	}

	return &Research{
		Query:     query,
		Answer:    strings.TrimSpace(answer),
		Citations: resp.Citations,
	}, nil
}

func (c *Client) complete(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= len(c.backoff); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff[attempt-1]):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("do request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch resp.StatusCode {
		case http.StatusOK:
			parsed, err := llm.ParseChatResponse(respBody)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
			}
			return parsed, nil
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, ErrUnauthorized
		case http.StatusTooManyRequests:
			return nil, ErrRateLimit
		case http.StatusBadRequest:
			return nil, ErrInvalidRequest
		default:
			if resp.StatusCode >= 500 {
				c.logger.Debug("perplexity server error, retrying",
					zap.Int("status", resp.StatusCode),
					zap.Int("attempt", attempt),
				)
				lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
				continue
			}
			return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, lastErr)
	}
	return nil, ErrRequestFailed
}

// Close освобождает keep-alive соединения клиента
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

var _ Researcher = (*Client)(nil)
