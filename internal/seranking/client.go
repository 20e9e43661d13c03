package seranking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond - квота тарифа, лишние запросы ждут в лимитере
	RequestsPerSecond int
}

type Client struct {
	apiKey  string
	baseURL string
	limiter *rate.Limiter
	client  *http.Client
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.seranking.com/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// BacklinkSummary запрашивает сводку по ссылкам домена в разрезе Саудовской Аравии.
func (c *Client) BacklinkSummary(ctx context.Context, domain string) (*Summary, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, ErrInvalidRequest
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRateLimit, err)
	}

	params := url.Values{}
	params.Set("target", domain)
	params.Set("mode", "domain")
	params.Set("country", "sa")
	params.Set("search_engine", "google.sa")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/backlinks/summary?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Token "+c.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrRequestFailed, err)
	}

	c.logger.Debug("seranking response",
		zap.String("domain", domain),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		return nil, ErrRateLimit
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return nil, ErrInvalidRequest
	default:
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var parsed summaryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(parsed.Summary) == 0 {
		return nil, ErrNoData
	}

	s := parsed.Summary[0]
	if s.Target == "" {
		s.Target = domain
	}
	return &s, nil
}

func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

var _ BacklinkAnalyzer = (*Client)(nil)
