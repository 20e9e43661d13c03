package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/morvo/internal/cache"
	"github.com/kitbuilder587/morvo/internal/perplexity"
)

const maxResearchInsights = 3

// WebIntelAdapter - исследование рынка и разбор сайта через perplexity
type WebIntelAdapter struct {
	researcher perplexity.Researcher
	cache      payloadCache
	logger     *zap.Logger
}

type WebIntelConfig struct {
	Cache    cache.Cache // nil = без кеша
	CacheTTL time.Duration
	Observer Observer
}

func NewWebIntelAdapter(r perplexity.Researcher, cfg WebIntelConfig, logger *zap.Logger) *WebIntelAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("specialist", string(WebIntelligence)))
	return &WebIntelAdapter{
		researcher: r,
		cache:      newPayloadCache(cfg.Cache, cfg.CacheTTL, cfg.Observer, logger),
		logger:     logger,
	}
}

func (w *WebIntelAdapter) Name() Name { return WebIntelligence }

func (w *WebIntelAdapter) Invoke(ctx context.Context, in Input) Result {
	start := time.Now()

	if in.URL != "" {
		profile, err := w.analyzeWebsite(ctx, in.URL)
		if err != nil {
			w.logger.Warn("website analysis failed", zap.String("url", in.URL), zap.Error(err))
			return Failed(WebIntelligence, err, start)
		}
		return Succeeded(WebIntelligence, websitePayload(in.URL, profile), start)
	}

	if strings.TrimSpace(in.Message) == "" {
		return Failed(WebIntelligence, &Failure{Kind: FailureInvalidInput, Err: ErrEmptyInput}, start)
	}

	research, err := w.research(ctx, in.Message)
	if err != nil {
		w.logger.Warn("market research failed", zap.Error(err))
		return Failed(WebIntelligence, err, start)
	}
	return Succeeded(WebIntelligence, researchPayload(research), start)
}

func (w *WebIntelAdapter) analyzeWebsite(ctx context.Context, url string) (*perplexity.WebsiteProfile, error) {
	key := cache.Key("web", "site", url)

	var cached perplexity.WebsiteProfile
	if w.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	profile, err := w.researcher.AnalyzeWebsite(ctx, url)
	if err != nil {
		return nil, err
	}
	w.cache.set(ctx, key, profile)
	return profile, nil
}

func (w *WebIntelAdapter) research(ctx context.Context, message string) (*perplexity.Research, error) {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(message))))
	key := cache.Key("web", "research", hex.EncodeToString(sum[:12]))

	var cached perplexity.Research
	if w.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	research, err := w.researcher.Research(ctx, message)
	if err != nil {
		return nil, err
	}
	w.cache.set(ctx, key, research)
	return research, nil
}

func (w *WebIntelAdapter) Close() error {
	if c, ok := w.researcher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func websitePayload(url string, p *perplexity.WebsiteProfile) *Payload {
	var insights []string
	add := func(label, value string) {
		if v := strings.TrimSpace(value); v != "" {
			insights = append(insights, label+": "+v)
		}
	}
	add("Business", p.BusinessDescription)
	add("Industry", p.IndustryClass)
	add("Target market", p.TargetMarketInsights)
	add("Positioning", p.MarketPositioning)
	add("Geographic focus", p.GeographicFocus)
	if len(p.CompetitorNames) > 0 {
		add("Competitors", strings.Join(p.CompetitorNames, ", "))
	}

	var recs []string
	if !mentionsSaudi(p.GeographicFocus) && !mentionsSaudi(p.TargetMarketInsights) {
		recs = append(recs, "Position the brand explicitly for Saudi customers on the homepage and in meta descriptions")
	}
	if len(p.CompetitorNames) > 0 {
		recs = append(recs, fmt.Sprintf("Benchmark your Saudi presence against %s", p.CompetitorNames[0]))
	}
	if len(p.ServicesOffered) > 0 {
		recs = append(recs, "Create Arabic landing pages for: "+strings.Join(p.ServicesOffered, ", "))
	}
	recs = append(recs, "Publish Arabic content that answers local search intent")

	summary := "Website analysis of " + url
	if p.BusinessDescription != "" {
		summary += ": " + p.BusinessDescription
	}

	return &Payload{
		Summary:         summary,
		Insights:        insights,
		Recommendations: recs,
		Data:            p,
	}
}

func researchPayload(r *perplexity.Research) *Payload {
	insights := splitSentences(r.Answer, maxResearchInsights)

	recs := []string{"Localize messaging for Saudi audiences in Arabic and English"}
	if len(r.Citations) > 0 {
		recs = append(recs, fmt.Sprintf("Validate the findings against the %d cited sources before committing budget", len(r.Citations)))
	}

	return &Payload{
		Summary:         r.Answer,
		Insights:        insights,
		Recommendations: recs,
		Data:            r,
	}
}

func mentionsSaudi(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "saudi") || strings.Contains(s, "ksa") || strings.Contains(s, "السعودية")
}

// splitSentences режет текст на предложения, берет первые n непустых
func splitSentences(text string, n int) []string {
	var out []string
	var sb strings.Builder
	for _, r := range text {
		sb.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(sb.String()); len(s) > 1 {
				out = append(out, s)
			}
			sb.Reset()
			if len(out) == n {
				return out
			}
		}
	}
	if s := strings.TrimSpace(sb.String()); s != "" && len(out) < n {
		out = append(out, s)
	}
	return out
}
