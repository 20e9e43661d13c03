package agent

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kitbuilder587/morvo/internal/cache"
	"github.com/kitbuilder587/morvo/internal/domain"
	"github.com/kitbuilder587/morvo/internal/seranking"
)

// историю пишем в фоне, но не дольше этого
const historyWriteTimeout = 5 * time.Second

// рекомендации без домена: общие правила SEO для саудовского рынка
var regionalSEOBasics = []string{
	"Focus on Arabic keyword optimization",
	"Implement mobile-first design for Saudi users",
	"Optimize for local search and Google My Business",
	"Create culturally relevant content",
	"Ensure fast loading times for mobile users",
}

// HistoryRecorder - куда складываем снимки анализа. Подходит repository.BacklinkRepository.
type HistoryRecorder interface {
	Create(ctx context.Context, analysis *domain.BacklinkAnalysis) error
}

// BacklinkData - Payload.Data адаптера ссылок
type BacklinkData struct {
	Domain   string                    `json:"domain"`
	Summary  seranking.Summary         `json:"summary"`
	Regional seranking.RegionalContext `json:"regional_context"`
}

// BacklinkReport - разбор домена по запросу, вне разговора
type BacklinkReport struct {
	Analysis domain.BacklinkAnalysis
	Summary  seranking.Summary
	Regional seranking.RegionalContext
}

type BacklinkAdapter struct {
	analyzer seranking.BacklinkAnalyzer
	history  HistoryRecorder
	cache    payloadCache
	observer Observer
	logger   *zap.Logger

	wg sync.WaitGroup
}

type BacklinkConfig struct {
	History  HistoryRecorder // nil = без истории
	Cache    cache.Cache
	CacheTTL time.Duration
	Observer Observer
}

func NewBacklinkAdapter(a seranking.BacklinkAnalyzer, cfg BacklinkConfig, logger *zap.Logger) *BacklinkAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("specialist", string(Backlink)))
	return &BacklinkAdapter{
		analyzer: a,
		history:  cfg.History,
		cache:    newPayloadCache(cfg.Cache, cfg.CacheTTL, cfg.Observer, logger),
		observer: observerOrNop(cfg.Observer),
		logger:   logger,
	}
}

func (b *BacklinkAdapter) Name() Name { return Backlink }

func (b *BacklinkAdapter) Invoke(ctx context.Context, in Input) Result {
	start := time.Now()

	target := in.Domain
	if target == "" {
		target = DomainOf(in.URL)
	}
	if target == "" {
		return Succeeded(Backlink, &Payload{
			Summary:         "General SEO guidance for the Saudi market",
			Recommendations: append([]string(nil), regionalSEOBasics...),
			Data:            map[string]bool{"saudi_seo_focus": true},
		}, start)
	}

	summary, err := b.summary(ctx, target)
	if err != nil {
		b.logger.Warn("backlink summary failed", zap.String("domain", target), zap.Error(err))
		return Failed(Backlink, err, start)
	}

	regional := seranking.AnalyzeRegion(*summary)
	b.observer.ObserveRelevanceScore(regional.RelevanceScore)
	b.recordHistory(in.UserID, target, summary, regional)

	return Succeeded(Backlink, backlinkPayload(target, summary, regional), start)
}

// Analyze разбирает домен синхронно и сразу пишет снимок в историю.
// Ошибка поставщика приходит как *Failure.
func (b *BacklinkAdapter) Analyze(ctx context.Context, rawDomain, userID string) (*BacklinkReport, error) {
	target := domain.NormalizeDomain(rawDomain)
	if target == "" {
		return nil, domain.ErrInvalidDomain
	}

	summary, err := b.summary(ctx, target)
	if err != nil {
		b.logger.Warn("backlink summary failed", zap.String("domain", target), zap.Error(err))
		return nil, NewFailure(err)
	}

	regional := seranking.AnalyzeRegion(*summary)
	b.observer.ObserveRelevanceScore(regional.RelevanceScore)

	analysis := newBacklinkAnalysis(userID, target, summary, regional)
	if b.history != nil {
		if err := b.history.Create(ctx, analysis); err != nil {
			return nil, fmt.Errorf("record backlink analysis: %w", err)
		}
	}
	return &BacklinkReport{Analysis: *analysis, Summary: *summary, Regional: regional}, nil
}

func (b *BacklinkAdapter) summary(ctx context.Context, target string) (*seranking.Summary, error) {
	key := cache.Key("backlinks", target)

	var cached seranking.Summary
	if b.cache.get(ctx, key, &cached) {
		return &cached, nil
	}

	s, err := b.analyzer.BacklinkSummary(ctx, target)
	if err != nil {
		return nil, err
	}
	b.cache.set(ctx, key, s)
	return s, nil
}

// recordHistory не блокирует ход: пишем в фоне, Close дожидается записи
func (b *BacklinkAdapter) recordHistory(userID, target string, s *seranking.Summary, rc seranking.RegionalContext) {
	if b.history == nil {
		return
	}

	analysis := newBacklinkAnalysis(userID, target, s, rc)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
		defer cancel()
		if err := b.history.Create(ctx, analysis); err != nil {
			b.logger.Warn("failed to record backlink history", zap.String("domain", target), zap.Error(err))
		}
	}()
}

// Close ждет фоновые записи истории и отпускает соединения клиента
func (b *BacklinkAdapter) Close() error {
	b.wg.Wait()
	if c, ok := b.analyzer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func newBacklinkAnalysis(userID, target string, s *seranking.Summary, rc seranking.RegionalContext) *domain.BacklinkAnalysis {
	return &domain.BacklinkAnalysis{
		ID:               uuid.NewString(),
		UserID:           userID,
		Domain:           target,
		TotalBacklinks:   s.Backlinks,
		ReferringDomains: s.RefDomains,
		SaudiDomains:     rc.SaudiDomains,
		GCCDomains:       rc.GCCDomains,
		ArabicAnchors:    len(rc.ArabicAnchors),
		GovBacklinks:     rc.GovBacklinks,
		EduBacklinks:     rc.EduBacklinks,
		RelevanceScore:   rc.RelevanceScore,
		AnalyzedAt:       time.Now(),
	}
}

func backlinkPayload(target string, s *seranking.Summary, rc seranking.RegionalContext) *Payload {
	insights := []string{
		fmt.Sprintf("%s has %d backlinks from %d referring domains", target, s.Backlinks, s.RefDomains),
		fmt.Sprintf("%d referring domains are Saudi and %d come from other GCC countries", rc.SaudiDomains, rc.GCCDomains),
		fmt.Sprintf("%d of the top anchor texts are in Arabic", len(rc.ArabicAnchors)),
		fmt.Sprintf("Regional SEO relevance score: %.1f/10", rc.RelevanceScore),
	}
	if rc.GovBacklinks > 0 {
		insights = append(insights, fmt.Sprintf("%d backlinks from Saudi government (.gov.sa) sites", rc.GovBacklinks))
	}
	if rc.EduBacklinks > 0 {
		insights = append(insights, fmt.Sprintf("%d backlinks from Saudi education (.edu.sa) sites", rc.EduBacklinks))
	}

	var recs []string
	if rc.RelevanceScore < 5 {
		recs = append(recs, "Earn backlinks from Saudi (.sa) publishers to raise regional relevance")
	}
	if len(rc.ArabicAnchors) == 0 {
		recs = append(recs, "Use Arabic anchor text in outreach and guest posts")
	}
	if rc.GovBacklinks == 0 {
		recs = append(recs, "Seek mentions from Vision 2030 initiatives and Saudi government portals")
	}
	if rc.EduBacklinks == 0 {
		recs = append(recs, "Partner with Saudi universities for .edu.sa citations")
	}
	recs = append(recs, "Optimize for local search and Google My Business")

	return &Payload{
		Summary:         fmt.Sprintf("SEO backlink analysis for %s: regional relevance %.1f/10", target, rc.RelevanceScore),
		Insights:        insights,
		Recommendations: recs,
		Data: BacklinkData{
			Domain:   target,
			Summary:  *s,
			Regional: rc,
		},
	}
}
