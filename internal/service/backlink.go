package service

import (
	"context"
	"fmt"

	"github.com/kitbuilder587/morvo/internal/agent"
	"github.com/kitbuilder587/morvo/internal/domain"
	"github.com/kitbuilder587/morvo/internal/repository"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// DomainAnalyzer - разбор домена по запросу, его реализует agent.BacklinkAdapter
type DomainAnalyzer interface {
	Analyze(ctx context.Context, rawDomain, userID string) (*agent.BacklinkReport, error)
}

// BacklinkHistoryService - история анализов ссылочного профиля и разбор по запросу
type BacklinkHistoryService struct {
	repo     repository.BacklinkRepository
	analyzer DomainAnalyzer
}

// NewBacklinkHistoryService: analyzer nil, если SE Ranking не настроен
func NewBacklinkHistoryService(repo repository.BacklinkRepository, analyzer DomainAnalyzer) *BacklinkHistoryService {
	return &BacklinkHistoryService{repo: repo, analyzer: analyzer}
}

// History - анализы домена, свежие первыми
func (s *BacklinkHistoryService) History(ctx context.Context, rawDomain string, limit int) ([]domain.BacklinkAnalysis, error) {
	d := domain.NormalizeDomain(rawDomain)
	if d == "" {
		return nil, domain.ErrInvalidDomain
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	out, err := s.repo.ListByDomain(ctx, d, limit)
	if err != nil {
		return nil, fmt.Errorf("list backlink history: %w", err)
	}
	return out, nil
}

// Analyze разбирает домен сейчас же, результат попадает в историю
func (s *BacklinkHistoryService) Analyze(ctx context.Context, rawDomain, userID string) (*agent.BacklinkReport, error) {
	if domain.NormalizeDomain(rawDomain) == "" {
		return nil, domain.ErrInvalidDomain
	}
	if s.analyzer == nil {
		return nil, fmt.Errorf("%w: %s", agent.ErrNotConfigured, agent.Backlink)
	}
	return s.analyzer.Analyze(ctx, rawDomain, userID)
}
