package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/morvo/internal/agent"
	"github.com/kitbuilder587/morvo/internal/domain"
	"github.com/kitbuilder587/morvo/internal/metrics"
	"github.com/kitbuilder587/morvo/internal/ratelimit"
)

// Coordinator - один проход координации, реализует agent.Coordinator
type Coordinator interface {
	Process(ctx context.Context, req domain.ChatRequest) (*agent.Outcome, error)
}

type ChatServiceDeps struct {
	Coordinator Coordinator
	Limiter     *ratelimit.Limiter // nil = без лимита
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// ChatService - вход для всех каналов: лимит, метрики, проход координатора, ответ
type ChatService struct {
	coordinator Coordinator
	limiter     *ratelimit.Limiter
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewChatService(deps ChatServiceDeps) *ChatService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &ChatService{
		coordinator: deps.Coordinator,
		limiter:     deps.Limiter,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// Handle отвечает на сообщение из канала (http, telegram).
// Ошибки: валидация, domain.ErrRateLimited, domain.ErrStateStore.
func (s *ChatService) Handle(ctx context.Context, channel string, req domain.ChatRequest) (*domain.ChatResponse, error) {
	start := time.Now()

	if s.metrics != nil {
		s.metrics.IncRequestsInFlight()
		defer s.metrics.DecRequestsInFlight()
	}

	req.Sanitize()
	if err := req.Validate(); err != nil {
		s.record(channel, "validation_error", start)
		return nil, err
	}

	key := channel + ":" + req.ConversationKey()
	if s.limiter != nil && !s.limiter.Allow(key) {
		if s.metrics != nil {
			s.metrics.RecordRateLimitHit()
		}
		s.record(channel, "rate_limited", start)
		s.logger.Info("rate limit hit", zap.String("channel", channel), zap.String("user_id", req.ConversationKey()))
		return nil, domain.ErrRateLimited
	}

	out, err := s.coordinator.Process(ctx, req)
	if err != nil {
		status := "error"
		if errors.Is(err, domain.ErrStateStore) {
			status = "store_error"
		}
		s.record(channel, status, start)
		s.logger.Error("chat request failed",
			zap.String("channel", channel),
			zap.String("user_id", req.ConversationKey()),
			zap.Error(err),
		)
		return nil, err
	}

	status := "ok"
	if out.Analysis.Fallback {
		status = "fallback"
	}
	s.record(channel, status, start)

	return toChatResponse(out), nil
}

func (s *ChatService) record(channel, status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRequest(channel, status, time.Since(start))
	}
}

func toChatResponse(out *agent.Outcome) *domain.ChatResponse {
	a := out.Analysis
	return &domain.ChatResponse{
		ConversationID:        out.ConversationID,
		Content:               a.Summary,
		Insights:              a.Insights,
		Recommendations:       a.Recommendations,
		ActivatedSpecialists:  out.Activated(),
		FailedSpecialists:     out.Failed(),
		CulturalAdaptations:   a.CulturalNotes,
		RecommendedNextAction: out.Stage.NextAction(),
		Stage:                 out.Stage,
		Confidence:            a.Confidence,
	}
}
