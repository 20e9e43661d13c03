package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kitbuilder587/morvo/internal/domain"
	"github.com/kitbuilder587/morvo/internal/repository"
)

// StoreMetrics - счетчики хранилища разговоров, реализует metrics.Metrics
type StoreMetrics interface {
	RecordSessionCreated()
	RecordStateStoreError()
}

type nopStoreMetrics struct{}

func (nopStoreMetrics) RecordSessionCreated()  {}
func (nopStoreMetrics) RecordStateStoreError() {}

// ConversationService - хранилище разговоров для координатора и внешних поверхностей.
// Каждая ошибка репозитория оборачивается в domain.ErrStateStore.
type ConversationService struct {
	repo    repository.ConversationRepository
	metrics StoreMetrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewConversationService(repo repository.ConversationRepository, m StoreMetrics, logger *zap.Logger) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = nopStoreMetrics{}
	}
	return &ConversationService{
		repo:    repo,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *ConversationService) storeErr(op string, err error) error {
	// отсутствующий или закрытый разговор - ответ, а не сбой хранилища
	if !errors.Is(err, domain.ErrSessionNotFound) && !errors.Is(err, domain.ErrSessionInactive) {
		s.metrics.RecordStateStoreError()
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStateStore, op, err)
}

// GetOrCreateActiveSession возвращает активный разговор пользователя или открывает новый.
// Гонку двух первых сообщений разруливает репозиторий.
func (s *ConversationService) GetOrCreateActiveSession(ctx context.Context, userID string) (*domain.ConversationSession, error) {
	if userID == "" {
		return nil, domain.ErrEmptyUserID
	}

	candidate := domain.NewConversationSession(uuid.NewString(), userID, s.now())
	session, created, err := s.repo.GetOrCreateActive(ctx, candidate)
	if err != nil {
		return nil, s.storeErr("get or create session", err)
	}

	if created {
		s.metrics.RecordSessionCreated()
		s.logger.Info("conversation started",
			zap.String("user_id", userID),
			zap.String("conversation_id", session.ID),
		)
	}
	return session, nil
}

// RecordTurn пишет ход; номер назначает хранилище. Счетчики session обновляются на месте.
func (s *ConversationService) RecordTurn(ctx context.Context, session *domain.ConversationSession, turn *domain.Turn) (*domain.Turn, error) {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	turn.ConversationID = session.ID
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}
	if err := turn.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.AppendTurn(ctx, turn); err != nil {
		return nil, s.storeErr("append turn", err)
	}
	session.ApplyTurn(turn)
	return turn, nil
}

func (s *ConversationService) MergeProgress(ctx context.Context, sessionID string, specialists, outcomes []string) (*domain.ConversationSession, error) {
	session, err := s.repo.UpdateProgress(ctx, sessionID, specialists, outcomes, s.now())
	if err != nil {
		return nil, s.storeErr("update progress", err)
	}
	return session, nil
}

func (s *ConversationService) AdvanceStage(ctx context.Context, sessionID string, stage domain.Stage) error {
	if err := s.repo.AdvanceStage(ctx, sessionID, stage); err != nil {
		return s.storeErr("advance stage", err)
	}
	return nil
}

func (s *ConversationService) Active(ctx context.Context, userID string) (*domain.ConversationSession, error) {
	session, err := s.repo.GetActive(ctx, userID)
	if err != nil {
		return nil, s.storeErr("get active session", err)
	}
	return session, nil
}

func (s *ConversationService) Get(ctx context.Context, id string) (*domain.ConversationSession, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get session", err)
	}
	return session, nil
}

func (s *ConversationService) Turns(ctx context.Context, conversationID string) ([]domain.Turn, error) {
	turns, err := s.repo.ListTurns(ctx, conversationID)
	if err != nil {
		return nil, s.storeErr("list turns", err)
	}
	return turns, nil
}

// Complete закрывает разговор, следующее сообщение откроет новый
func (s *ConversationService) Complete(ctx context.Context, conversationID, reason string) error {
	if reason == "" {
		reason = "completed by user"
	}
	if err := s.repo.Complete(ctx, conversationID, reason, s.now()); err != nil {
		return s.storeErr("complete session", err)
	}
	s.logger.Info("conversation completed",
		zap.String("conversation_id", conversationID),
		zap.String("reason", reason),
	)
	return nil
}

// CompleteActive закрывает текущий разговор пользователя. false, если закрывать нечего.
func (s *ConversationService) CompleteActive(ctx context.Context, userID, reason string) (bool, error) {
	session, err := s.Active(ctx, userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.Complete(ctx, session.ID, reason); err != nil {
		return false, err
	}
	return true, nil
}
