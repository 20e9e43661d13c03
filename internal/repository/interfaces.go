package repository

import (
	"context"
	"time"

	"github.com/kitbuilder587/morvo/internal/domain"
)

// ConversationRepository - хранилище разговоров и ходов.
// Все реализации обязаны держать два инварианта на уровне хранилища, а не приложения:
// один активный разговор на пользователя и сплошную нумерацию ходов 1..N.
type ConversationRepository interface {
	// GetOrCreateActive вставляет candidate, если у пользователя нет активного разговора,
	// иначе возвращает существующий. created=true только для вставки.
	GetOrCreateActive(ctx context.Context, candidate *domain.ConversationSession) (session *domain.ConversationSession, created bool, err error)
	GetActive(ctx context.Context, userID string) (*domain.ConversationSession, error)
	GetByID(ctx context.Context, id string) (*domain.ConversationSession, error)

	// AppendTurn атомарно берет следующий номер хода и пишет turn.Number
	AppendTurn(ctx context.Context, turn *domain.Turn) error
	ListTurns(ctx context.Context, conversationID string) ([]domain.Turn, error)

	// UpdateProgress сливает специалистов и итоги в разговор и возвращает результат
	UpdateProgress(ctx context.Context, conversationID string, specialists, outcomes []string, at time.Time) (*domain.ConversationSession, error)
	// AdvanceStage двигает этап только вперед. Попытка назад или на месте - no-op.
	AdvanceStage(ctx context.Context, conversationID string, stage domain.Stage) error
	Complete(ctx context.Context, conversationID, reason string, at time.Time) error
}

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.CulturalProfile, error)
	Upsert(ctx context.Context, profile *domain.CulturalProfile) error
}

// BacklinkRepository - история анализов ссылочного профиля по доменам
type BacklinkRepository interface {
	Create(ctx context.Context, analysis *domain.BacklinkAnalysis) error
	ListByDomain(ctx context.Context, domainName string, limit int) ([]domain.BacklinkAnalysis, error)
}

// Store - все репозитории одного бэкенда
type Store struct {
	Conversations ConversationRepository
	Profiles      ProfileRepository
	Backlinks     BacklinkRepository
	Close         func()
}
