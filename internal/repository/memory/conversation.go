package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kitbuilder587/morvo/internal/domain"
)

// ConversationRepo хранит разговоры в памяти процесса.
// Один мьютекс на все операции: инварианты держатся сериализацией.
type ConversationRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.ConversationSession
	active   map[string]string // user_id -> conversation_id
	turns    map[string][]domain.Turn
}

func NewConversationRepo() *ConversationRepo {
	return &ConversationRepo{
		sessions: make(map[string]*domain.ConversationSession),
		active:   make(map[string]string),
		turns:    make(map[string][]domain.Turn),
	}
}

func (r *ConversationRepo) GetOrCreateActive(_ context.Context, candidate *domain.ConversationSession) (*domain.ConversationSession, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.active[candidate.UserID]; ok {
		return copySession(r.sessions[id]), false, nil
	}

	s := copySession(candidate)
	s.Active = true
	if s.Stage == "" {
		s.Stage = domain.StageDiscovery
	}
	r.sessions[s.ID] = s
	r.active[s.UserID] = s.ID
	return copySession(s), true, nil
}

func (r *ConversationRepo) GetActive(_ context.Context, userID string) (*domain.ConversationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.active[userID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return copySession(r.sessions[id]), nil
}

func (r *ConversationRepo) GetByID(_ context.Context, id string) (*domain.ConversationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return copySession(s), nil
}

func (r *ConversationRepo) AppendTurn(_ context.Context, turn *domain.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[turn.ConversationID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if !s.Active {
		return domain.ErrSessionInactive
	}

	s.TotalTurns++
	turn.Number = s.TotalTurns
	switch turn.Role {
	case domain.RoleUser:
		s.UserMessages++
	case domain.RoleAgent:
		s.AgentMessages++
	}
	if turn.CreatedAt.After(s.LastActivityAt) {
		s.LastActivityAt = turn.CreatedAt
	}

	r.turns[s.ID] = append(r.turns[s.ID], *turn)
	return nil
}

func (r *ConversationRepo) ListTurns(_ context.Context, conversationID string) ([]domain.Turn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[conversationID]; !ok {
		return nil, domain.ErrSessionNotFound
	}
	out := append([]domain.Turn(nil), r.turns[conversationID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *ConversationRepo) UpdateProgress(_ context.Context, conversationID string, specialists, outcomes []string, at time.Time) (*domain.ConversationSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[conversationID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	s.MergeSpecialists(specialists)
	s.MergeOutcomes(outcomes)
	if at.After(s.LastActivityAt) {
		s.LastActivityAt = at
	}
	return copySession(s), nil
}

func (r *ConversationRepo) AdvanceStage(_ context.Context, conversationID string, stage domain.Stage) error {
	if !stage.IsValid() {
		return domain.ErrInvalidStage
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[conversationID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if !s.Active {
		return domain.ErrSessionInactive
	}
	if stage.Rank() > s.Stage.Rank() {
		s.Stage = stage
	}
	return nil
}

func (r *ConversationRepo) Complete(_ context.Context, conversationID, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[conversationID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if !s.Active {
		return domain.ErrSessionInactive
	}

	s.Active = false
	s.Stage = domain.StageComplete
	s.CompletionReason = reason
	s.CompletedAt = &at
	delete(r.active, s.UserID)
	return nil
}

func copySession(s *domain.ConversationSession) *domain.ConversationSession {
	c := *s
	c.Specialists = append([]string(nil), s.Specialists...)
	c.KeyOutcomes = append([]string(nil), s.KeyOutcomes...)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
