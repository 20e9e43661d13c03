package domain

import (
	"strings"
	"time"
)

// MaxKeyOutcomes - сколько итогов храним на разговор, старые вытесняются
const MaxKeyOutcomes = 20

type Role string

const (
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
	RoleSystem Role = "system"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleSystem:
		return true
	}
	return false
}

// ConversationSession - один разговор пользователя.
// На пользователя не больше одного активного разговора.
type ConversationSession struct {
	ID               string
	UserID           string
	Stage            Stage
	Active           bool
	Specialists      []string
	TotalTurns       int
	UserMessages     int
	AgentMessages    int
	KeyOutcomes      []string
	CompletionReason string
	CreatedAt        time.Time
	LastActivityAt   time.Time
	CompletedAt      *time.Time
}

func NewConversationSession(id, userID string, now time.Time) *ConversationSession {
	return &ConversationSession{
		ID:             id,
		UserID:         userID,
		Stage:          StageDiscovery,
		Active:         true,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

func (s *ConversationSession) HasSpecialist(name string) bool {
	for _, sp := range s.Specialists {
		if sp == name {
			return true
		}
	}
	return false
}

// MergeSpecialists добавляет новые имена, сохраняя порядок первого появления.
func (s *ConversationSession) MergeSpecialists(names []string) {
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || s.HasSpecialist(n) {
			continue
		}
		s.Specialists = append(s.Specialists, n)
	}
}

// MergeOutcomes дописывает итоги без дублей и обрезает до MaxKeyOutcomes.
func (s *ConversationSession) MergeOutcomes(outcomes []string) {
	seen := make(map[string]struct{}, len(s.KeyOutcomes))
	for _, o := range s.KeyOutcomes {
		seen[o] = struct{}{}
	}
	for _, o := range outcomes {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		s.KeyOutcomes = append(s.KeyOutcomes, o)
	}
	if len(s.KeyOutcomes) > MaxKeyOutcomes {
		s.KeyOutcomes = s.KeyOutcomes[len(s.KeyOutcomes)-MaxKeyOutcomes:]
	}
}

// ApplyTurn обновляет счетчики после записи хода.
func (s *ConversationSession) ApplyTurn(t *Turn) {
	if t.Number > s.TotalTurns {
		s.TotalTurns = t.Number
	}
	switch t.Role {
	case RoleUser:
		s.UserMessages++
	case RoleAgent:
		s.AgentMessages++
	}
	if t.CreatedAt.After(s.LastActivityAt) {
		s.LastActivityAt = t.CreatedAt
	}
}

type Turn struct {
	ID                        string
	ConversationID            string
	Number                    int
	Role                      Role
	Content                   string
	Specialist                string // только для ходов агента
	Language                  string
	ProcessingTimeMs          *int64
	CostUSD                   *float64
	CulturalAdaptationApplied bool
	CreatedAt                 time.Time
}

func (t *Turn) Validate() error {
	if !t.Role.IsValid() {
		return ErrInvalidRole
	}
	if strings.TrimSpace(t.Content) == "" {
		return ErrEmptyTurnContent
	}
	if t.Role != RoleAgent {
		t.Specialist = ""
	}
	return nil
}
