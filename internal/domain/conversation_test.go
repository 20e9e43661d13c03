package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestNewConversationSession(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewConversationSession("c1", "u1", now)

	if s.Stage != StageDiscovery || !s.Active {
		t.Errorf("new session = %+v", s)
	}
	if s.TotalTurns != 0 || !s.LastActivityAt.Equal(now) {
		t.Errorf("counters = %d, activity %v", s.TotalTurns, s.LastActivityAt)
	}
}

func TestConversationSession_MergeSpecialists(t *testing.T) {
	s := &ConversationSession{}
	s.MergeSpecialists([]string{"backlink", "web_intelligence"})
	s.MergeSpecialists([]string{"web_intelligence", " ", "data_synthesis"})

	want := []string{"backlink", "web_intelligence", "data_synthesis"}
	if fmt.Sprint(s.Specialists) != fmt.Sprint(want) {
		t.Errorf("Specialists = %v, want %v", s.Specialists, want)
	}
}

func TestConversationSession_MergeOutcomes_Cap(t *testing.T) {
	s := &ConversationSession{}
	for i := 0; i < MaxKeyOutcomes+5; i++ {
		s.MergeOutcomes([]string{fmt.Sprintf("outcome %d", i)})
	}
	s.MergeOutcomes([]string{"outcome 24"}) // дубль

	if len(s.KeyOutcomes) != MaxKeyOutcomes {
		t.Fatalf("len = %d, want %d", len(s.KeyOutcomes), MaxKeyOutcomes)
	}
	if s.KeyOutcomes[0] != "outcome 5" {
		t.Errorf("oldest kept = %q, want outcome 5", s.KeyOutcomes[0])
	}
}

func TestConversationSession_ApplyTurn(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewConversationSession("c1", "u1", base)

	s.ApplyTurn(&Turn{Number: 1, Role: RoleUser, CreatedAt: base.Add(time.Second)})
	s.ApplyTurn(&Turn{Number: 2, Role: RoleAgent, CreatedAt: base.Add(2 * time.Second)})

	if s.TotalTurns != 2 || s.UserMessages != 1 || s.AgentMessages != 1 {
		t.Errorf("counters = %d/%d/%d", s.TotalTurns, s.UserMessages, s.AgentMessages)
	}
	if !s.LastActivityAt.Equal(base.Add(2 * time.Second)) {
		t.Errorf("LastActivityAt = %v", s.LastActivityAt)
	}
}

func TestTurn_Validate(t *testing.T) {
	tests := []struct {
		name    string
		turn    Turn
		wantErr error
	}{
		{"user", Turn{Role: RoleUser, Content: "hi"}, nil},
		{"agent", Turn{Role: RoleAgent, Content: "hello", Specialist: "backlink"}, nil},
		{"bad role", Turn{Role: "bot", Content: "x"}, ErrInvalidRole},
		{"empty", Turn{Role: RoleUser, Content: "  "}, ErrEmptyTurnContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.turn.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTurn_Validate_ClearsSpecialistForUser(t *testing.T) {
	turn := Turn{Role: RoleUser, Content: "hi", Specialist: "backlink"}
	if err := turn.Validate(); err != nil {
		t.Fatal(err)
	}
	if turn.Specialist != "" {
		t.Errorf("user turn kept specialist %q", turn.Specialist)
	}
}
