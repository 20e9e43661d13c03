package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kitbuilder587/morvo/internal/domain"
	"github.com/kitbuilder587/morvo/internal/metrics"
	"github.com/kitbuilder587/morvo/internal/repository/memory"
)

// brokenConversations - репозиторий, у которого отваливается запись ходов
type brokenConversations struct {
	*memory.ConversationRepo
	err error
}

func (b *brokenConversations) AppendTurn(context.Context, *domain.Turn) error {
	return b.err
}

func newConversationService(t *testing.T) (*ConversationService, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	return NewConversationService(memory.NewConversationRepo(), m, nil), m
}

func TestConversationService_GetOrCreateActiveSession(t *testing.T) {
	svc, m := newConversationService(t)
	ctx := context.Background()

	first, err := svc.GetOrCreateActiveSession(ctx, "u1")
	if err != nil {
		t.Fatalf("GetOrCreateActiveSession() error = %v", err)
	}
	second, err := svc.GetOrCreateActiveSession(ctx, "u1")
	if err != nil {
		t.Fatalf("GetOrCreateActiveSession() error = %v", err)
	}

	if first.ID == "" || first.ID != second.ID {
		t.Errorf("ids = %q / %q, want same non-empty id", first.ID, second.ID)
	}
	if first.Stage != domain.StageDiscovery || !first.Active {
		t.Errorf("new session = %+v", first)
	}
	if got := testutil.ToFloat64(m.SessionsCreatedTotal); got != 1 {
		t.Errorf("sessions created = %v, want 1", got)
	}

	if _, err := svc.GetOrCreateActiveSession(ctx, ""); !errors.Is(err, domain.ErrEmptyUserID) {
		t.Errorf("empty user error = %v", err)
	}
}

func TestConversationService_RecordTurn(t *testing.T) {
	svc, _ := newConversationService(t)
	ctx := context.Background()

	session, _ := svc.GetOrCreateActiveSession(ctx, "u1")

	user, err := svc.RecordTurn(ctx, session, &domain.Turn{Role: domain.RoleUser, Content: "hi", Specialist: "backlink"})
	if err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}
	agent, err := svc.RecordTurn(ctx, session, &domain.Turn{Role: domain.RoleAgent, Content: "hello", Specialist: "cultural_adaptation"})
	if err != nil {
		t.Fatalf("RecordTurn() error = %v", err)
	}

	if user.Number != 1 || agent.Number != 2 {
		t.Errorf("numbers = %d, %d", user.Number, agent.Number)
	}
	if user.ID == "" || user.ConversationID != session.ID || user.CreatedAt.IsZero() {
		t.Errorf("user turn = %+v", user)
	}
	if user.Specialist != "" {
		t.Errorf("user turn kept specialist %q", user.Specialist)
	}
	if session.TotalTurns != 2 || session.UserMessages != 1 || session.AgentMessages != 1 {
		t.Errorf("session counters = %d/%d/%d", session.TotalTurns, session.UserMessages, session.AgentMessages)
	}

	_, err = svc.RecordTurn(ctx, session, &domain.Turn{Role: domain.RoleUser, Content: "  "})
	if !errors.Is(err, domain.ErrEmptyTurnContent) || errors.Is(err, domain.ErrStateStore) {
		t.Errorf("empty content error = %v", err)
	}
}

func TestConversationService_StoreFailureIsStateStoreError(t *testing.T) {
	repoErr := errors.New("connection refused")
	repo := &brokenConversations{ConversationRepo: memory.NewConversationRepo(), err: repoErr}
	m := metrics.New(prometheus.NewRegistry())
	svc := NewConversationService(repo, m, nil)
	ctx := context.Background()

	session, err := svc.GetOrCreateActiveSession(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.RecordTurn(ctx, session, &domain.Turn{Role: domain.RoleUser, Content: "hi"})
	if !errors.Is(err, domain.ErrStateStore) || !errors.Is(err, repoErr) {
		t.Errorf("RecordTurn() error = %v, want state store error wrapping %v", err, repoErr)
	}
	if got := testutil.ToFloat64(m.StateStoreErrorsTotal); got != 1 {
		t.Errorf("state store errors = %v, want 1", got)
	}
}

func TestConversationService_NotFoundIsNotCountedAsFailure(t *testing.T) {
	svc, m := newConversationService(t)

	_, err := svc.Active(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Active() error = %v", err)
	}
	if _, err := svc.Turns(context.Background(), "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Turns() error = %v", err)
	}
	if got := testutil.ToFloat64(m.StateStoreErrorsTotal); got != 0 {
		t.Errorf("state store errors = %v, want 0", got)
	}
}

func TestConversationService_CompleteActive(t *testing.T) {
	svc, _ := newConversationService(t)
	ctx := context.Background()

	first, _ := svc.GetOrCreateActiveSession(ctx, "u1")

	done, err := svc.CompleteActive(ctx, "u1", "")
	if err != nil || !done {
		t.Fatalf("CompleteActive() = %v, %v", done, err)
	}

	closed, err := svc.Get(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if closed.Active || closed.Stage != domain.StageComplete || closed.CompletionReason != "completed by user" {
		t.Errorf("closed session = %+v", closed)
	}

	done, err = svc.CompleteActive(ctx, "u1", "again")
	if err != nil || done {
		t.Errorf("second CompleteActive() = %v, %v; want false, nil", done, err)
	}

	next, _ := svc.GetOrCreateActiveSession(ctx, "u1")
	if next.ID == first.ID {
		t.Error("new message after completion must open a new conversation")
	}

	if err := svc.Complete(ctx, first.ID, "x"); !errors.Is(err, domain.ErrSessionInactive) {
		t.Errorf("Complete(closed) error = %v", err)
	}
}

func TestConversationService_ProgressAndStage(t *testing.T) {
	svc, _ := newConversationService(t)
	ctx := context.Background()

	session, _ := svc.GetOrCreateActiveSession(ctx, "u1")

	got, err := svc.MergeProgress(ctx, session.ID, []string{"backlink", "cultural_adaptation"}, []string{"Earn .sa backlinks"})
	if err != nil {
		t.Fatal(err)
	}
	got, _ = svc.MergeProgress(ctx, session.ID, []string{"backlink", "web_intelligence"}, []string{"Earn .sa backlinks"})
	if len(got.Specialists) != 3 || len(got.KeyOutcomes) != 1 {
		t.Errorf("progress = %v / %v", got.Specialists, got.KeyOutcomes)
	}

	if err := svc.AdvanceStage(ctx, session.ID, domain.StageRecommendation); err != nil {
		t.Fatal(err)
	}
	if err := svc.AdvanceStage(ctx, session.ID, domain.StageAnalysis); err != nil {
		t.Fatalf("backwards advance should be a no-op, got %v", err)
	}
	s, _ := svc.Get(ctx, session.ID)
	if s.Stage != domain.StageRecommendation {
		t.Errorf("Stage = %v", s.Stage)
	}
}
