package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kitbuilder587/morvo/internal/agent"
	"github.com/kitbuilder587/morvo/internal/cultural"
	"github.com/kitbuilder587/morvo/internal/domain"
	llmMock "github.com/kitbuilder587/morvo/internal/llm/mock"
	"github.com/kitbuilder587/morvo/internal/metrics"
	perplexityMock "github.com/kitbuilder587/morvo/internal/perplexity/mock"
	"github.com/kitbuilder587/morvo/internal/ratelimit"
	"github.com/kitbuilder587/morvo/internal/repository/memory"
	serankingMock "github.com/kitbuilder587/morvo/internal/seranking/mock"
)

type MockCoordinator struct {
	Outcome   *agent.Outcome
	Err       error
	CallCount int
}

func (m *MockCoordinator) Process(_ context.Context, _ domain.ChatRequest) (*agent.Outcome, error) {
	m.CallCount++
	return m.Outcome, m.Err
}

// newStack собирает настоящий координатор на заглушках вендоров и памяти
func newStack(t *testing.T, m *metrics.Metrics) (*agent.Coordinator, *ConversationService) {
	t.Helper()

	reg, err := agent.NewRegistry(
		agent.NewWebIntelAdapter(perplexityMock.New(), agent.WebIntelConfig{Observer: m}, nil),
		agent.NewBacklinkAdapter(serankingMock.New(), agent.BacklinkConfig{Observer: m}, nil),
		agent.NewSynthesisAdapter(llmMock.New(), nil),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = reg.Close() })

	conversations := NewConversationService(memory.NewConversationRepo(), m, nil)
	profiles := NewProfileService(memory.NewProfileRepo(), nil, 0, nil)

	c := agent.NewCoordinator(
		agent.NewClassifier(),
		reg,
		cultural.NewAdapter(nil),
		conversations,
		profiles,
		agent.CoordinatorConfig{Observer: m},
		nil,
	)
	return c, conversations
}

func TestChatService_Handle(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	coord, conversations := newStack(t, m)
	svc := NewChatService(ChatServiceDeps{Coordinator: coord, Metrics: m})
	ctx := context.Background()

	resp, err := svc.Handle(ctx, "http", domain.ChatRequest{
		Message:  "What's the best SEO strategy for my site example.com?",
		ClientID: "web",
		UserID:   "u1",
	})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	want := []string{"web_intelligence", "backlink", "data_synthesis", "cultural_adaptation"}
	if !reflect.DeepEqual(resp.ActivatedSpecialists, want) {
		t.Errorf("ActivatedSpecialists = %v", resp.ActivatedSpecialists)
	}
	if len(resp.Recommendations) == 0 || resp.Content == "" {
		t.Errorf("empty response: %+v", resp)
	}
	if resp.Stage != domain.StageAnalysis || resp.RecommendedNextAction != domain.StageAnalysis.NextAction() {
		t.Errorf("Stage = %v, next action = %q", resp.Stage, resp.RecommendedNextAction)
	}

	turns, err := conversations.Turns(ctx, resp.ConversationID)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 2 {
		t.Errorf("turns = %d, want 2", len(turns))
	}

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("http", "ok")); got != 1 {
		t.Errorf("requests ok = %v", got)
	}
	if got := testutil.ToFloat64(m.SpecialistCallsTotal.WithLabelValues("backlink", "success")); got != 1 {
		t.Errorf("backlink calls = %v", got)
	}
	if got := testutil.ToFloat64(m.SessionsCreatedTotal); got != 1 {
		t.Errorf("sessions created = %v", got)
	}
}

func TestChatService_Greeting(t *testing.T) {
	coord, _ := newStack(t, metrics.New(prometheus.NewRegistry()))
	svc := NewChatService(ChatServiceDeps{Coordinator: coord})

	resp, err := svc.Handle(context.Background(), "telegram", domain.ChatRequest{Message: "hello", ClientID: "telegram:42"})
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if !reflect.DeepEqual(resp.ActivatedSpecialists, []string{"cultural_adaptation"}) {
		t.Errorf("ActivatedSpecialists = %v", resp.ActivatedSpecialists)
	}
	if !reflect.DeepEqual(resp.CulturalAdaptations, []string{cultural.DefaultNote}) {
		t.Errorf("CulturalAdaptations = %v", resp.CulturalAdaptations)
	}
	if resp.RecommendedNextAction != domain.StageDiscovery.NextAction() {
		t.Errorf("RecommendedNextAction = %q", resp.RecommendedNextAction)
	}
}

func TestChatService_ValidationBeforeCoordinator(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	coord := &MockCoordinator{}
	svc := NewChatService(ChatServiceDeps{Coordinator: coord, Metrics: m})

	tests := []struct {
		name string
		req  domain.ChatRequest
		want error
	}{
		{"empty", domain.ChatRequest{Message: " ", ClientID: "web"}, domain.ErrEmptyMessage},
		{"no client", domain.ChatRequest{Message: "hi"}, domain.ErrMissingClient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Handle(context.Background(), "http", tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Handle() error = %v, want %v", err, tt.want)
			}
		})
	}

	if coord.CallCount != 0 {
		t.Errorf("coordinator called %d times for invalid input", coord.CallCount)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("http", "validation_error")); got != 2 {
		t.Errorf("validation errors = %v", got)
	}
}

func TestChatService_RateLimit(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: 1})
	defer limiter.Close()

	coord := &MockCoordinator{Outcome: &agent.Outcome{ConversationID: "c1", Stage: domain.StageDiscovery}}
	svc := NewChatService(ChatServiceDeps{Coordinator: coord, Limiter: limiter, Metrics: m})
	req := domain.ChatRequest{Message: "hi", ClientID: "web", UserID: "u1"}

	if _, err := svc.Handle(context.Background(), "http", req); err != nil {
		t.Fatalf("first Handle() error = %v", err)
	}
	if _, err := svc.Handle(context.Background(), "http", req); !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("second Handle() error = %v, want ErrRateLimited", err)
	}
	// другой канал считается отдельно
	if _, err := svc.Handle(context.Background(), "telegram", req); err != nil {
		t.Errorf("other channel Handle() error = %v", err)
	}

	if coord.CallCount != 2 {
		t.Errorf("coordinator calls = %d, want 2", coord.CallCount)
	}
	if got := testutil.ToFloat64(m.RateLimitHitsTotal); got != 1 {
		t.Errorf("rate limit hits = %v", got)
	}
}

func TestChatService_StoreError(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	storeErr := fmt.Errorf("persisting: %w", fmt.Errorf("%w: append turn: timeout", domain.ErrStateStore))
	svc := NewChatService(ChatServiceDeps{Coordinator: &MockCoordinator{Err: storeErr}, Metrics: m})

	_, err := svc.Handle(context.Background(), "http", domain.ChatRequest{Message: "hi", ClientID: "web"})
	if !errors.Is(err, domain.ErrStateStore) {
		t.Errorf("Handle() error = %v", err)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("http", "store_error")); got != 1 {
		t.Errorf("store errors = %v", got)
	}
}

func TestToChatResponse(t *testing.T) {
	out := &agent.Outcome{
		ConversationID: "c1",
		Analysis: agent.Analysis{
			Summary:         "text",
			Recommendations: []string{"r1"},
			CulturalNotes:   []string{"n1"},
			Confidence:      0.75,
		},
		Provenance: []agent.Provenance{
			{Specialist: agent.WebIntelligence, Success: true},
			{Specialist: agent.Backlink, Failure: &agent.Failure{Kind: agent.FailureQuota}},
			{Specialist: agent.CulturalAdaptation, Success: true},
		},
		Stage: domain.StageRecommendation,
	}

	resp := toChatResponse(out)

	if resp.Content != "text" || resp.ConversationID != "c1" || resp.Confidence != 0.75 {
		t.Errorf("resp = %+v", resp)
	}
	if !reflect.DeepEqual(resp.FailedSpecialists, []string{"backlink"}) {
		t.Errorf("FailedSpecialists = %v", resp.FailedSpecialists)
	}
	if resp.RecommendedNextAction != domain.StageRecommendation.NextAction() {
		t.Errorf("RecommendedNextAction = %q", resp.RecommendedNextAction)
	}
}
