package httpapi

import (
	"time"

	"github.com/kitbuilder587/morvo/internal/agent"
	"github.com/kitbuilder587/morvo/internal/domain"
	"github.com/kitbuilder587/morvo/internal/seranking"
)

type messageRequest struct {
	Message  string         `json:"message"`
	ClientID string         `json:"client_id"`
	UserID   string         `json:"user_id,omitempty"`
	Context  map[string]any `json:"context,omitempty"`
}

type messageResponse struct {
	ConversationID        string   `json:"conversation_id"`
	Content               string   `json:"content"`
	Insights              []string `json:"insights"`
	Recommendations       []string `json:"recommendations"`
	ActivatedSpecialists  []string `json:"activated_specialists"`
	FailedSpecialists     []string `json:"failed_specialists,omitempty"`
	CulturalAdaptations   []string `json:"cultural_adaptations"`
	RecommendedNextAction string   `json:"recommended_next_action,omitempty"`
	Stage                 string   `json:"stage"`
	Confidence            float64  `json:"confidence"`
}

func toMessageResponse(r *domain.ChatResponse) messageResponse {
	return messageResponse{
		ConversationID:        r.ConversationID,
		Content:               r.Content,
		Insights:              nonNil(r.Insights),
		Recommendations:       nonNil(r.Recommendations),
		ActivatedSpecialists:  nonNil(r.ActivatedSpecialists),
		FailedSpecialists:     r.FailedSpecialists,
		CulturalAdaptations:   nonNil(r.CulturalAdaptations),
		RecommendedNextAction: r.RecommendedNextAction,
		Stage:                 string(r.Stage),
		Confidence:            r.Confidence,
	}
}

type sessionResponse struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	Stage            string     `json:"stage"`
	Active           bool       `json:"is_active"`
	Specialists      []string   `json:"specialists_involved"`
	TotalTurns       int        `json:"total_turns"`
	UserMessages     int        `json:"user_messages_count"`
	AgentMessages    int        `json:"agent_messages_count"`
	KeyOutcomes      []string   `json:"key_outcomes"`
	CompletionReason string     `json:"completion_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	LastActivityAt   time.Time  `json:"last_activity_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func toSessionResponse(s *domain.ConversationSession) sessionResponse {
	return sessionResponse{
		ID:               s.ID,
		UserID:           s.UserID,
		Stage:            string(s.Stage),
		Active:           s.Active,
		Specialists:      nonNil(s.Specialists),
		TotalTurns:       s.TotalTurns,
		UserMessages:     s.UserMessages,
		AgentMessages:    s.AgentMessages,
		KeyOutcomes:      nonNil(s.KeyOutcomes),
		CompletionReason: s.CompletionReason,
		CreatedAt:        s.CreatedAt,
		LastActivityAt:   s.LastActivityAt,
		CompletedAt:      s.CompletedAt,
	}
}

type turnResponse struct {
	Number                    int       `json:"turn_number"`
	Role                      string    `json:"role"`
	Content                   string    `json:"content"`
	Specialist                string    `json:"specialist,omitempty"`
	Language                  string    `json:"language,omitempty"`
	ProcessingTimeMs          *int64    `json:"processing_time_ms,omitempty"`
	CostUSD                   *float64  `json:"cost_usd,omitempty"`
	CulturalAdaptationApplied bool      `json:"cultural_adaptation_applied"`
	CreatedAt                 time.Time `json:"created_at"`
}

func toTurnResponses(turns []domain.Turn) []turnResponse {
	out := make([]turnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, turnResponse{
			Number:                    t.Number,
			Role:                      string(t.Role),
			Content:                   t.Content,
			Specialist:                t.Specialist,
			Language:                  t.Language,
			ProcessingTimeMs:          t.ProcessingTimeMs,
			CostUSD:                   t.CostUSD,
			CulturalAdaptationApplied: t.CulturalAdaptationApplied,
			CreatedAt:                 t.CreatedAt,
		})
	}
	return out
}

type completeRequest struct {
	Reason string `json:"reason"`
}

// profileBody - профиль и на вход, и на выход
type profileBody struct {
	UserID                  string    `json:"user_id"`
	Background              string    `json:"cultural_background,omitempty"`
	NativeLanguage          string    `json:"native_language,omitempty"`
	FluencyLevel            string    `json:"fluency_level,omitempty"`
	PreferredLanguage       string    `json:"preferred_language,omitempty"`
	Directness              string    `json:"directness,omitempty"`
	FormalAddress           *bool     `json:"formal_address,omitempty"`
	Honorifics              *bool     `json:"honorifics,omitempty"`
	Storytelling            *bool     `json:"storytelling,omitempty"`
	ReligiousConsiderations *bool     `json:"religious_considerations,omitempty"`
	CalendarAwareness       *bool     `json:"calendar_awareness,omitempty"`
	Region                  string    `json:"region,omitempty"`
	Taboos                  []string  `json:"taboos,omitempty"`
	UpdatedAt               time.Time `json:"updated_at,omitzero"`
}

func (b profileBody) toDomain(userID string) *domain.CulturalProfile {
	return &domain.CulturalProfile{
		UserID:                  userID,
		Background:              b.Background,
		NativeLanguage:          b.NativeLanguage,
		FluencyLevel:            b.FluencyLevel,
		PreferredLanguage:       b.PreferredLanguage,
		Directness:              b.Directness,
		FormalAddress:           b.FormalAddress,
		Honorifics:              b.Honorifics,
		Storytelling:            b.Storytelling,
		ReligiousConsiderations: b.ReligiousConsiderations,
		CalendarAwareness:       b.CalendarAwareness,
		Region:                  b.Region,
		Taboos:                  b.Taboos,
	}
}

func toProfileBody(p *domain.CulturalProfile) profileBody {
	return profileBody{
		UserID:                  p.UserID,
		Background:              p.Background,
		NativeLanguage:          p.NativeLanguage,
		FluencyLevel:            p.FluencyLevel,
		PreferredLanguage:       p.PreferredLanguage,
		Directness:              p.Directness,
		FormalAddress:           p.FormalAddress,
		Honorifics:              p.Honorifics,
		Storytelling:            p.Storytelling,
		ReligiousConsiderations: p.ReligiousConsiderations,
		CalendarAwareness:       p.CalendarAwareness,
		Region:                  p.Region,
		Taboos:                  p.Taboos,
		UpdatedAt:               p.UpdatedAt,
	}
}

type backlinkHistoryItem struct {
	ID               string    `json:"id"`
	Domain           string    `json:"domain"`
	TotalBacklinks   int       `json:"total_backlinks"`
	ReferringDomains int       `json:"referring_domains"`
	SaudiDomains     int       `json:"saudi_domains_count"`
	GCCDomains       int       `json:"gcc_domains_count"`
	ArabicAnchors    int       `json:"arabic_anchor_count"`
	GovBacklinks     int       `json:"saudi_government_backlinks"`
	EduBacklinks     int       `json:"saudi_education_backlinks"`
	RelevanceScore   float64   `json:"local_relevance_score"`
	AnalyzedAt       time.Time `json:"analyzed_at"`
}

func toHistory(items []domain.BacklinkAnalysis) []backlinkHistoryItem {
	out := make([]backlinkHistoryItem, 0, len(items))
	for _, a := range items {
		out = append(out, toHistoryItem(a))
	}
	return out
}

func toHistoryItem(a domain.BacklinkAnalysis) backlinkHistoryItem {
	return backlinkHistoryItem{
		ID:               a.ID,
		Domain:           a.Domain,
		TotalBacklinks:   a.TotalBacklinks,
		ReferringDomains: a.ReferringDomains,
		SaudiDomains:     a.SaudiDomains,
		GCCDomains:       a.GCCDomains,
		ArabicAnchors:    a.ArabicAnchors,
		GovBacklinks:     a.GovBacklinks,
		EduBacklinks:     a.EduBacklinks,
		RelevanceScore:   a.RelevanceScore,
		AnalyzedAt:       a.AnalyzedAt,
	}
}

type analyzeRequest struct {
	UserID string `json:"user_id,omitempty"`
}

type analyzeResponse struct {
	Analysis backlinkHistoryItem      `json:"analysis"`
	Summary  seranking.Summary         `json:"summary"`
	Regional seranking.RegionalContext `json:"regional_context"`
}

func toAnalyzeResponse(r *agent.BacklinkReport) analyzeResponse {
	return analyzeResponse{
		Analysis: toHistoryItem(r.Analysis),
		Summary:  r.Summary,
		Regional: r.Regional,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
