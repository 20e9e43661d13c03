package domain

import (
	"strings"
	"unicode/utf8"
)

const MaxMessageLength = 4000

// ChatRequest - входящее сообщение пользователя.
// UserID может быть пустым, тогда разговор ведется по ClientID.
// Context непрозрачен, из него читается только website_url.
type ChatRequest struct {
	Message  string
	ClientID string
	UserID   string
	Context  map[string]any
}

func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrEmptyMessage
	}
	// 0x00 не примет TEXT в postgres
	if !utf8.ValidString(r.Message) || strings.ContainsRune(r.Message, 0) {
		return ErrMalformedMessage
	}
	if utf8.RuneCountInString(r.Message) > MaxMessageLength {
		return ErrMessageTooLong
	}
	if strings.TrimSpace(r.ClientID) == "" {
		return ErrMissingClient
	}
	return nil
}

func (r *ChatRequest) Sanitize() {
	r.Message = strings.TrimSpace(r.Message)
	r.ClientID = strings.TrimSpace(r.ClientID)
	r.UserID = strings.TrimSpace(r.UserID)
}

// ContextString - строковое значение из Context, иначе ""
func (r *ChatRequest) ContextString(key string) string {
	s, _ := r.Context[key].(string)
	return strings.TrimSpace(s)
}

// ConversationKey - чей разговор продолжаем
func (r *ChatRequest) ConversationKey() string {
	if r.UserID != "" {
		return r.UserID
	}
	return r.ClientID
}

type ChatResponse struct {
	ConversationID        string
	Content               string
	Insights              []string
	Recommendations       []string
	ActivatedSpecialists  []string
	FailedSpecialists     []string
	CulturalAdaptations   []string
	RecommendedNextAction string
	Stage                 Stage
	Confidence            float64
}
