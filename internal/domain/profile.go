package domain

import (
	"strings"
	"time"
)

// CulturalProfile - предпочтения пользователя для культурной адаптации.
// Незаполненные булевы поля nil: "не указано" отличается от "нет".
type CulturalProfile struct {
	UserID                  string
	Background              string // saudi, gulf, arab, international
	NativeLanguage          string
	FluencyLevel            string // native, fluent, intermediate, basic
	PreferredLanguage       string // ar, en, mixed
	Directness              string // direct, indirect, balanced
	FormalAddress           *bool
	Honorifics              *bool
	Storytelling            *bool
	ReligiousConsiderations *bool
	CalendarAwareness       *bool
	Region                  string
	Taboos                  []string
	UpdatedAt               time.Time
}

var (
	validDirectness = map[string]bool{"": true, "direct": true, "indirect": true, "balanced": true}
	validLanguages  = map[string]bool{"": true, "ar": true, "en": true, "mixed": true}
)

func (p *CulturalProfile) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return ErrEmptyUserID
	}
	if !validDirectness[strings.ToLower(p.Directness)] {
		return ErrInvalidProfile
	}
	if !validLanguages[strings.ToLower(p.PreferredLanguage)] {
		return ErrInvalidProfile
	}
	return nil
}

func (p *CulturalProfile) Normalize() {
	p.UserID = strings.TrimSpace(p.UserID)
	p.Background = strings.ToLower(strings.TrimSpace(p.Background))
	p.FluencyLevel = strings.ToLower(strings.TrimSpace(p.FluencyLevel))
	p.PreferredLanguage = strings.ToLower(strings.TrimSpace(p.PreferredLanguage))
	p.Directness = strings.ToLower(strings.TrimSpace(p.Directness))
	p.NativeLanguage = strings.TrimSpace(p.NativeLanguage)
}

// Flag читает nullable флаг, nil считается false.
func Flag(v *bool) bool {
	return v != nil && *v
}

func BoolPtr(v bool) *bool {
	return &v
}
