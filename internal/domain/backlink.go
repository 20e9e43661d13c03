package domain

import (
	"strings"
	"time"
)

// BacklinkAnalysis - снимок анализа ссылочного профиля домена для истории
type BacklinkAnalysis struct {
	ID               string
	UserID           string
	Domain           string
	TotalBacklinks   int
	ReferringDomains int
	SaudiDomains     int
	GCCDomains       int
	ArabicAnchors    int
	GovBacklinks     int
	EduBacklinks     int
	RelevanceScore   float64
	AnalyzedAt       time.Time
}

func (a *BacklinkAnalysis) Validate() error {
	if NormalizeDomain(a.Domain) == "" {
		return ErrInvalidDomain
	}
	return nil
}

// NormalizeDomain убирает схему, www и путь
func NormalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if !strings.Contains(d, ".") {
		return ""
	}
	return d
}
