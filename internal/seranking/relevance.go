package seranking

import (
	"math"
	"strings"

	"github.com/kitbuilder587/morvo/internal/domain"
)

const MaxRelevanceScore = 10.0

var (
	saudiCountries = map[string]bool{"sa": true, "saudi arabia": true}
	gccCountries   = map[string]bool{
		"ae": true, "kw": true, "qa": true, "bh": true, "om": true,
		"uae": true, "united arab emirates": true,
		"kuwait": true, "qatar": true, "bahrain": true, "oman": true,
	}
)

// RegionalContext - насколько ссылочный профиль домена "саудовский"
type RegionalContext struct {
	SaudiDomains   int          `json:"saudi_domains_count"`
	GCCDomains     int          `json:"gcc_domains_count"`
	ArabicAnchors  []AnchorStat `json:"arabic_anchor_texts"`
	GovBacklinks   int          `json:"saudi_government_backlinks"`
	EduBacklinks   int          `json:"saudi_education_backlinks"`
	RelevanceScore float64      `json:"local_relevance_score"`
}

// AnalyzeRegion считает региональный контекст по сводке. Чистая функция.
func AnalyzeRegion(s Summary) RegionalContext {
	var rc RegionalContext

	for _, c := range s.TopCountries {
		country := strings.ToLower(strings.TrimSpace(c.Country))
		switch {
		case saudiCountries[country]:
			rc.SaudiDomains += c.ReferringDomains
		case gccCountries[country]:
			rc.GCCDomains += c.ReferringDomains
		}
	}

	for _, a := range s.TopAnchors {
		if domain.ContainsArabic(a.Anchor) {
			rc.ArabicAnchors = append(rc.ArabicAnchors, a)
		}
	}

	for _, d := range s.TopReferringDomains {
		name := strings.ToLower(d.Domain)
		switch {
		case strings.HasSuffix(name, ".gov.sa"):
			rc.GovBacklinks += d.Backlinks
		case strings.HasSuffix(name, ".edu.sa"):
			rc.EduBacklinks += d.Backlinks
		}
	}

	total := max(s.RefDomains, 1)
	anchors := max(len(s.TopAnchors), 1)

	rc.RelevanceScore = RelevanceScore(
		float64(rc.SaudiDomains)/float64(total),
		float64(rc.GCCDomains)/float64(total),
		float64(len(rc.ArabicAnchors))/float64(anchors),
		rc.GovBacklinks > 0,
		rc.EduBacklinks > 0,
	)
	return rc
}

// RelevanceScore: saudi*4 + gcc*2 + script*2 + 1 за .gov.sa + 0.5 за .edu.sa,
// зажато в [0, 10] и округлено до десятых.
func RelevanceScore(saudiRatio, gccRatio, scriptRatio float64, hasGov, hasEdu bool) float64 {
	score := saudiRatio*4.0 + gccRatio*2.0 + scriptRatio*2.0
	if hasGov {
		score += 1.0
	}
	if hasEdu {
		score += 0.5
	}
	if math.IsNaN(score) || score < 0 {
		score = 0
	}
	score = math.Min(score, MaxRelevanceScore)
	return math.Round(score*10) / 10
}
