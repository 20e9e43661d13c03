package cultural

import (
	"strings"

	"github.com/kitbuilder587/morvo/internal/domain"
)

var saudiTerms = []string{
	"السعودية", "الرياض", "جدة", "الدمام", "المملكة", "رمضان", "عيد",
	"اليوم الوطني", "حلال", "إن شاء الله", "ما شاء الله", "أهلاً وسهلاً",
	"saudi", "riyadh", "jeddah", "dammam", "ramadan", "eid", "national day", "vision 2030",
}

var islamicTerms = []string{
	"حلال", "ربا", "غرر", "ميسر", "زكاة", "صدقة",
	"halal", "riba", "zakat", "sadaqah", "shariah", "sharia",
}

type TextRelevance struct {
	Arabic       bool     `json:"is_arabic"`
	SaudiTerms   []string `json:"saudi_terms,omitempty"`
	IslamicTerms []string `json:"islamic_terms,omitempty"`
	Score        int      `json:"cultural_relevance_score"`
}

// AnalyzeText оценивает культурную релевантность текста по шкале 0-10:
// арабское письмо +3, саудовские термины +5, исламские термины +4.
func AnalyzeText(text string) TextRelevance {
	lower := strings.ToLower(text)
	r := TextRelevance{
		Arabic:       domain.ContainsArabic(text),
		SaudiTerms:   findTerms(lower, saudiTerms),
		IslamicTerms: findTerms(lower, islamicTerms),
	}

	if r.Arabic {
		r.Score += 3
	}
	if len(r.SaudiTerms) > 0 {
		r.Score += 5
	}
	if len(r.IslamicTerms) > 0 {
		r.Score += 4
	}
	r.Score = min(r.Score, 10)
	return r
}

func findTerms(text string, terms []string) []string {
	var found []string
	for _, t := range terms {
		if strings.Contains(text, t) {
			found = append(found, t)
		}
	}
	return found
}
