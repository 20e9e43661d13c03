package cultural

import (
	"strings"

	"github.com/kitbuilder587/morvo/internal/domain"
)

type Style string

const (
	StyleDefault              Style = "default"
	StyleFormalRespectful     Style = "formal_respectful"
	StyleDirectProfessional   Style = "direct_professional"
	StyleNarrativeEngaging    Style = "narrative_engaging"
	StyleProfessionalFriendly Style = "professional_friendly"
)

// SelectStyle выбирает стиль по профилю. Порядок проверок важен:
// формальность сильнее прямоты, прямота сильнее любви к историям.
func SelectStyle(p *domain.CulturalProfile) Style {
	if p == nil {
		return StyleDefault
	}
	switch {
	case domain.Flag(p.FormalAddress) && domain.Flag(p.Honorifics):
		return StyleFormalRespectful
	case strings.EqualFold(p.Directness, "direct"):
		return StyleDirectProfessional
	case domain.Flag(p.Storytelling):
		return StyleNarrativeEngaging
	default:
		return StyleProfessionalFriendly
	}
}

var arabBackgrounds = map[string]bool{"saudi": true, "gulf": true, "arab": true}

// PrefersArabic - носитель арабского из региона, здороваемся по-арабски.
// Явный выбор языка в профиле важнее.
func PrefersArabic(p *domain.CulturalProfile) bool {
	if p == nil {
		return false
	}
	switch strings.ToLower(p.PreferredLanguage) {
	case domain.LangArabic:
		return true
	case domain.LangEnglish:
		return false
	}
	fluency := strings.ToLower(p.FluencyLevel)
	return strings.EqualFold(p.NativeLanguage, "arabic") &&
		(fluency == "native" || fluency == "fluent") &&
		arabBackgrounds[strings.ToLower(p.Background)]
}

type framing struct {
	opening string
	closing string
}

var styleFraming = map[Style]framing{
	StyleFormalRespectful: {
		opening: "It is our honour to assist you. Please find our analysis below.",
		closing: "We remain at your service for any further guidance.",
	},
	StyleDirectProfessional: {
		opening: "Here are the key findings.",
	},
	StyleNarrativeEngaging: {
		opening: "Let us walk through what we found about your market.",
		closing: "Every brand has a story in the Saudi market, and these steps help you write yours.",
	},
	StyleProfessionalFriendly: {
		opening: "Thanks for your question. Here is what we found.",
		closing: "Happy to dig deeper whenever you are ready.",
	},
}
