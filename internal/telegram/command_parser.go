package telegram

import (
	"strings"

	"github.com/kitbuilder587/morvo/internal/domain"
)

var languageAliases = map[string]string{
	"ar":      domain.LangArabic,
	"arabic":  domain.LangArabic,
	"عربي":    domain.LangArabic,
	"العربية": domain.LangArabic,
	"en":      domain.LangEnglish,
	"english": domain.LangEnglish,
	"انجليزي": domain.LangEnglish,
	"mixed":   domain.LangMixed,
	"both":    domain.LangMixed,
}

var directnessAliases = map[string]string{
	"direct":   "direct",
	"مباشر":    "direct",
	"indirect": "indirect",
	"balanced": "balanced",
}

// ParseLanguage: /lang ar|en|mixed, плюс арабские написания
func ParseLanguage(arg string) (string, bool) {
	lang, ok := languageAliases[normalizeArg(arg)]
	return lang, ok
}

// ParseDirectness: /style direct|indirect|balanced
func ParseDirectness(arg string) (string, bool) {
	d, ok := directnessAliases[normalizeArg(arg)]
	return d, ok
}

// ParseToggle понимает on/off и yes/no
func ParseToggle(arg string) (bool, bool) {
	switch normalizeArg(arg) {
	case "on", "yes", "true", "1", "نعم":
		return true, true
	case "off", "no", "false", "0", "لا":
		return false, true
	}
	return false, false
}

func normalizeArg(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, " ")
}
