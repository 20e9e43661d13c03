package domain

import "unicode"

const (
	LangArabic  = "ar"
	LangEnglish = "en"
	LangMixed   = "mixed"
)

// диапазоны арабского письма, включая формы представления
var arabicRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0600, Hi: 0x06FF, Stride: 1},
		{Lo: 0x0750, Hi: 0x077F, Stride: 1},
		{Lo: 0x08A0, Hi: 0x08FF, Stride: 1},
		{Lo: 0xFB50, Hi: 0xFDFF, Stride: 1},
		{Lo: 0xFE70, Hi: 0xFEFF, Stride: 1},
	},
}

func IsArabicRune(r rune) bool {
	return unicode.Is(arabicRanges, r)
}

func ContainsArabic(s string) bool {
	for _, r := range s {
		if IsArabicRune(r) {
			return true
		}
	}
	return false
}

// DetectLanguage грубо определяет язык по буквам: ar, en или mixed.
// Текст без букв считаем английским.
func DetectLanguage(s string) string {
	var arabic, latin int
	for _, r := range s {
		switch {
		case IsArabicRune(r):
			if unicode.IsLetter(r) {
				arabic++
			}
		case unicode.In(r, unicode.Latin):
			latin++
		}
	}
	switch {
	case arabic > 0 && latin > 0:
		return LangMixed
	case arabic > 0:
		return LangArabic
	default:
		return LangEnglish
	}
}
