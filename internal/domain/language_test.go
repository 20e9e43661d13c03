package domain

import "testing"

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"How do I improve SEO?", LangEnglish},
		{"كيف أحسن موقعي؟", LangArabic},
		{"SEO لموقعي", LangMixed},
		{"12345 !!", LangEnglish},
		{"", LangEnglish},
	}

	for _, tt := range tests {
		if got := DetectLanguage(tt.text); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestContainsArabic(t *testing.T) {
	if !ContainsArabic("best متجر") {
		t.Error("expected arabic")
	}
	if !ContainsArabic("ﻻ") {
		t.Error("presentation forms count as arabic")
	}
	if ContainsArabic("online store") {
		t.Error("latin text is not arabic")
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := map[string]string{
		"https://www.Example.com/path?q=1": "example.com",
		"shop.example.sa":                   "shop.example.sa",
		"localhost":                         "",
		"  ":                                "",
	}
	for in, want := range tests {
		if got := NormalizeDomain(in); got != want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", in, got, want)
		}
	}
}
