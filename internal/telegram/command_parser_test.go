package telegram

import (
	"testing"

	"github.com/kitbuilder587/morvo/internal/domain"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		arg    string
		want   string
		wantOK bool
	}{
		{"ar", domain.LangArabic, true},
		{"  Arabic ", domain.LangArabic, true},
		{"عربي", domain.LangArabic, true},
		{"EN", domain.LangEnglish, true},
		{"mixed", domain.LangMixed, true},
		{"both", domain.LangMixed, true},
		{"fr", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, ok := ParseLanguage(tt.arg)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLanguage(%q) = %q, %v, want %q, %v", tt.arg, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseDirectness(t *testing.T) {
	tests := []struct {
		arg    string
		want   string
		wantOK bool
	}{
		{"direct", "direct", true},
		{"Indirect", "indirect", true},
		{"balanced", "balanced", true},
		{"مباشر", "direct", true},
		{"rude", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseDirectness(tt.arg)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseDirectness(%q) = %q, %v, want %q, %v", tt.arg, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseToggle(t *testing.T) {
	tests := []struct {
		arg    string
		want   bool
		wantOK bool
	}{
		{"on", true, true},
		{"YES", true, true},
		{"نعم", true, true},
		{"off", false, true},
		{"no", false, true},
		{"maybe", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		got, ok := ParseToggle(tt.arg)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseToggle(%q) = %v, %v, want %v, %v", tt.arg, got, ok, tt.want, tt.wantOK)
		}
	}
}
