package cultural

import "testing"

func TestAnalyzeText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantScore  int
		wantArabic bool
	}{
		{"plain english", "We sell shoes online", 0, false},
		{"english saudi", "Coffee shop in Riyadh", 5, false},
		{"arabic only", "متجر أحذية", 3, true},
		{"arabic saudi", "أفضل متجر في الرياض", 8, true},
		{"capped", "منتجات حلال في السعودية", 10, true},
		{"islamic finance", "Shariah compliant lending", 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeText(tt.text)
			if got.Score != tt.wantScore || got.Arabic != tt.wantArabic {
				t.Errorf("AnalyzeText(%q) = %+v, want score %d arabic %v", tt.text, got, tt.wantScore, tt.wantArabic)
			}
		})
	}
}
