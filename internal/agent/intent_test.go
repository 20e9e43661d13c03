package agent

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name    string
		message string
		want    []Name
	}{
		{
			name:    "seo with site picks seo group",
			message: "What's the best SEO strategy for my site example.com?",
			want:    []Name{WebIntelligence, Backlink, DataSynthesis, CulturalAdaptation},
		},
		{
			name:    "competitor",
			message: "Who are my competitors in Riyadh?",
			want:    []Name{WebIntelligence, Backlink, DataSynthesis, CulturalAdaptation},
		},
		{
			name:    "website only",
			message: "Please look at my website",
			want:    []Name{WebIntelligence, CulturalAdaptation},
		},
		{
			name:    "marketing",
			message: "Plan a Ramadan campaign",
			want:    []Name{WebIntelligence, CulturalAdaptation},
		},
		{
			name:    "arabic seo",
			message: "كيف أحسن ظهوري في محرك البحث؟",
			want:    []Name{WebIntelligence, Backlink, DataSynthesis, CulturalAdaptation},
		},
		{
			name:    "arabic marketing",
			message: "أريد خطة تسويق",
			want:    []Name{WebIntelligence, CulturalAdaptation},
		},
		{
			name:    "case insensitive",
			message: "GOOGLE ranking",
			want:    []Name{WebIntelligence, Backlink, DataSynthesis, CulturalAdaptation},
		},
		{
			name:    "no keywords",
			message: "hello",
			want:    []Name{CulturalAdaptation},
		},
		{
			name:    "empty",
			message: "",
			want:    []Name{CulturalAdaptation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.message).Sorted()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Classify(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestClassifier_FirstMatchWins(t *testing.T) {
	c := NewClassifier()

	// "strategy" из маркетинга не добавляет ничего сверх группы website
	g, ok := c.Match("website strategy")
	if !ok || g.Name != "website" {
		t.Errorf("Match() = %q, %v; want website", g.Name, ok)
	}

	// каждое сообщение с SEO-словом тянет backlink и культуру
	for _, msg := range []string{"seo", "my search visibility", "keywords for coffee", "بحث"} {
		set := c.Classify(msg)
		if !set.Has(Backlink) || !set.Has(CulturalAdaptation) {
			t.Errorf("Classify(%q) = %v, want backlink and cultural", msg, set.Sorted())
		}
	}
}

func TestParseKeywordGroups_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "groups: [::"},
		{"no groups", "groups: []"},
		{"no keywords", "groups:\n  - name: x\n    specialists: [backlink]\n"},
		{"cultural not routable", "groups:\n  - name: x\n    specialists: [cultural_adaptation]\n    keywords: [a]\n"},
		{"unknown specialist", "groups:\n  - name: x\n    specialists: [astrology]\n    keywords: [a]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseKeywordGroups([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalidKeywords) {
				t.Errorf("ParseKeywordGroups() error = %v, want ErrInvalidKeywords", err)
			}
		})
	}
}

func TestLoadClassifier_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	data := "groups:\n  - name: shop\n    specialists: [web_intelligence]\n    keywords: [Shop]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadClassifier(path)
	if err != nil {
		t.Fatalf("LoadClassifier() error = %v", err)
	}
	if got := c.Classify("my SHOP").Sorted(); !reflect.DeepEqual(got, []Name{WebIntelligence, CulturalAdaptation}) {
		t.Errorf("Classify() = %v", got)
	}
	if got := c.Classify("seo").Sorted(); !reflect.DeepEqual(got, []Name{CulturalAdaptation}) {
		t.Errorf("override should replace built-in groups, got %v", got)
	}

	if _, err := LoadClassifier(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadClassifier(missing) expected error")
	}
}

func TestExtractURL(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"check https://shop.example.sa/products?id=1 please", "https://shop.example.sa/products?id=1"},
		{"see http://example.com.", "http://example.com"},
		{"my site example.com?", "https://example.com"},
		{"Visit WWW.Brand.SA today", "https://www.brand.sa"},
		{"price is 4.5 riyals", ""},
		{"hello", ""},
	}

	for _, tt := range tests {
		if got := ExtractURL(tt.message); got != tt.want {
			t.Errorf("ExtractURL(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}

func TestDomainOf(t *testing.T) {
	tests := map[string]string{
		"https://www.example.com/path": "example.com",
		"https://shop.example.sa":      "shop.example.sa",
		"example.org":                  "example.org",
		"":                             "",
	}
	for in, want := range tests {
		if got := DomainOf(in); got != want {
			t.Errorf("DomainOf(%q) = %q, want %q", in, got, want)
		}
	}
}
