package cultural

import (
	"strings"
	"testing"
	"time"

	"github.com/kitbuilder587/morvo/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var quietDay = time.Date(2026, time.July, 15, 12, 0, 0, 0, time.UTC)

func TestAdapt_DefaultProfile(t *testing.T) {
	a := NewAdapter(fixedClock(quietDay))
	got := a.Adapt("Here is what I can help with.", []string{"Run a campaign"}, nil)

	if !got.UsedDefaults || got.Style != StyleDefault {
		t.Errorf("UsedDefaults=%v Style=%v", got.UsedDefaults, got.Style)
	}
	if len(got.Notes) != 1 || got.Notes[0] != DefaultNote {
		t.Errorf("Notes = %v, want exactly the default note", got.Notes)
	}
	if !strings.HasPrefix(got.Text, DefaultGreeting) || !strings.HasSuffix(got.Text, DefaultSignOff) {
		t.Errorf("Text is not framed with defaults: %q", got.Text)
	}
	if !strings.Contains(got.Text, "Here is what I can help with.") {
		t.Error("summary lost")
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0] != "Run a campaign" {
		t.Errorf("recommendations changed on default path: %v", got.Recommendations)
	}
}

func TestAdapt_DoesNotMutateInput(t *testing.T) {
	a := NewAdapter(fixedClock(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)))
	in := []string{"Launch a Ramadan campaign", "Fix page speed"}
	a.Adapt("x", in, &domain.CulturalProfile{UserID: "u1", Taboos: []string{"speed"}})

	if in[0] != "Launch a Ramadan campaign" || in[1] != "Fix page speed" {
		t.Errorf("input slice mutated: %v", in)
	}
}

func TestAdapt_FormalArabicProfile(t *testing.T) {
	p := &domain.CulturalProfile{
		UserID:         "u1",
		Background:     "saudi",
		NativeLanguage: "Arabic",
		FluencyLevel:   "native",
		FormalAddress:  domain.BoolPtr(true),
		Honorifics:     domain.BoolPtr(true),
	}
	got := NewAdapter(fixedClock(quietDay)).Adapt("Your site has 40 Saudi referring domains.", nil, p)

	if got.Style != StyleFormalRespectful || got.UsedDefaults {
		t.Errorf("Style = %v, UsedDefaults = %v", got.Style, got.UsedDefaults)
	}
	if !strings.HasPrefix(got.Text, GreetingArabic) {
		t.Errorf("expected arabic greeting: %q", got.Text)
	}
	if !strings.Contains(got.Text, "Your site has 40 Saudi referring domains.") {
		t.Error("factual content altered")
	}
	if got.Notes[0] != "communication style: formal_respectful" || got.Notes[1] != "arabic greeting used" {
		t.Errorf("Notes = %v", got.Notes)
	}
}

func TestAdapt_DirectProfileHasNoSignOff(t *testing.T) {
	p := &domain.CulturalProfile{UserID: "u1", Directness: "direct"}
	got := NewAdapter(fixedClock(quietDay)).Adapt("Fix your titles.", nil, p)

	if got.Text != "Hello! Here are the key findings.\n\nFix your titles." {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestAdapt_CalendarDuringRamadan(t *testing.T) {
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	p := &domain.CulturalProfile{UserID: "u1"}
	recs := []string{"Launch a marketing campaign on Snapchat", "Improve Arabic keywords"}

	got := NewAdapter(fixedClock(now)).Adapt("summary", recs, p)

	if !strings.Contains(got.Recommendations[0], "Consider aligning it with Ramadan") {
		t.Errorf("campaign rec not annotated: %q", got.Recommendations[0])
	}
	if got.Recommendations[1] != "Improve Arabic keywords" {
		t.Errorf("non-campaign rec changed: %q", got.Recommendations[1])
	}

	joined := strings.Join(got.Notes, "|")
	if !strings.Contains(joined, "Ramadan is under way") || !strings.Contains(joined, "Eid al-Fitr starts in 19 days") {
		t.Errorf("Notes = %v", got.Notes)
	}
}

func TestAdapt_CalendarOptOut(t *testing.T) {
	now := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	p := &domain.CulturalProfile{UserID: "u1", CalendarAwareness: domain.BoolPtr(false)}
	got := NewAdapter(fixedClock(now)).Adapt("summary", []string{"Run a campaign"}, p)

	if got.Recommendations[0] != "Run a campaign" || len(got.Notes) != 1 {
		t.Errorf("calendar applied despite opt-out: %v %v", got.Recommendations, got.Notes)
	}
}

func TestAdapt_TaboosAndHalal(t *testing.T) {
	p := &domain.CulturalProfile{
		UserID:                  "u1",
		Taboos:                  []string{"nightlife"},
		ReligiousConsiderations: domain.BoolPtr(true),
	}
	recs := []string{"Partner with nightlife influencers", "Sponsor a local football club"}

	got := NewAdapter(fixedClock(quietDay)).Adapt("summary", recs, p)

	if len(got.Recommendations) != 2 || got.Recommendations[0] != "Sponsor a local football club" || got.Recommendations[1] != halalReminder {
		t.Errorf("Recommendations = %v", got.Recommendations)
	}
	joined := strings.Join(got.Notes, "|")
	if !strings.Contains(joined, "removed 1 recommendation") || !strings.Contains(joined, "halal") {
		t.Errorf("Notes = %v", got.Notes)
	}
}

func TestAdapt_PartialProfileNeverEmptyNotes(t *testing.T) {
	got := NewAdapter(nil).Adapt("", nil, &domain.CulturalProfile{})
	if len(got.Notes) == 0 {
		t.Error("notes must never be empty")
	}
	if got.Style != StyleProfessionalFriendly {
		t.Errorf("Style = %v", got.Style)
	}
}

func TestRecommendationsAndFrameSplit(t *testing.T) {
	a := NewAdapter(fixedClock(quietDay))
	p := &domain.CulturalProfile{
		UserID:                  "u1",
		Taboos:                  []string{"nightlife"},
		ReligiousConsiderations: domain.BoolPtr(true),
		CalendarAwareness:       domain.BoolPtr(false),
	}

	recs, notes := a.Recommendations([]string{"Sponsor nightlife events", "Fix page speed"}, p)
	if len(recs) != 2 || recs[0] != "Fix page speed" || recs[1] != halalReminder {
		t.Errorf("recs = %v", recs)
	}
	if len(notes) != 2 || notes[0] != "removed 1 recommendation(s) touching profile sensitivities" {
		t.Errorf("notes = %v", notes)
	}

	framed := a.Frame("body", p)
	if framed.Recommendations != nil || !strings.Contains(framed.Text, "body") {
		t.Errorf("Frame() = %+v", framed)
	}
	if got, _ := a.Recommendations([]string{"x"}, nil); len(got) != 1 || got[0] != "x" {
		t.Errorf("nil profile recs = %v", got)
	}
}
