package cultural

import (
	"fmt"
	"strings"
	"time"

	"github.com/kitbuilder587/morvo/internal/domain"
)

const (
	GreetingArabic  = "أهلاً وسهلاً!"
	GreetingEnglish = "Hello!"

	DefaultGreeting = "أهلاً وسهلاً! Hello and welcome."
	DefaultSignOff  = "Ask me about SEO, competitors or marketing in the Saudi market any time."
	DefaultNote     = "default cultural profile applied: no stored preferences for this user"

	halalReminder = "Keep all campaign content halal-compliant and schedule posts around prayer times."

	// насколько заранее предупреждаем о событиях календаря
	calendarWindow = 30 * 24 * time.Hour
)

// Adaptation - результат адаптации. Notes никогда не пуст.
type Adaptation struct {
	Text            string
	Recommendations []string
	Notes           []string
	Style           Style
	UsedDefaults    bool
}

type Adapter struct {
	now func() time.Time
}

// NewAdapter: now нужен для календаря, nil = time.Now
func NewAdapter(now func() time.Time) *Adapter {
	if now == nil {
		now = time.Now
	}
	return &Adapter{now: now}
}

// Adapt оборачивает черновик в рамку по профилю. Факты внутри summary не меняются,
// рекомендации могут получить приписки или быть отфильтрованы по табу профиля.
func (a *Adapter) Adapt(summary string, recommendations []string, profile *domain.CulturalProfile) Adaptation {
	recs, recNotes := a.Recommendations(recommendations, profile)
	out := a.Frame(summary, profile)
	out.Recommendations = recs
	out.Notes = append(out.Notes, recNotes...)
	return out
}

// Recommendations - проход по рекомендациям: табу, halal, календарь.
// Черновик ответа надо собирать уже из результата, иначе в тексте останется отфильтрованное.
func (a *Adapter) Recommendations(recommendations []string, profile *domain.CulturalProfile) ([]string, []string) {
	recs := append([]string(nil), recommendations...)
	if profile == nil {
		return recs, nil
	}

	var notes []string
	if kept, dropped := dropTaboos(recs, profile.Taboos); dropped > 0 {
		recs = kept
		notes = append(notes, fmt.Sprintf("removed %d recommendation(s) touching profile sensitivities", dropped))
	}

	if domain.Flag(profile.ReligiousConsiderations) && len(recs) > 0 {
		recs = append(recs, halalReminder)
		notes = append(notes, "added halal compliance reminder")
	}

	// календарь включен, пока пользователь явно не отказался
	if profile.CalendarAwareness == nil || *profile.CalendarAwareness {
		recs, notes = a.applyCalendar(recs, notes)
	}
	return recs, notes
}

// Frame - приветствие и закрытие по стилю профиля, Recommendations не заполняет
func (a *Adapter) Frame(summary string, profile *domain.CulturalProfile) Adaptation {
	if profile == nil {
		return Adaptation{
			Text:         frame(DefaultGreeting, summary, DefaultSignOff),
			Notes:        []string{DefaultNote},
			Style:        StyleDefault,
			UsedDefaults: true,
		}
	}

	style := SelectStyle(profile)
	notes := []string{"communication style: " + string(style)}

	greeting := GreetingEnglish
	if PrefersArabic(profile) {
		greeting = GreetingArabic
		notes = append(notes, "arabic greeting used")
	}

	f := styleFraming[style]
	return Adaptation{
		Text:  frame(greeting+" "+f.opening, summary, f.closing),
		Notes: notes,
		Style: style,
	}
}

func (a *Adapter) applyCalendar(recs, notes []string) ([]string, []string) {
	now := a.now()
	var names []string
	for _, e := range EventsOn(now) {
		names = append(names, e.Name)
		notes = append(notes, "cultural calendar: "+e.Name+" is under way")
	}
	for _, e := range Upcoming(now, calendarWindow) {
		names = append(names, e.Name)
		days := int(e.Start.Sub(dateOf(now)).Hours() / 24)
		notes = append(notes, fmt.Sprintf("cultural calendar: %s starts in %d days", e.Name, days))
	}
	if len(names) == 0 {
		return recs, notes
	}

	suffix := fmt.Sprintf(" Consider aligning it with %s for maximum impact in Saudi Arabia.", names[0])
	for i, r := range recs {
		if strings.Contains(strings.ToLower(r), "campaign") && !strings.HasSuffix(r, suffix) {
			recs[i] = strings.TrimRight(r, " ") + suffix
		}
	}
	return recs, notes
}

func dropTaboos(recs, taboos []string) ([]string, int) {
	if len(taboos) == 0 {
		return recs, 0
	}
	kept := recs[:0]
	dropped := 0
	for _, r := range recs {
		lower := strings.ToLower(r)
		hit := false
		for _, t := range taboos {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" && strings.Contains(lower, t) {
				hit = true
				break
			}
		}
		if hit {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}

func frame(opening, body, closing string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{opening, body, closing} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}
