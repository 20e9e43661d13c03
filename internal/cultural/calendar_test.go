package cultural

import (
	"testing"
	"time"
)

func TestEventsOn(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"ramadan 2025 first day", time.Date(2025, 2, 28, 23, 0, 0, 0, time.UTC), "Ramadan"},
		{"ramadan 2025 last day", time.Date(2025, 3, 29, 1, 0, 0, 0, time.UTC), "Ramadan"},
		{"eid al-fitr 2025", time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), "Eid al-Fitr"},
		{"national day any year", time.Date(2031, 9, 23, 10, 0, 0, 0, time.UTC), "Saudi National Day"},
		{"founding day", time.Date(2026, 2, 22, 10, 0, 0, 0, time.UTC), "Founding Day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := EventsOn(tt.at)
			found := false
			for _, e := range events {
				if e.Name == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("EventsOn(%v) = %v, want %s", tt.at, events, tt.want)
			}
		})
	}
}

func TestEventsOn_Quiet(t *testing.T) {
	if events := EventsOn(quietDay); len(events) != 0 {
		t.Errorf("EventsOn(quiet) = %v", events)
	}
}

func TestUpcoming(t *testing.T) {
	at := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	events := Upcoming(at, 30*24*time.Hour)
	if len(events) != 1 || events[0].Name != "Saudi National Day" {
		t.Errorf("Upcoming() = %v", events)
	}

	if events := Upcoming(at, 24*time.Hour); len(events) != 0 {
		t.Errorf("short window = %v", events)
	}
}
