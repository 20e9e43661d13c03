package cultural

import (
	"sort"
	"time"
)

type Event struct {
	Name  string
	Start time.Time
	End   time.Time // включительно
}

func (e Event) ActiveOn(t time.Time) bool {
	d := dateOf(t)
	return !d.Before(e.Start) && !d.After(e.End)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return day(t.Year(), t.Month(), t.Day())
}

// даты хиджры сдвигаются каждый год, поэтому таблица; светские праздники считаем
var lunarEvents = []Event{
	{Name: "Ramadan", Start: day(2025, time.February, 28), End: day(2025, time.March, 29)},
	{Name: "Eid al-Fitr", Start: day(2025, time.March, 30), End: day(2025, time.April, 2)},
	{Name: "Eid al-Adha", Start: day(2025, time.June, 5), End: day(2025, time.June, 8)},
	{Name: "Ramadan", Start: day(2026, time.February, 18), End: day(2026, time.March, 19)},
	{Name: "Eid al-Fitr", Start: day(2026, time.March, 20), End: day(2026, time.March, 23)},
	{Name: "Eid al-Adha", Start: day(2026, time.May, 26), End: day(2026, time.May, 29)},
	{Name: "Ramadan", Start: day(2027, time.February, 8), End: day(2027, time.March, 9)},
	{Name: "Eid al-Fitr", Start: day(2027, time.March, 10), End: day(2027, time.March, 13)},
	{Name: "Eid al-Adha", Start: day(2027, time.May, 16), End: day(2027, time.May, 19)},
}

func civilEvents(year int) []Event {
	return []Event{
		{Name: "Founding Day", Start: day(year, time.February, 22), End: day(year, time.February, 22)},
		{Name: "Saudi National Day", Start: day(year, time.September, 23), End: day(year, time.September, 23)},
	}
}

func eventsAround(t time.Time) []Event {
	y := t.UTC().Year()
	out := append([]Event(nil), lunarEvents...)
	out = append(out, civilEvents(y)...)
	out = append(out, civilEvents(y+1)...)
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// EventsOn возвращает события, идущие в этот день
func EventsOn(t time.Time) []Event {
	var out []Event
	for _, e := range eventsAround(t) {
		if e.ActiveOn(t) {
			out = append(out, e)
		}
	}
	return out
}

// Upcoming - события, которые начнутся в ближайшие window
func Upcoming(t time.Time, window time.Duration) []Event {
	from := dateOf(t)
	to := from.Add(window)
	var out []Event
	for _, e := range eventsAround(t) {
		if e.Start.After(from) && !e.Start.After(to) {
			out = append(out, e)
		}
	}
	return out
}
