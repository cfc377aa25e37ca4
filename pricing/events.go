package pricing

import (
	"sort"

	"github.com/warp/cashflow-engine/fiscal"
)

// Event is a local demand driver: a convention, festival, holiday or
// game that lifts rates on its dates. Impact is the adjustment
// fraction added on top of the calendar factors.
type Event struct {
	Name   string
	Impact float64
	Type   string
}

// EventCalendar maps dates to the event happening on them. At most one
// event per date; multi-day events carry one entry per date.
type EventCalendar map[fiscal.Date]Event

// On reports the event on d, if any.
func (cal EventCalendar) On(d fiscal.Date) (Event, bool) {
	ev, ok := cal[d]
	return ev, ok
}

// DatedEvent pairs an event with its calendar date for range listings.
type DatedEvent struct {
	Date fiscal.Date
	Event
}

// Between returns the events inside the range in ascending date order.
func (cal EventCalendar) Between(r fiscal.DateRange) []DatedEvent {
	var out []DatedEvent
	for d, ev := range cal {
		if r.Contains(d) {
			out = append(out, DatedEvent{Date: d, Event: ev})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Clone returns an independent copy safe to mutate in scenario runs.
func (cal EventCalendar) Clone() EventCalendar {
	out := make(EventCalendar, len(cal))
	for d, ev := range cal {
		out[d] = ev
	}
	return out
}

func mustDate(s string) fiscal.Date {
	d, err := fiscal.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DefaultEvents returns the bundled Chicago 2026 event calendar used
// by the demo configuration.
func DefaultEvents() EventCalendar {
	return EventCalendar{
		mustDate("2026-01-20"): {Name: "Chicago Auto Show Setup", Impact: 0.15, Type: "convention"},
		mustDate("2026-01-21"): {Name: "Chicago Auto Show", Impact: 0.40, Type: "convention"},
		mustDate("2026-01-22"): {Name: "Chicago Auto Show", Impact: 0.40, Type: "convention"},
		mustDate("2026-01-23"): {Name: "Chicago Auto Show", Impact: 0.40, Type: "convention"},
		mustDate("2026-01-24"): {Name: "Chicago Auto Show", Impact: 0.45, Type: "convention"},
		mustDate("2026-01-25"): {Name: "Chicago Auto Show", Impact: 0.45, Type: "convention"},

		mustDate("2026-02-14"): {Name: "Valentine's Day", Impact: 0.25, Type: "holiday"},

		mustDate("2026-03-14"): {Name: "St. Patrick's Day Parade", Impact: 0.35, Type: "event"},
		mustDate("2026-03-17"): {Name: "St. Patrick's Day", Impact: 0.30, Type: "holiday"},

		mustDate("2026-04-03"): {Name: "NCAA Final Four", Impact: 0.50, Type: "sports"},
		mustDate("2026-04-04"): {Name: "NCAA Final Four", Impact: 0.55, Type: "sports"},
		mustDate("2026-04-05"): {Name: "NCAA Championship", Impact: 0.60, Type: "sports"},

		mustDate("2026-05-24"): {Name: "Memorial Day Weekend", Impact: 0.20, Type: "holiday"},
		mustDate("2026-05-25"): {Name: "Memorial Day", Impact: 0.15, Type: "holiday"},

		mustDate("2026-06-12"): {Name: "Chicago Blues Festival", Impact: 0.30, Type: "festival"},
		mustDate("2026-06-13"): {Name: "Chicago Blues Festival", Impact: 0.35, Type: "festival"},
		mustDate("2026-06-14"): {Name: "Chicago Blues Festival", Impact: 0.35, Type: "festival"},

		mustDate("2026-07-03"): {Name: "Independence Day Weekend", Impact: 0.30, Type: "holiday"},
		mustDate("2026-07-04"): {Name: "Independence Day", Impact: 0.35, Type: "holiday"},

		mustDate("2026-08-01"): {Name: "Lollapalooza Day 1", Impact: 0.45, Type: "festival"},
		mustDate("2026-08-02"): {Name: "Lollapalooza Day 2", Impact: 0.50, Type: "festival"},
		mustDate("2026-08-03"): {Name: "Lollapalooza Day 3", Impact: 0.50, Type: "festival"},
		mustDate("2026-08-04"): {Name: "Lollapalooza Day 4", Impact: 0.45, Type: "festival"},

		mustDate("2026-09-05"): {Name: "Labor Day Weekend", Impact: 0.20, Type: "holiday"},
		mustDate("2026-09-06"): {Name: "Labor Day Weekend", Impact: 0.25, Type: "holiday"},
		mustDate("2026-09-07"): {Name: "Labor Day", Impact: 0.15, Type: "holiday"},

		mustDate("2026-10-11"): {Name: "Chicago Marathon", Impact: 0.40, Type: "sports"},
		mustDate("2026-10-31"): {Name: "Halloween", Impact: 0.15, Type: "holiday"},

		mustDate("2026-11-26"): {Name: "Thanksgiving", Impact: 0.10, Type: "holiday"},
		mustDate("2026-11-27"): {Name: "Black Friday", Impact: 0.20, Type: "shopping"},
		mustDate("2026-11-28"): {Name: "Thanksgiving Weekend", Impact: 0.15, Type: "holiday"},

		mustDate("2026-12-24"): {Name: "Christmas Eve", Impact: 0.20, Type: "holiday"},
		mustDate("2026-12-25"): {Name: "Christmas Day", Impact: 0.15, Type: "holiday"},
		mustDate("2026-12-31"): {Name: "New Year's Eve", Impact: 0.50, Type: "holiday"},
	}
}
