package report

import (
	"strings"

	"github.com/example/coworkspace/internal/application"
	"github.com/example/coworkspace/internal/calendar"
)

// FilterByDateRange keeps reservations on or after from and on or before to.
// Either bound may be nil to leave that side open. The to bound covers the
// whole day.
func FilterByDateRange(rs []application.Reservation, from, to *calendar.Date) []application.Reservation {
	return keep(rs, func(r application.Reservation) bool {
		return inRange(r.Date, from, to)
	})
}

func inRange(d calendar.Date, from, to *calendar.Date) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && !d.Before(to.AddDays(1)) {
		return false
	}
	return true
}

// FilterByStatus keeps reservations with the given status. An empty status keeps everything.
func FilterByStatus(rs []application.Reservation, status application.ReservationStatus) []application.Reservation {
	if status == "" {
		return keep(rs, nil)
	}
	return keep(rs, func(r application.Reservation) bool { return r.Status == status })
}

// FilterBySpace keeps reservations whose space contains substr, ignoring case.
// An empty substr keeps everything.
func FilterBySpace(rs []application.Reservation, substr string) []application.Reservation {
	if substr == "" {
		return keep(rs, nil)
	}
	needle := strings.ToLower(substr)
	return keep(rs, func(r application.Reservation) bool {
		return strings.Contains(strings.ToLower(r.Space), needle)
	})
}

var categoryKeywords = map[application.SpaceCategory][]string{
	application.CategoryDesk:   {"desk"},
	application.CategoryRoom:   {"room", "meeting", "conference"},
	application.CategoryOffice: {"office"},
}

// FilterBySpaceCategory keeps reservations whose space name matches one of the
// category keywords. An empty category keeps everything; an unknown one keeps nothing.
func FilterBySpaceCategory(rs []application.Reservation, category application.SpaceCategory) []application.Reservation {
	if category == "" {
		return keep(rs, nil)
	}
	keywords := categoryKeywords[category]
	return keep(rs, func(r application.Reservation) bool {
		return matchesAny(r.Space, keywords)
	})
}

func matchesAny(space string, keywords []string) bool {
	lower := strings.ToLower(space)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Criteria combines every filter. Zero fields do not filter.
type Criteria struct {
	From     *calendar.Date
	To       *calendar.Date
	Status   application.ReservationStatus
	Space    string
	Category application.SpaceCategory
}

// Filter applies every non-zero criterion.
func Filter(rs []application.Reservation, c Criteria) []application.Reservation {
	out := FilterByDateRange(rs, c.From, c.To)
	out = FilterBySpaceCategory(out, c.Category)
	out = FilterByStatus(out, c.Status)
	return FilterBySpace(out, c.Space)
}

// LastDays returns the inclusive range ending on today and spanning n days
// before it, the default window of the reports view.
func LastDays(today calendar.Date, n int) (from, to *calendar.Date) {
	start := today.AddDays(-n)
	end := today
	return &start, &end
}

func keep(rs []application.Reservation, pred func(application.Reservation) bool) []application.Reservation {
	out := make([]application.Reservation, 0, len(rs))
	for _, r := range rs {
		if pred == nil || pred(r) {
			out = append(out, r)
		}
	}
	return out
}
