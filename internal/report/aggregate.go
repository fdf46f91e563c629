package report

import (
	"sort"
	"time"

	"github.com/example/coworkspace/internal/application"
	"github.com/example/coworkspace/internal/calendar"
)

// StatusCounts tallies reservations per status.
type StatusCounts struct {
	Pending   int
	Confirmed int
	Canceled  int
}

// Total returns the sum over every status.
func (c StatusCounts) Total() int {
	return c.Pending + c.Confirmed + c.Canceled
}

// AggregateByStatus counts reservations per status. Unknown statuses are not counted.
func AggregateByStatus(rs []application.Reservation) StatusCounts {
	var c StatusCounts
	for _, r := range rs {
		switch r.Status {
		case application.StatusPending:
			c.Pending++
		case application.StatusConfirmed:
			c.Confirmed++
		case application.StatusCanceled:
			c.Canceled++
		}
	}
	return c
}

// SpaceCount is the number of active reservations of one space.
type SpaceCount struct {
	Space string
	Count int
}

// AggregateBySpace counts non-canceled reservations per space name, most used
// first and ties by name.
func AggregateBySpace(rs []application.Reservation) []SpaceCount {
	counts, _ := countSpaces(rs)
	out := make([]SpaceCount, 0, len(counts))
	for space, n := range counts {
		out = append(out, SpaceCount{Space: space, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Space < out[j].Space
	})
	return out
}

// MostUsedSpace returns the space with the most non-canceled reservations.
// Among equal counts the space seen first in rs wins.
func MostUsedSpace(rs []application.Reservation) (SpaceCount, bool) {
	counts, order := countSpaces(rs)
	var best SpaceCount
	for _, space := range order {
		if counts[space] > best.Count {
			best = SpaceCount{Space: space, Count: counts[space]}
		}
	}
	return best, best.Count > 0
}

func countSpaces(rs []application.Reservation) (map[string]int, []string) {
	counts := make(map[string]int)
	var order []string
	for _, r := range rs {
		if r.Status == application.StatusCanceled {
			continue
		}
		if _, seen := counts[r.Space]; !seen {
			order = append(order, r.Space)
		}
		counts[r.Space]++
	}
	return counts, order
}

// MonthLabels names the buckets of AggregateByMonth.
var MonthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// AggregateByMonth counts reservations per calendar month of their date,
// January at index 0. Years are folded together.
func AggregateByMonth(rs []application.Reservation) [12]int {
	var buckets [12]int
	for _, r := range rs {
		if r.Date.Month < time.January || r.Date.Month > time.December {
			continue
		}
		buckets[r.Date.Month-1]++
	}
	return buckets
}

// Upcoming returns up to limit reservations that are not canceled and fall on
// or after today, earliest first. A non-positive limit returns all of them.
func Upcoming(rs []application.Reservation, today calendar.Date, limit int) []application.Reservation {
	out := keep(rs, func(r application.Reservation) bool {
		return r.Status != application.StatusCanceled && !r.Date.Before(today)
	})
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Date.Compare(out[j].Date); c != 0 {
			return c < 0
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ConfirmedOn returns the confirmed reservations on day.
func ConfirmedOn(rs []application.Reservation, day calendar.Date) []application.Reservation {
	return keep(rs, func(r application.Reservation) bool {
		return r.Status == application.StatusConfirmed && r.Date == day
	})
}

// Overview summarises a reservation slice.
type Overview struct {
	Total     int
	Statuses  StatusCounts
	MostUsed  SpaceCount
	HasSpaces bool
}

// Summarize builds the overview of rs.
func Summarize(rs []application.Reservation) Overview {
	most, ok := MostUsedSpace(rs)
	return Overview{
		Total:     len(rs),
		Statuses:  AggregateByStatus(rs),
		MostUsed:  most,
		HasSpaces: ok,
	}
}
