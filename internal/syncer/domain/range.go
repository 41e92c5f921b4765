package domain

import "time"

// DateRange is one backfill window, half-open: [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

// Key labels the window for progress rows, e.g. "2024-01". A window that does
// not start on the first of a month still keys on its starting month.
func (r DateRange) Key() string {
	return r.From.Format("2006-01")
}

// SplitMonthly chunks [from, to) into calendar-month windows. The first and
// last window may be partial months. An empty or inverted input yields nil.
func SplitMonthly(from, to time.Time) []DateRange {
	if !from.Before(to) {
		return nil
	}

	var ranges []DateRange
	cur := from
	for cur.Before(to) {
		next := time.Date(cur.Year(), cur.Month(), 1, 0, 0, 0, 0, cur.Location()).AddDate(0, 1, 0)
		if next.After(to) {
			next = to
		}
		ranges = append(ranges, DateRange{From: cur, To: next})
		cur = next
	}
	return ranges
}
