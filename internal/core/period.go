package core

import "time"

// Days returns the number of calendar days in the range, bounds included.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start.Time).Hours()/24) + 1
}

// DaysElapsed returns how many days of the range have passed as of the
// evaluation date, bounds included. Clamped to [1, Days] so daily rates
// never divide by zero and never extrapolate past the period.
func (r DateRange) DaysElapsed(asOf Date) int {
	if asOf.Before(r.Start.Time) {
		return 1
	}
	if asOf.After(r.End.Time) {
		return r.Days()
	}
	return int(asOf.Sub(r.Start.Time).Hours()/24) + 1
}

// PreviousPeriod returns the comparison window for the range: the full
// calendar month immediately before Start's month, regardless of the
// range's own length. Multi-month or non-month-aligned selections thus
// compare against a window of a different length. The behavior is kept
// on purpose; callers that need an equal-length predecessor should shift
// by Days() themselves.
func (r DateRange) PreviousPeriod() DateRange {
	firstOfMonth := NewDate(r.Start.Year(), int(r.Start.Month()), 1)
	prevEnd := firstOfMonth.AddDays(-1)
	prevStart := NewDate(prevEnd.Year(), int(prevEnd.Month()), 1)
	return DateRange{Start: prevStart, End: prevEnd}
}

// Weeks partitions the range into Monday-aligned weeks. The first week
// starts on the Monday on or before Start, so the first and last buckets
// may extend past the range bounds; membership is inclusive on both ends.
func (r DateRange) Weeks() []DateRange {
	var weeks []DateRange
	ws := mondayOnOrBefore(r.Start)
	for !ws.After(r.End.Time) {
		weeks = append(weeks, DateRange{Start: ws, End: ws.AddDays(6)})
		ws = ws.AddDays(7)
	}
	return weeks
}

func mondayOnOrBefore(d Date) Date {
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return d.AddDays(-offset)
}

// TrailingWindow returns the n calendar days ending the day before Start.
// Used to seed scenario projections with recent history.
func (r DateRange) TrailingWindow(n int) DateRange {
	end := r.Start.AddDays(-1)
	return DateRange{Start: end.AddDays(-(n - 1)), End: end}
}

// DistinctDates counts the distinct transaction dates in txs.
func DistinctDates(txs []Transaction) int {
	seen := make(map[time.Time]struct{}, len(txs))
	for _, t := range txs {
		seen[t.Date.Time] = struct{}{}
	}
	return len(seen)
}
