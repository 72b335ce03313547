package core

import "testing"

func TestDays(t *testing.T) {
	cases := []struct {
		r    DateRange
		want int
	}{
		{DateRange{NewDate(2024, 1, 1), NewDate(2024, 1, 31)}, 31},
		{DateRange{NewDate(2024, 2, 1), NewDate(2024, 2, 29)}, 29}, // leap year
		{DateRange{NewDate(2024, 3, 5), NewDate(2024, 3, 5)}, 1},
	}
	for i, tc := range cases {
		if got := tc.r.Days(); got != tc.want {
			t.Fatalf("case %d: got %d, want %d", i, got, tc.want)
		}
	}
}

func TestDaysElapsedClamped(t *testing.T) {
	r := DateRange{NewDate(2024, 1, 1), NewDate(2024, 1, 31)}
	cases := []struct {
		asOf Date
		want int
	}{
		{NewDate(2023, 12, 25), 1},  // before the period
		{NewDate(2024, 1, 1), 1},    // first day
		{NewDate(2024, 1, 15), 15},  // mid period
		{NewDate(2024, 1, 31), 31},  // last day
		{NewDate(2024, 2, 10), 31},  // after the period
	}
	for i, tc := range cases {
		if got := r.DaysElapsed(tc.asOf); got != tc.want {
			t.Fatalf("case %d: got %d, want %d", i, got, tc.want)
		}
	}
}

func TestPreviousPeriodIsCalendarMonthShift(t *testing.T) {
	cases := []struct {
		r          DateRange
		wantStart  Date
		wantEnd    Date
	}{
		// Month-aligned range: the natural previous month.
		{DateRange{NewDate(2024, 3, 1), NewDate(2024, 3, 31)}, NewDate(2024, 2, 1), NewDate(2024, 2, 29)},
		// Year boundary.
		{DateRange{NewDate(2024, 1, 1), NewDate(2024, 1, 31)}, NewDate(2023, 12, 1), NewDate(2023, 12, 31)},
		// Mid-month and multi-month ranges still compare against the
		// single month before Start's month.
		{DateRange{NewDate(2024, 3, 10), NewDate(2024, 5, 20)}, NewDate(2024, 2, 1), NewDate(2024, 2, 29)},
	}
	for i, tc := range cases {
		prev := tc.r.PreviousPeriod()
		if !prev.Start.Equal(tc.wantStart.Time) || !prev.End.Equal(tc.wantEnd.Time) {
			t.Fatalf("case %d: got %s..%s, want %s..%s", i,
				prev.Start.ISO(), prev.End.ISO(), tc.wantStart.ISO(), tc.wantEnd.ISO())
		}
	}
}

func TestWeeksMondayAligned(t *testing.T) {
	// 2024-01-03 is a Wednesday; its week starts Monday 2024-01-01.
	r := DateRange{NewDate(2024, 1, 3), NewDate(2024, 1, 16)}
	weeks := r.Weeks()
	if len(weeks) != 3 {
		t.Fatalf("expected 3 weeks, got %d", len(weeks))
	}
	if !weeks[0].Start.Equal(NewDate(2024, 1, 1).Time) {
		t.Fatalf("first week should start on Monday 2024-01-01, got %s", weeks[0].Start.ISO())
	}
	for i, w := range weeks {
		if w.Days() != 7 {
			t.Fatalf("week %d is %d days", i, w.Days())
		}
		if w.Start.Weekday().String() != "Monday" {
			t.Fatalf("week %d starts on %s", i, w.Start.Weekday())
		}
	}
}

func TestTrailingWindow(t *testing.T) {
	r := DateRange{NewDate(2024, 2, 1), NewDate(2024, 2, 29)}
	w := r.TrailingWindow(30)
	if !w.End.Equal(NewDate(2024, 1, 31).Time) {
		t.Fatalf("window should end the day before the period, got %s", w.End.ISO())
	}
	if w.Days() != 30 {
		t.Fatalf("expected 30 days, got %d", w.Days())
	}
}

func TestDistinctDates(t *testing.T) {
	txs := []Transaction{
		tx(Income, 100, NewDate(2024, 1, 1)),
		tx(Expense, 100, NewDate(2024, 1, 1)),
		tx(Income, 100, NewDate(2024, 1, 2)),
	}
	if got := DistinctDates(txs); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}
