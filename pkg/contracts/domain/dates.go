package domain

import "time"

// MonthEnd snaps t to the last day of its calendar month, at midnight UTC.
// Panel observation dates, availability dates and factor dates all share
// this convention so joins by date are exact.
func MonthEnd(t time.Time) time.Time {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}

// YearEnd snaps t to December 31 of its calendar year.
func YearEnd(t time.Time) time.Time {
	return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
}

// AddMonthsEnd moves t by n calendar months and snaps to month end. Using
// the first of the month as the anchor avoids the AddDate overflow where
// Jan 31 plus one month lands in March.
func AddMonthsEnd(t time.Time, n int) time.Time {
	anchor := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return MonthEnd(anchor)
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
