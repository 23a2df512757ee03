package util

import (
	"time"
)

// DateLayout is the canonical ISO date layout used throughout the exporter.
const DateLayout = "2006-01-02"

// weekStart returns the Monday of the week containing t.
func weekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started 6 days earlier
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -(weekday - 1))
}

// ThisWeekRange returns the Monday-Sunday range of the week containing now.
func ThisWeekRange(now time.Time) (string, string) {
	start := weekStart(now)
	end := start.AddDate(0, 0, 6)
	return start.Format(DateLayout), end.Format(DateLayout)
}

// LastWeekRange returns the Monday-Sunday range of the week before now's week.
func LastWeekRange(now time.Time) (string, string) {
	start := weekStart(now).AddDate(0, 0, -7)
	end := start.AddDate(0, 0, 6)
	return start.Format(DateLayout), end.Format(DateLayout)
}

// ThisMonthRange returns the first and last day of the month containing now.
func ThisMonthRange(now time.Time) (string, string) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, -1)
	return start.Format(DateLayout), end.Format(DateLayout)
}

// LastMonthRange returns the first and last day of the month before now's month.
func LastMonthRange(now time.Time) (string, string) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
	end := start.AddDate(0, 1, -1)
	return start.Format(DateLayout), end.Format(DateLayout)
}

// quarterStart returns the first day of the calendar quarter containing t.
func quarterStart(t time.Time) time.Time {
	quarterMonth := time.Month(((int(t.Month())-1)/3)*3 + 1)
	return time.Date(t.Year(), quarterMonth, 1, 0, 0, 0, 0, t.Location())
}

// ThisQuarterRange returns the first and last day of the quarter containing now.
func ThisQuarterRange(now time.Time) (string, string) {
	start := quarterStart(now)
	end := start.AddDate(0, 3, -1)
	return start.Format(DateLayout), end.Format(DateLayout)
}

// LastQuarterRange returns the first and last day of the quarter before now's quarter.
func LastQuarterRange(now time.Time) (string, string) {
	start := quarterStart(now).AddDate(0, -3, 0)
	end := start.AddDate(0, 3, -1)
	return start.Format(DateLayout), end.Format(DateLayout)
}

// LastNDaysRange returns the range covering the n days ending with now, inclusive.
func LastNDaysRange(now time.Time, n int) (string, string) {
	if n < 1 {
		n = 1
	}
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := end.AddDate(0, 0, -(n - 1))
	return start.Format(DateLayout), end.Format(DateLayout)
}
