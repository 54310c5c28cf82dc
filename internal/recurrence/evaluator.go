// Package recurrence answers "does this payment fall on this date" for the
// supported cadences, plus the schedule aggregations built on top of it.
// Everything here is pure date arithmetic.
package recurrence

import (
	"time"

	"github.com/paytrack/statement-analyzer/internal/models"
)

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// weekdayMonFirst maps a date onto the 0=Monday..6=Sunday convention.
func weekdayMonFirst(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// dateOnly truncates to midnight UTC so day arithmetic is exact.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// OccursOn reports whether the payment falls due on date. Anchor days past
// the end of a short month clamp to the month's last day, so a day-31
// payment still fires on April 30. Annual payments anchored on Feb 29 fire
// on the last day of February in non-leap years.
func OccursOn(p models.PaymentDefinition, date time.Time) bool {
	date = dateOnly(date)
	start := dateOnly(p.StartDate)

	if date.Before(start) {
		return false
	}
	if p.EndDate != nil && date.After(dateOnly(*p.EndDate)) {
		return false
	}

	switch p.Recurrence {
	case models.RecurrenceOnetime:
		return sameDate(date, start)

	case models.RecurrenceMonthly:
		target := anchorDay(p, start)
		if last := DaysInMonth(date.Year(), date.Month()); target > last {
			target = last
		}
		return date.Day() == target

	case models.RecurrenceWeekly:
		return weekdayMonFirst(date) == anchorWeekday(p, start)

	case models.RecurrenceBiweekly:
		if weekdayMonFirst(date) != anchorWeekday(p, start) {
			return false
		}
		weeks := int(date.Sub(start).Hours()/24) / 7
		return weeks >= 0 && weeks%2 == 0

	case models.RecurrenceQuarterly:
		target := anchorDay(p, start)
		if last := DaysInMonth(date.Year(), date.Month()); target > last {
			target = last
		}
		if date.Day() != target {
			return false
		}
		months := (date.Year()-start.Year())*12 + int(date.Month()) - int(start.Month())
		return months >= 0 && months%3 == 0

	case models.RecurrenceAnnual:
		target := anchorDay(p, start)
		if start.Month() == time.February && target == 29 {
			return date.Month() == time.February &&
				date.Day() == DaysInMonth(date.Year(), time.February)
		}
		if last := DaysInMonth(date.Year(), start.Month()); target > last {
			target = last
		}
		return date.Month() == start.Month() && date.Day() == target
	}

	return false
}

func anchorDay(p models.PaymentDefinition, start time.Time) int {
	if p.DayOfMonth != nil {
		return *p.DayOfMonth
	}
	return start.Day()
}

func anchorWeekday(p models.PaymentDefinition, start time.Time) int {
	if p.DayOfWeek != nil {
		return *p.DayOfWeek
	}
	return weekdayMonFirst(start)
}

// PaymentsOn filters payments to those due on date, preserving order.
func PaymentsOn(payments []models.PaymentDefinition, date time.Time) []models.PaymentDefinition {
	var due []models.PaymentDefinition
	for _, p := range payments {
		if OccursOn(p, date) {
			due = append(due, p)
		}
	}
	return due
}
