package analyzer

import (
	"sort"
	"time"

	"github.com/paytrack/statement-analyzer/internal/models"
)

// weekdayMonFirst maps a date's weekday onto the 0=Monday..6=Sunday
// convention used throughout the recurrence model.
func weekdayMonFirst(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// mode returns the most frequent value; ties resolve to the smallest value
// so the result is deterministic regardless of input order.
func mode(values []int) int {
	counts := make(map[int]int)
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := 0, -1
	for v, c := range counts {
		if c > bestCount || (c == bestCount && v < best) {
			best, bestCount = v, c
		}
	}
	return best
}

// InferRecurrence classifies a date series by its mean interval in days.
// Fewer than two dates is ONETIME. The anchor day is the mode of weekdays
// for weekly cadences and of days-of-month otherwise, except ANNUAL which
// anchors on the earliest date.
func InferRecurrence(dates []time.Time) (models.Recurrence, *int, *int) {
	if len(dates) < 2 {
		return models.RecurrenceOnetime, nil, nil
	}

	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	totalDays := 0
	for i := 1; i < len(sorted); i++ {
		totalDays += int(sorted[i].Sub(sorted[i-1]).Hours() / 24)
	}
	avg := float64(totalDays) / float64(len(sorted)-1)

	weekdays := func() *int {
		vals := make([]int, len(sorted))
		for i, d := range sorted {
			vals[i] = weekdayMonFirst(d)
		}
		return models.IntPtr(mode(vals))
	}
	monthDays := func() *int {
		vals := make([]int, len(sorted))
		for i, d := range sorted {
			vals[i] = d.Day()
		}
		return models.IntPtr(mode(vals))
	}

	switch {
	case avg >= 5 && avg <= 9:
		return models.RecurrenceWeekly, nil, weekdays()
	case avg >= 12 && avg <= 16:
		return models.RecurrenceBiweekly, nil, weekdays()
	case avg >= 25 && avg <= 35:
		return models.RecurrenceMonthly, monthDays(), nil
	case avg >= 85 && avg <= 100:
		return models.RecurrenceQuarterly, monthDays(), nil
	case avg >= 350 && avg <= 380:
		return models.RecurrenceAnnual, models.IntPtr(sorted[0].Day()), nil
	default:
		// Irregular cadence defaults to monthly.
		return models.RecurrenceMonthly, monthDays(), nil
	}
}
