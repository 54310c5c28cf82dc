package recurrence

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/paytrack/statement-analyzer/internal/models"
)

// DayEntry is one calendar day with the payments due on it.
type DayEntry struct {
	Day      int
	Total    decimal.Decimal
	Payments []models.PaymentDefinition
}

// MonthSchedule aggregates a month of payments: per-day entries, week
// buckets (days 1-7, 8-14, 15-21, 22+), and the month total.
type MonthSchedule struct {
	Year         int
	Month        time.Month
	Days         []DayEntry
	WeeklyTotals [4]decimal.Decimal
	MonthlyTotal decimal.Decimal
}

// BuildMonthSchedule evaluates every payment against every day of the month.
func BuildMonthSchedule(payments []models.PaymentDefinition, year int, month time.Month) MonthSchedule {
	numDays := DaysInMonth(year, month)
	schedule := MonthSchedule{
		Year:         year,
		Month:        month,
		Days:         make([]DayEntry, 0, numDays),
		MonthlyTotal: decimal.Zero,
	}
	for i := range schedule.WeeklyTotals {
		schedule.WeeklyTotals[i] = decimal.Zero
	}

	for day := 1; day <= numDays; day++ {
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		due := PaymentsOn(payments, date)

		total := decimal.Zero
		for _, p := range due {
			total = total.Add(p.Amount)
		}

		schedule.Days = append(schedule.Days, DayEntry{Day: day, Total: total, Payments: due})
		schedule.MonthlyTotal = schedule.MonthlyTotal.Add(total)
		schedule.WeeklyTotals[weekBucket(day)] = schedule.WeeklyTotals[weekBucket(day)].Add(total)
	}
	return schedule
}

func weekBucket(day int) int {
	switch {
	case day <= 7:
		return 0
	case day <= 14:
		return 1
	case day <= 21:
		return 2
	default:
		return 3
	}
}

// MonthTotal is one month's total within a year summary. Intensity is the
// total relative to the heaviest month, 0 to 1, rounded to 2 places.
type MonthTotal struct {
	Month     time.Month
	Total     decimal.Decimal
	Intensity decimal.Decimal
}

// YearSummary holds monthly totals for a full year.
type YearSummary struct {
	Year        int
	AnnualTotal decimal.Decimal
	Months      []MonthTotal
}

// BuildYearSummary totals all twelve months of a year.
func BuildYearSummary(payments []models.PaymentDefinition, year int) YearSummary {
	summary := YearSummary{
		Year:        year,
		AnnualTotal: decimal.Zero,
		Months:      make([]MonthTotal, 0, 12),
	}

	maxMonthly := decimal.Zero
	for month := time.January; month <= time.December; month++ {
		total := decimal.Zero
		for day := 1; day <= DaysInMonth(year, month); day++ {
			date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			for _, p := range PaymentsOn(payments, date) {
				total = total.Add(p.Amount)
			}
		}
		if total.GreaterThan(maxMonthly) {
			maxMonthly = total
		}
		summary.Months = append(summary.Months, MonthTotal{Month: month, Total: total})
		summary.AnnualTotal = summary.AnnualTotal.Add(total)
	}

	for i := range summary.Months {
		if maxMonthly.IsPositive() {
			summary.Months[i].Intensity = summary.Months[i].Total.Div(maxMonthly).Round(2)
		} else {
			summary.Months[i].Intensity = decimal.Zero
		}
	}
	return summary
}
