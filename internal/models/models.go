package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the closed set of spending categories a recurring bill can
// belong to. Unrecognized values coerce to CategoryOther.
type Category string

const (
	CategoryLoan         Category = "LOAN"
	CategorySubscription Category = "SUBSCRIPTION"
	CategoryInvestment   Category = "INVESTMENT"
	CategoryInsurance    Category = "INSURANCE"
	CategoryUtility      Category = "UTILITY"
	CategoryOther        Category = "OTHER"
)

// Recurrence is the closed set of recurrence types. Unrecognized values
// coerce to RecurrenceMonthly.
type Recurrence string

const (
	RecurrenceMonthly   Recurrence = "MONTHLY"
	RecurrenceWeekly    Recurrence = "WEEKLY"
	RecurrenceBiweekly  Recurrence = "BIWEEKLY"
	RecurrenceQuarterly Recurrence = "QUARTERLY"
	RecurrenceAnnual    Recurrence = "ANNUAL"
	RecurrenceOnetime   Recurrence = "ONETIME"
)

// ParseCategory normalizes an external category string, falling back to
// CategoryOther for anything outside the closed set.
func ParseCategory(s string) Category {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case CategoryLoan, CategorySubscription, CategoryInvestment,
		CategoryInsurance, CategoryUtility, CategoryOther:
		return c
	default:
		return CategoryOther
	}
}

// ParseRecurrence normalizes an external recurrence string, falling back to
// RecurrenceMonthly for anything outside the closed set.
func ParseRecurrence(s string) Recurrence {
	switch r := Recurrence(strings.ToUpper(strings.TrimSpace(s))); r {
	case RecurrenceMonthly, RecurrenceWeekly, RecurrenceBiweekly,
		RecurrenceQuarterly, RecurrenceAnnual, RecurrenceOnetime:
		return r
	default:
		return RecurrenceMonthly
	}
}

// HasDayOfMonth reports whether this recurrence type anchors to a day of
// the month.
func (r Recurrence) HasDayOfMonth() bool {
	return r == RecurrenceMonthly || r == RecurrenceQuarterly || r == RecurrenceAnnual
}

// HasDayOfWeek reports whether this recurrence type anchors to a weekday.
// Weekdays use the 0=Monday .. 6=Sunday convention everywhere.
func (r Recurrence) HasDayOfWeek() bool {
	return r == RecurrenceWeekly || r == RecurrenceBiweekly
}

// RawTransaction is one parsed debit line item before grouping or
// classification. Amount is always a positive magnitude: money leaving the
// account. Credits are filtered out by the normalizer.
type RawTransaction struct {
	Date                time.Time       `json:"date"`
	Description         string          `json:"description"`
	Amount              decimal.Decimal `json:"amount"`
	OriginalDescription string          `json:"original_description"`
}

// DateRange is the first and last occurrence dates observed for a group.
type DateRange struct {
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// TransactionGroup is a cluster of raw transactions sharing a normalized
// description signature. Groups live only for the duration of one analysis
// run; member order is insertion order.
type TransactionGroup struct {
	Key          string
	Transactions []RawTransaction
}

// Dates returns the member dates in insertion order.
func (g *TransactionGroup) Dates() []time.Time {
	dates := make([]time.Time, len(g.Transactions))
	for i, tx := range g.Transactions {
		dates[i] = tx.Date
	}
	return dates
}

// RecurringCandidate is a proposed recurring bill awaiting user
// confirmation. DayOfMonth is set only for MONTHLY/QUARTERLY/ANNUAL,
// DayOfWeek only for WEEKLY/BIWEEKLY; at most one of the two is non-nil.
type RecurringCandidate struct {
	ID                   string          `json:"id"`
	OriginalDescriptions []string        `json:"original_descriptions"`
	SuggestedName        string          `json:"suggested_name"`
	Category             Category        `json:"category"`
	Recurrence           Recurrence      `json:"recurrence"`
	DayOfMonth           *int            `json:"day_of_month,omitempty"`
	DayOfWeek            *int            `json:"day_of_week,omitempty"`
	AverageAmount        decimal.Decimal `json:"average_amount"`
	Currency             string          `json:"currency"`
	Confidence           float64         `json:"confidence"`
	OccurrenceCount      int             `json:"occurrence_count"`
	DateRange            DateRange       `json:"date_range"`
}

// PaymentDefinition is a confirmed recurring payment as held by the record
// store. The evaluator consumes these; this package never creates them from
// scratch. StartDate precedes every occurrence; if EndDate is set,
// occurrences stop after it.
type PaymentDefinition struct {
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Category   Category        `json:"category"`
	Recurrence Recurrence      `json:"recurrence"`
	DayOfMonth *int            `json:"day_of_month,omitempty"`
	DayOfWeek  *int            `json:"day_of_week,omitempty"`
	StartDate  time.Time       `json:"start_date"`
	EndDate    *time.Time      `json:"end_date,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// IntPtr is a convenience for building optional anchor fields.
func IntPtr(v int) *int { return &v }
