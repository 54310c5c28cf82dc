// Package writer serializes analysis results to CSV.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/paytrack/statement-analyzer/internal/models"
	"github.com/paytrack/statement-analyzer/internal/recurrence"
)

// CandidateWriter writes recurring payment candidates to CSV format.
type CandidateWriter struct{}

// WriteToFile writes candidates to a CSV file at the given path.
func (w *CandidateWriter) WriteToFile(path string, candidates []models.RecurringCandidate) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, candidates)
}

// Write writes candidates in CSV format to the given writer.
func (w *CandidateWriter) Write(out io.Writer, candidates []models.RecurringCandidate) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	header := []string{
		"ID", "Suggested Name", "Category", "Recurrence",
		"Day of Month", "Day of Week", "Average Amount", "Currency",
		"Confidence", "Occurrences", "First Seen", "Last Seen",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, c := range candidates {
		row := []string{
			c.ID,
			c.SuggestedName,
			string(c.Category),
			string(c.Recurrence),
			formatDay(c.DayOfMonth),
			formatDay(c.DayOfWeek),
			c.AverageAmount.StringFixed(2),
			c.Currency,
			strconv.FormatFloat(c.Confidence, 'f', 2, 64),
			strconv.Itoa(c.OccurrenceCount),
			c.DateRange.First.Format("2006-01-02"),
			c.DateRange.Last.Format("2006-01-02"),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return nil
}

// ScheduleWriter writes projected payment occurrences over a date range.
type ScheduleWriter struct{}

// WriteToFile writes the projection to a CSV file at the given path.
func (w *ScheduleWriter) WriteToFile(path string, payments []models.PaymentDefinition, start, end time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, payments, start, end)
}

// Write emits one row per payment occurrence per day across [start, end].
func (w *ScheduleWriter) Write(out io.Writer, payments []models.PaymentDefinition, start, end time.Time) error {
	writer := csv.NewWriter(out)
	defer writer.Flush()

	header := []string{"Date", "Payment Name", "Amount", "Currency", "Category", "Recurrence", "Notes"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, p := range recurrence.PaymentsOn(payments, day) {
			row := []string{
				day.Format("2006-01-02"),
				p.Name,
				p.Amount.StringFixed(2),
				p.Currency,
				string(p.Category),
				string(p.Recurrence),
				p.Notes,
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	return nil
}

func formatDay(d *int) string {
	if d == nil {
		return ""
	}
	return strconv.Itoa(*d)
}
