package analyzer

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/paytrack/statement-analyzer/internal/models"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NETFLIX.COM", "netflix.com"},
		{"NETFLIX.COM #12345", "netflix.com"},
		{"Payment 01/15/2024 Utility", "payment utility"},
		{"  Spaced   Out  ", "spaced out"},
		{"ACME 9876", "acme"},
		{"ACME 987", "acme 987"},
		{"12345678", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeKey(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func tx(date, desc string, amount float64) models.RawTransaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.RawTransaction{
		Date:                d,
		Description:         desc,
		Amount:              decimal.NewFromFloat(amount),
		OriginalDescription: desc,
	}
}

func TestGroupTransactions(t *testing.T) {
	txs := []models.RawTransaction{
		tx("2024-01-15", "NETFLIX.COM", 15.99),
		tx("2024-01-20", "DUKE ENERGY", 120.50),
		tx("2024-02-15", "NETFLIX.COM #88991", 15.99),
		tx("2024-02-20", "DUKE ENERGY", 118.30),
	}

	groups := GroupTransactions(txs)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	// First-seen order is preserved.
	if groups[0].Key != "netflix.com" || groups[1].Key != "duke energy" {
		t.Errorf("group order: %q, %q", groups[0].Key, groups[1].Key)
	}
	if len(groups[0].Transactions) != 2 || len(groups[1].Transactions) != 2 {
		t.Errorf("group sizes: %d, %d", len(groups[0].Transactions), len(groups[1].Transactions))
	}
}
