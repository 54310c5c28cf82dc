package normalizer

import (
	"strings"
	"testing"
)

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		date    int
		desc    int
		amount  int
		debit   int
		credit  int
	}{
		{
			name:    "standard export",
			headers: []string{"Date", "Description", "Amount"},
			date:    0, desc: 1, amount: 2, debit: -1, credit: -1,
		},
		{
			name:    "debit credit columns",
			headers: []string{"Posted Date", "Memo", "Debit", "Credit"},
			date:    0, desc: 1, amount: -1, debit: 2, credit: 3,
		},
		{
			name:    "bank variants",
			headers: []string{"Transaction Date", "Payee", "Withdrawal", "Deposit"},
			date:    0, desc: 1, amount: -1, debit: 2, credit: 3,
		},
		{
			name:    "no matches",
			headers: []string{"Foo", "Bar", "Baz"},
			date:    -1, desc: -1, amount: -1, debit: -1, credit: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := detectColumns(tt.headers)
			if cols.date != tt.date || cols.description != tt.desc ||
				cols.amount != tt.amount || cols.debit != tt.debit || cols.credit != tt.credit {
				t.Errorf("detectColumns(%v) = %+v", tt.headers, cols)
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	input := strings.Join([]string{
		"Date,Description,Amount",
		"2024-01-15,NETFLIX.COM,15.99",
		"2024-02-15,NETFLIX.COM,15.99",
		"2024-01-20,DUKE ENERGY,-120.50",
		"bad date,SOMETHING,10.00",
		"2024-01-25,,10.00",
	}, "\n")

	txs, warnings, err := ParseCSV([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}

	// Sorted by date; negative unified amount kept as positive debit.
	if txs[0].Description != "NETFLIX.COM" || txs[0].Date.Format("2006-01-02") != "2024-01-15" {
		t.Errorf("first transaction = %+v", txs[0])
	}
	if txs[1].Description != "DUKE ENERGY" || txs[1].Amount.String() != "120.5" {
		t.Errorf("negative amount not normalized: %+v", txs[1])
	}

	found := false
	for _, w := range warnings {
		if strings.Contains(w, "Skipped 2 rows") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected skipped-rows warning, got %v", warnings)
	}
}

func TestParseCSVDebitCredit(t *testing.T) {
	input := strings.Join([]string{
		"Date,Description,Debit,Credit",
		"2024-01-15,SPOTIFY,9.99,",
		"2024-01-20,PAYCHECK,,2500.00",
		"2024-02-15,SPOTIFY,9.99,",
	}, "\n")

	txs, warnings, err := ParseCSV([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Credit rows are dropped silently, not counted as defects.
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	for _, w := range warnings {
		if strings.Contains(w, "Skipped") {
			t.Errorf("credit row should not count as skipped: %v", warnings)
		}
	}
	for _, tx := range txs {
		if tx.Description != "SPOTIFY" {
			t.Errorf("unexpected transaction: %+v", tx)
		}
		if !tx.Amount.IsPositive() {
			t.Errorf("amount must be positive magnitude: %+v", tx)
		}
	}
}

func TestParseCSVSemicolonDelimiter(t *testing.T) {
	input := strings.Join([]string{
		"Date;Description;Amount",
		"2024-01-15;GYM MEMBERSHIP;45,00",
		"2024-02-15;GYM MEMBERSHIP;45,00",
	}, "\n")

	txs, _, err := ParseCSV([]byte(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	if txs[0].Amount.String() != "45" {
		t.Errorf("comma decimal not parsed: %s", txs[0].Amount)
	}
}

func TestParseCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ErrorKind
	}{
		{
			name:  "no data rows",
			input: "Date,Description,Amount",
			kind:  NoTransactionsFound,
		},
		{
			name:  "missing date column",
			input: "Foo,Description,Amount\nx,y,1.00",
			kind:  MissingRequiredColumn,
		},
		{
			name:  "missing description column",
			input: "Date,Foo,Amount\n2024-01-15,y,1.00",
			kind:  MissingRequiredColumn,
		},
		{
			name:  "missing amount column",
			input: "Date,Description,Foo\n2024-01-15,y,z",
			kind:  MissingRequiredColumn,
		},
		{
			name:  "all rows invalid",
			input: "Date,Description,Amount\nbad,x,1.00\nworse,y,2.00",
			kind:  NoTransactionsFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseCSV([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			pe, ok := AsParseError(err)
			if !ok {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Kind != tt.kind {
				t.Errorf("got kind %s, want %s", pe.Kind, tt.kind)
			}
		})
	}
}
