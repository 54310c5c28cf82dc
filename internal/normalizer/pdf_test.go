package normalizer

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/paytrack/statement-analyzer/internal/ai"
	"github.com/paytrack/statement-analyzer/internal/models"
)

// fakeCaller scripts the AI response for tests and counts invocations.
type fakeCaller struct {
	response string
	usage    *ai.Usage
	err      error
	calls    int
}

func (f *fakeCaller) Generate(ctx context.Context, prompt string) (string, *ai.Usage, error) {
	f.calls++
	return f.response, f.usage, f.err
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"DUKEENERGY DES:BILLPAY ID:12345 INDN:JOHN DOE", "DUKEENERGY"},
		{"NETFLIX.COM WEB 1234567890123", "NETFLIX.COM"},
		{"STATE FARM INSURANCE PMT INFO: POLICY 443", "STATE FARM INSURANCE"},
		{"VERIZON Conf# ABC123", "VERIZON"},
		{"  SPOTIFY   PREMIUM  ", "SPOTIFY PREMIUM"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := CleanDescription(tt.input)
			if got != tt.expected {
				t.Errorf("CleanDescription(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractFromLines(t *testing.T) {
	text := strings.Join([]string{
		"Account Summary",
		"Deposits and other additions",
		"01/05/24 PAYROLL COMPANY 2,500.00",
		"Withdrawals and other subtractions",
		"01/15/24 NETFLIX.COM 15.99",
		"01/20/24 DUKE ENERGY DES:BILLPAY",
		"120.50",
		"Total service fees",
		"02/15/24 OUTSIDE SECTION -9.99",
	}, "\n")

	txs := extractFromLines(text)
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3: %+v", len(txs), txs)
	}

	// Deposit section entry must be excluded.
	for _, tx := range txs {
		if strings.Contains(tx.Description, "Payroll") || strings.Contains(tx.Description, "PAYROLL") {
			t.Errorf("deposit leaked into results: %+v", tx)
		}
	}

	// Amount on the following line is picked up.
	if txs[1].Description != "DUKE ENERGY" || txs[1].Amount.String() != "120.5" {
		t.Errorf("continuation amount not parsed: %+v", txs[1])
	}

	// Negative amounts outside a withdrawals section still count as debits.
	if txs[2].Amount.String() != "9.99" {
		t.Errorf("negative amount not treated as debit: %+v", txs[2])
	}
}

func TestExtractFromLinesDescriptionWrap(t *testing.T) {
	text := strings.Join([]string{
		"Withdrawals and other subtractions",
		"01/15/24 STATE FARM",
		"INSURANCE PREMIUM 155.00",
	}, "\n")

	txs := extractFromLines(text)
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if txs[0].Description != "STATE FARM INSURANCE PREMIUM" {
		t.Errorf("wrapped description = %q", txs[0].Description)
	}
	if txs[0].Amount.String() != "155" {
		t.Errorf("amount = %s, want 155", txs[0].Amount)
	}
}

func TestExtractFromTables(t *testing.T) {
	rows := [][]string{
		{"Date", "Description", "Amount"},
		{"01/15/2024", "NETFLIX.COM", "-15.99"},
		{"01/20/2024", "PAYCHECK", "2500.00"},
		{"not a date", "JUNK", "-1.00"},
		{"02/15/2024", "NETFLIX.COM", "-15.99"},
	}

	txs := extractFromTables(rows)
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2: %+v", len(txs), txs)
	}
	for _, tx := range txs {
		if tx.Description != "NETFLIX.COM" {
			t.Errorf("unexpected transaction: %+v", tx)
		}
		if !tx.Amount.IsPositive() {
			t.Errorf("amount must be positive magnitude: %+v", tx)
		}
	}
}

func TestExtractWithAI(t *testing.T) {
	longText := strings.Repeat("statement line with some content\n", 10)

	t.Run("valid response", func(t *testing.T) {
		caller := &fakeCaller{response: `[
			{"date": "2024-01-15", "description": "Netflix", "amount": 15.99},
			{"date": "bad", "description": "Dropped", "amount": 1},
			{"date": "2024-01-20", "description": "", "amount": 1},
			{"date": "2024-01-25", "description": "Zero", "amount": 0}
		]`}
		p := NewPDFParser(caller, 15000, zerolog.Nop())

		txs, _, err := p.extractWithAI(context.Background(), longText)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(txs) != 1 {
			t.Fatalf("got %d transactions, want 1: %+v", len(txs), txs)
		}
		if txs[0].Description != "Netflix" {
			t.Errorf("transaction = %+v", txs[0])
		}
	})

	t.Run("service unavailable is not fatal", func(t *testing.T) {
		caller := &fakeCaller{err: ai.ErrUnavailable}
		p := NewPDFParser(caller, 15000, zerolog.Nop())

		txs, warnings, err := p.extractWithAI(context.Background(), longText)
		if err != nil {
			t.Fatalf("availability failure must not be fatal: %v", err)
		}
		if len(txs) != 0 {
			t.Fatalf("got %d transactions, want 0", len(txs))
		}
		found := false
		for _, w := range warnings {
			if strings.Contains(w, "extraction failed") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected failure warning, got %v", warnings)
		}
	})

	t.Run("truncates long text", func(t *testing.T) {
		caller := &fakeCaller{response: "[]"}
		p := NewPDFParser(caller, 200, zerolog.Nop())

		_, warnings, err := p.extractWithAI(context.Background(), longText)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		found := false
		for _, w := range warnings {
			if strings.Contains(w, "truncated") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected truncation warning, got %v", warnings)
		}
	})

	t.Run("nil caller skips stage", func(t *testing.T) {
		p := NewPDFParser(nil, 15000, zerolog.Nop())
		txs, warnings, err := p.extractWithAI(context.Background(), longText)
		if err != nil || len(txs) != 0 {
			t.Fatalf("txs=%v err=%v", txs, err)
		}
		found := false
		for _, w := range warnings {
			if strings.Contains(w, "no AI client") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected skip warning, got %v", warnings)
		}
	})
}

func TestRunStagesShortCircuit(t *testing.T) {
	p := NewPDFParser(nil, 15000, zerolog.Nop())

	producing := 0
	neverRun := 0
	stages := []extractionStage{
		{
			name: "empty stage",
			run: func(context.Context) ([]models.RawTransaction, []string, error) {
				return nil, []string{"nothing here"}, nil
			},
		},
		{
			name: "producing stage",
			run: func(context.Context) ([]models.RawTransaction, []string, error) {
				producing++
				return []models.RawTransaction{{Description: "X"}}, nil, nil
			},
		},
		{
			name: "later stage",
			run: func(context.Context) ([]models.RawTransaction, []string, error) {
				neverRun++
				return nil, nil, nil
			},
		},
	}

	txs, warnings, err := p.runStages(context.Background(), stages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if producing != 1 || neverRun != 0 {
		t.Errorf("stage calls: producing=%d later=%d, want 1 and 0", producing, neverRun)
	}

	// Warnings from earlier stages carry through along with the success note.
	joined := strings.Join(warnings, "|")
	if !strings.Contains(joined, "nothing here") || !strings.Contains(joined, "producing stage") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestRunStagesFatalError(t *testing.T) {
	p := NewPDFParser(nil, 15000, zerolog.Nop())

	after := 0
	stages := []extractionStage{
		{
			name: "fatal stage",
			run: func(context.Context) ([]models.RawTransaction, []string, error) {
				return nil, nil, newParseError(NoExtractableText, "boom")
			},
		},
		{
			name: "after",
			run: func(context.Context) ([]models.RawTransaction, []string, error) {
				after++
				return nil, nil, nil
			},
		},
	}

	_, _, err := p.runStages(context.Background(), stages)
	pe, ok := AsParseError(err)
	if !ok || pe.Kind != NoExtractableText {
		t.Fatalf("got %v, want NoExtractableText", err)
	}
	if after != 0 {
		t.Errorf("fatal error must short-circuit, later stage ran %d times", after)
	}
}

func TestRunStagesAllEmpty(t *testing.T) {
	p := NewPDFParser(nil, 15000, zerolog.Nop())

	stages := []extractionStage{
		{name: "a", run: func(context.Context) ([]models.RawTransaction, []string, error) {
			return nil, nil, nil
		}},
		{name: "b", run: func(context.Context) ([]models.RawTransaction, []string, error) {
			return nil, nil, nil
		}},
	}

	_, _, err := p.runStages(context.Background(), stages)
	pe, ok := AsParseError(err)
	if !ok || pe.Kind != NoTransactionsFound {
		t.Fatalf("got %v, want NoTransactionsFound", err)
	}
}

func TestParsePDFEmptyFile(t *testing.T) {
	p := NewPDFParser(nil, 15000, zerolog.Nop())
	_, _, err := p.Parse(context.Background(), nil)
	pe, ok := AsParseError(err)
	if !ok || pe.Kind != EmptyFile {
		t.Fatalf("got %v, want EmptyFile parse error", err)
	}
}
