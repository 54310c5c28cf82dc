package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/paytrack/statement-analyzer/internal/ai"
	"github.com/paytrack/statement-analyzer/internal/models"
)

const analysisPrompt = `You are a financial transaction analyzer. Analyze these bank transactions and identify recurring bills and subscriptions.

CATEGORIES (use exactly these values):
- LOAN: Mortgages, car payments, personal loans, EMI payments
- SUBSCRIPTION: Netflix, Spotify, gym memberships, software subscriptions
- INVESTMENT: SIP, mutual funds, stock purchases, 401k
- INSURANCE: Health, life, auto, home insurance premiums
- UTILITY: Electric, gas, water, internet, phone bills
- OTHER: Anything that doesn't fit above categories

RECURRENCE TYPES (use exactly these values):
- MONTHLY: Occurs once per month (most common for bills)
- WEEKLY: Occurs every week
- BIWEEKLY: Occurs every two weeks
- QUARTERLY: Occurs every 3 months
- ANNUAL: Occurs once per year
- ONETIME: Single occurrence, not recurring

TRANSACTIONS TO ANALYZE:
%s

For each unique merchant/payee that appears to be a recurring bill, provide:
1. original_descriptions: Array of matching transaction descriptions
2. suggested_name: Clean, human-readable name (e.g., "Netflix Subscription")
3. category: One of the categories above
4. recurrence: One of the recurrence types above
5. confidence: 0.0 to 1.0 based on how confident you are
6. day_of_month: If monthly/quarterly/annual, the typical day (1-31), null otherwise
7. day_of_week: If weekly/biweekly, the day (0=Monday, 6=Sunday), null otherwise
8. average_amount: Average amount across occurrences

Respond ONLY with valid JSON array. No explanations, just JSON.
Example format:
[
  {
    "original_descriptions": ["NETFLIX.COM", "NETFLIX MEMBERSHIP"],
    "suggested_name": "Netflix Subscription",
    "category": "SUBSCRIPTION",
    "recurrence": "MONTHLY",
    "confidence": 0.95,
    "day_of_month": 15,
    "day_of_week": null,
    "average_amount": 15.99
  }
]

Only include transactions that appear to be recurring bills (2+ occurrences or recognizable subscription/bill merchants).
Exclude: one-time purchases, groceries, restaurants, ATM withdrawals, and transfers.

JSON OUTPUT:`

// maxPromptTransactions caps how many transactions go into one prompt.
const maxPromptTransactions = 500

// llmCandidate is a validated, clamped item from the model's response.
type llmCandidate struct {
	OriginalDescriptions []string
	SuggestedName        string
	Category             models.Category
	Recurrence           models.Recurrence
	AverageAmount        decimal.Decimal
	Confidence           float64
	DayOfMonth           *int
	DayOfWeek            *int
}

// analyzeWithLLM sends transactions to the model and returns validated
// candidates. A reachable model that answers garbage yields zero candidates
// and no error; transport problems surface as an error.
func analyzeWithLLM(ctx context.Context, caller ai.Caller, txs []models.RawTransaction) ([]llmCandidate, *ai.Usage, error) {
	type promptTx struct {
		Date        string  `json:"date"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}

	limit := len(txs)
	if limit > maxPromptTransactions {
		limit = maxPromptTransactions
	}
	summary := make([]promptTx, 0, limit)
	for _, tx := range txs[:limit] {
		amount, _ := tx.Amount.Float64()
		summary = append(summary, promptTx{
			Date:        tx.Date.Format("2006-01-02"),
			Description: tx.Description,
			Amount:      amount,
		})
	}

	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal transactions: %w", err)
	}

	response, usage, err := caller.Generate(ctx, fmt.Sprintf(analysisPrompt, payload))
	if err != nil {
		return nil, usage, err
	}

	var validated []llmCandidate
	for _, item := range ai.ExtractJSONArray(response) {
		if cand, ok := validateLLMItem(item); ok {
			validated = append(validated, cand)
		}
	}
	return validated, usage, nil
}

// validateLLMItem normalizes one model-produced object. Unknown categories
// coerce to OTHER and unknown recurrences to MONTHLY; anchors are clamped
// to their valid ranges and only kept for cadences that use them.
func validateLLMItem(item map[string]any) (llmCandidate, bool) {
	name := ai.StringValue(item, "suggested_name")
	if name == "" {
		return llmCandidate{}, false
	}
	if len(name) > 100 {
		name = name[:100]
	}

	amount, ok := llmItemAmount(item)
	if !ok || !amount.IsPositive() {
		return llmCandidate{}, false
	}

	category := models.ParseCategory(ai.StringValue(item, "category"))
	recurrence := models.ParseRecurrence(ai.StringValue(item, "recurrence"))

	confidence := 0.5
	if f, ok := ai.NumberValue(item, "confidence"); ok {
		confidence = clampFloat(f, 0.0, 1.0)
	}

	var dayOfMonth, dayOfWeek *int
	if recurrence.HasDayOfMonth() {
		if f, ok := ai.NumberValue(item, "day_of_month"); ok {
			dayOfMonth = models.IntPtr(clampInt(int(f), 1, 31))
		}
	} else if recurrence.HasDayOfWeek() {
		if f, ok := ai.NumberValue(item, "day_of_week"); ok {
			dayOfWeek = models.IntPtr(clampInt(int(f), 0, 6))
		}
	}

	return llmCandidate{
		OriginalDescriptions: ai.StringSliceValue(item, "original_descriptions"),
		SuggestedName:        name,
		Category:             category,
		Recurrence:           recurrence,
		AverageAmount:        amount,
		Confidence:           confidence,
		DayOfMonth:           dayOfMonth,
		DayOfWeek:            dayOfWeek,
	}, true
}

func llmItemAmount(item map[string]any) (decimal.Decimal, bool) {
	if f, ok := ai.NumberValue(item, "average_amount"); ok {
		return decimal.NewFromFloat(f), true
	}
	if s := ai.StringValue(item, "average_amount"); s != "" {
		d, err := decimal.NewFromString(s)
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
