// Package analyzer turns a transaction stream into recurring payment
// candidates. The AI path runs first; keyword rules back it up whenever the
// model is unreachable or returns nothing usable.
package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/paytrack/statement-analyzer/internal/ai"
	"github.com/paytrack/statement-analyzer/internal/models"
)

// Analyzer identifies recurring payments in a transaction stream.
type Analyzer struct {
	AI  ai.Caller
	Log zerolog.Logger
}

// New builds an analyzer. caller may be nil to force the rule-based path.
func New(caller ai.Caller, log zerolog.Logger) *Analyzer {
	return &Analyzer{AI: caller, Log: log}
}

// Analyze produces recurring payment candidates. usedFallback reports
// whether the rule-based path produced the result; usage carries token stats
// when the model was actually consulted.
func (a *Analyzer) Analyze(ctx context.Context, txs []models.RawTransaction, currency string) ([]models.RecurringCandidate, bool, *ai.Usage, error) {
	if len(txs) == 0 {
		return nil, false, nil, nil
	}

	groups := GroupTransactions(txs)

	if a.AI == nil {
		return AnalyzeWithRules(txs, currency), true, nil, nil
	}

	candidates, usage, err := analyzeWithLLM(ctx, a.AI, txs)
	if err != nil {
		a.Log.Warn().Err(err).Msg("ai analysis failed, falling back to rules")
		return AnalyzeWithRules(txs, currency), true, usage, nil
	}
	if len(candidates) == 0 {
		a.Log.Warn().Msg("ai analysis returned no candidates, falling back to rules")
		return AnalyzeWithRules(txs, currency), true, usage, nil
	}

	return a.linkCandidates(candidates, groups, txs, currency), false, usage, nil
}

// linkCandidates attaches each model candidate back to its source
// transaction groups so occurrence counts and date ranges come from real
// data rather than from the model.
func (a *Analyzer) linkCandidates(
	candidates []llmCandidate,
	groups []models.TransactionGroup,
	txs []models.RawTransaction,
	currency string,
) []models.RecurringCandidate {
	byKey := groupByKey(groups)
	results := make([]models.RecurringCandidate, 0, len(candidates))

	for _, cand := range candidates {
		var matched []models.RawTransaction

		for _, desc := range cand.OriginalDescriptions {
			if g, ok := byKey[NormalizeKey(desc)]; ok {
				matched = append(matched, g.Transactions...)
			}
		}
		if len(matched) == 0 {
			matched = fuzzyMatch(cand.OriginalDescriptions, groups)
		}
		if len(matched) == 0 {
			// No group matched; pin the candidate to the first transaction
			// so the date range stays inside the statement period.
			matched = txs[:1]
		}

		dates := make([]time.Time, len(matched))
		for i, tx := range matched {
			dates[i] = tx.Date
		}

		results = append(results, models.RecurringCandidate{
			ID:                   uuid.NewString()[:8],
			OriginalDescriptions: cand.OriginalDescriptions,
			SuggestedName:        cand.SuggestedName,
			Category:             cand.Category,
			Recurrence:           cand.Recurrence,
			DayOfMonth:           cand.DayOfMonth,
			DayOfWeek:            cand.DayOfWeek,
			AverageAmount:        cand.AverageAmount,
			Currency:             currency,
			Confidence:           cand.Confidence,
			OccurrenceCount:      len(matched),
			DateRange:            dateRangeOf(dates),
		})
	}
	return results
}

// fuzzyMatch links descriptions to groups by substring containment in
// either direction on normalized keys.
func fuzzyMatch(descriptions []string, groups []models.TransactionGroup) []models.RawTransaction {
	var matched []models.RawTransaction
	for _, group := range groups {
		for _, desc := range descriptions {
			key := NormalizeKey(desc)
			if key == "" {
				continue
			}
			if strings.Contains(group.Key, key) || strings.Contains(key, group.Key) {
				matched = append(matched, group.Transactions...)
				break
			}
		}
	}
	return matched
}
