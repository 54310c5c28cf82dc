package analyzer

import (
	"regexp"
	"strings"

	"github.com/paytrack/statement-analyzer/internal/models"
)

var (
	trailingIDRe   = regexp.MustCompile(`\s*#?\d{4,}$`)
	embeddedDateRe = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	multiSpaceRe   = regexp.MustCompile(`\s+`)
)

// NormalizeKey reduces a description to a grouping key: lowercased, with
// trailing reference numbers and embedded dates removed. Two descriptions
// with the same key are occurrences of the same payment.
func NormalizeKey(desc string) string {
	key := strings.ToLower(strings.TrimSpace(desc))
	key = trailingIDRe.ReplaceAllString(key, "")
	key = embeddedDateRe.ReplaceAllString(key, "")
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(key, " "))
}

// GroupTransactions buckets transactions by normalized description. Groups
// come back in first-seen order; transactions whose key normalizes to the
// empty string are dropped.
func GroupTransactions(txs []models.RawTransaction) []models.TransactionGroup {
	index := make(map[string]int)
	var groups []models.TransactionGroup

	for _, tx := range txs {
		key := NormalizeKey(tx.Description)
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			groups[i].Transactions = append(groups[i].Transactions, tx)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, models.TransactionGroup{
			Key:          key,
			Transactions: []models.RawTransaction{tx},
		})
	}
	return groups
}

// groupByKey builds a lookup from normalized key to group for re-linking AI
// results back to source transactions.
func groupByKey(groups []models.TransactionGroup) map[string]*models.TransactionGroup {
	m := make(map[string]*models.TransactionGroup, len(groups))
	for i := range groups {
		m[groups[i].Key] = &groups[i]
	}
	return m
}
