package analyzer

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/paytrack/statement-analyzer/internal/models"
)

// categoryRule binds a category to its keyword patterns. Rules are checked
// in order; the first category with a matching pattern wins.
type categoryRule struct {
	category models.Category
	patterns []*regexp.Regexp
}

var categoryRules = []categoryRule{
	{models.CategoryLoan, compileAll(
		`loan`, `mortgage`, `emi`, `finance`, `lending`, `credit.*payment`,
		`car.*payment`, `auto.*loan`, `home.*loan`, `personal.*loan`,
	)},
	{models.CategorySubscription, compileAll(
		`netflix`, `spotify`, `hulu`, `disney`, `hbo`, `amazon.*prime`,
		`apple.*music`, `youtube.*premium`, `gym`, `fitness`, `membership`,
		`subscription`, `adobe`, `microsoft.*365`, `dropbox`, `icloud`,
	)},
	{models.CategoryInvestment, compileAll(
		`sip`, `mutual.*fund`, `invest`, `401k`, `etrade`, `fidelity`,
		`vanguard`, `schwab`, `robinhood`, `zerodha`, `groww`,
	)},
	{models.CategoryInsurance, compileAll(
		`insurance`, `geico`, `state.*farm`, `allstate`, `progressive`,
		`liberty.*mutual`, `lic`, `policy.*premium`, `health.*plan`,
	)},
	{models.CategoryUtility, compileAll(
		`electric`, `water`, `gas`, `internet`, `comcast`, `verizon`,
		`at&t`, `at.t`, `t-mobile`, `tmobile`, `spectrum`, `xfinity`,
		`utility`, `power`, `energy`, `broadband`, `wifi`, `phone.*bill`,
	)},
}

// excludePatterns mark descriptions that are never bills: cash movement,
// everyday spending, peer transfers. Checked before any category rule.
var excludePatterns = compileAll(
	`atm`, `withdrawal`, `transfer`, `payment.*received`, `deposit`,
	`grocery`, `groceries`, `supermarket`, `walmart`, `target`,
	`restaurant`, `cafe`, `coffee`, `starbucks`, `mcdonald`,
	`gas.*station`, `fuel`, `petrol`, `uber`, `lyft`, `taxi`,
	`ebay`, `paypal.*transfer`, `venmo`, `zelle`,
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// CategorizeByKeywords assigns a category from keyword rules. The second
// return is false when the description matches an exclusion pattern and the
// group should be dropped entirely.
func CategorizeByKeywords(description string) (models.Category, bool) {
	lower := strings.ToLower(description)

	for _, p := range excludePatterns {
		if p.MatchString(lower) {
			return "", false
		}
	}
	// Amazon retail is excluded, but Amazon Prime is a subscription.
	if strings.Contains(lower, "amazon") && !strings.Contains(lower, "prime") {
		return "", false
	}
	for _, rule := range categoryRules {
		for _, p := range rule.patterns {
			if p.MatchString(lower) {
				return rule.category, true
			}
		}
	}
	return models.CategoryOther, true
}

var (
	channelPrefixRe = regexp.MustCompile(`(?i)^(pos|ach|wire|check|card|debit|credit)\s+`)
	refTailRe       = regexp.MustCompile(`\s*#?\d{6,}.*$`)
	refWordRe       = regexp.MustCompile(`(?i)\s+ref.*$`)
)

// CleanMerchantName turns a raw description into a display name: payment
// channel prefixes, reference numbers, and dates stripped, then title-cased.
// An empty result falls back to the raw description.
func CleanMerchantName(desc string) string {
	name := strings.TrimSpace(desc)
	name = channelPrefixRe.ReplaceAllString(name, "")
	name = refTailRe.ReplaceAllString(name, "")
	name = refWordRe.ReplaceAllString(name, "")
	name = embeddedDateRe.ReplaceAllString(name, "")
	name = strings.TrimSpace(multiSpaceRe.ReplaceAllString(name, " "))

	if name == "" {
		if len(desc) > 100 {
			return desc[:100]
		}
		return desc
	}
	name = cases.Title(language.English).String(strings.ToLower(name))
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

// AnalyzeWithRules produces candidates from keyword rules alone. It is the
// fallback when the AI path is unavailable and the reference the AI path is
// judged against. OTHER-category groups need at least two occurrences.
func AnalyzeWithRules(txs []models.RawTransaction, currency string) []models.RecurringCandidate {
	groups := GroupTransactions(txs)
	var results []models.RecurringCandidate

	for _, group := range groups {
		sample := group.Transactions[0].Description

		category, keep := CategorizeByKeywords(sample)
		if !keep {
			continue
		}
		if category == models.CategoryOther && len(group.Transactions) < 2 {
			continue
		}

		dates := group.Dates()
		recurrence, dayOfMonth, dayOfWeek := InferRecurrence(dates)

		total := decimal.Zero
		for _, tx := range group.Transactions {
			total = total.Add(tx.Amount)
		}
		avg := total.Div(decimal.NewFromInt(int64(len(group.Transactions)))).Round(2)

		confidence := 0.5 + float64(len(group.Transactions))*0.1
		if confidence > 0.9 {
			confidence = 0.9
		}

		results = append(results, models.RecurringCandidate{
			ID:                   uuid.NewString()[:8],
			OriginalDescriptions: uniqueDescriptions(group.Transactions),
			SuggestedName:        CleanMerchantName(sample),
			Category:             category,
			Recurrence:           recurrence,
			DayOfMonth:           dayOfMonth,
			DayOfWeek:            dayOfWeek,
			AverageAmount:        avg,
			Currency:             currency,
			Confidence:           confidence,
			OccurrenceCount:      len(group.Transactions),
			DateRange:            dateRangeOf(dates),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

func uniqueDescriptions(txs []models.RawTransaction) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tx := range txs {
		if !seen[tx.OriginalDescription] {
			seen[tx.OriginalDescription] = true
			out = append(out, tx.OriginalDescription)
		}
	}
	return out
}

func dateRangeOf(dates []time.Time) models.DateRange {
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	return models.DateRange{First: sorted[0], Last: sorted[len(sorted)-1]}
}
