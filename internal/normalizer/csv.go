package normalizer

import (
	"encoding/csv"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/saintfish/chardet"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/paytrack/statement-analyzer/internal/models"
)

// Column header patterns for role auto-detection. A header is assigned the
// first role whose pattern list matches; each role binds at most one column.
var (
	datePatterns = compilePatterns(
		`^date$`, `^trans.*date$`, `^posted.*date$`, `^posting.*date$`,
		`^transaction.*date$`, `^value.*date$`, `^effective.*date$`,
	)
	descriptionPatterns = compilePatterns(
		`^description$`, `^memo$`, `^narrative$`, `^details$`,
		`^payee$`, `^merchant$`, `^name$`, `^particulars$`,
		`^transaction.*description$`, `^payment.*details$`,
	)
	amountPatterns = compilePatterns(
		`^amount$`, `^value$`, `^transaction.*amount$`, `^sum$`,
	)
	debitPatterns = compilePatterns(
		`^debit$`, `^withdrawal$`, `^dr$`, `^debit.*amount$`, `^out$`,
	)
	creditPatterns = compilePatterns(
		`^credit$`, `^deposit$`, `^cr$`, `^credit.*amount$`, `^in$`,
	)
)

func compilePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

func matchColumn(header string, patterns []*regexp.Regexp) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, p := range patterns {
		if p.MatchString(h) {
			return true
		}
	}
	return false
}

// columnMap holds detected column indices; -1 means not found.
type columnMap struct {
	date        int
	description int
	amount      int
	debit       int
	credit      int
}

// detectColumns assigns each header to at most one role, checking roles in a
// fixed order so a header like "Amount" never binds as description.
func detectColumns(headers []string) columnMap {
	cols := columnMap{date: -1, description: -1, amount: -1, debit: -1, credit: -1}
	for idx, header := range headers {
		switch {
		case cols.date == -1 && matchColumn(header, datePatterns):
			cols.date = idx
		case cols.description == -1 && matchColumn(header, descriptionPatterns):
			cols.description = idx
		case cols.amount == -1 && matchColumn(header, amountPatterns):
			cols.amount = idx
		case cols.debit == -1 && matchColumn(header, debitPatterns):
			cols.debit = idx
		case cols.credit == -1 && matchColumn(header, creditPatterns):
			cols.credit = idx
		}
	}
	return cols
}

func (c columnMap) maxIndex() int {
	max := -1
	for _, idx := range []int{c.date, c.description, c.amount, c.debit, c.credit} {
		if idx > max {
			max = idx
		}
	}
	return max
}

// decodeContent converts CSV bytes to a UTF-8 string using charset detection.
// Detection or decode failure falls back to UTF-8 with replacement runes and
// a warning rather than aborting the run.
func decodeContent(content []byte) (string, []string) {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(content)
	if err == nil && result != nil {
		enc, encErr := htmlindex.Get(strings.ToLower(result.Charset))
		if encErr == nil {
			decoded, decErr := enc.NewDecoder().Bytes(content)
			if decErr == nil {
				return string(decoded), nil
			}
		}
	}
	return strings.ToValidUTF8(string(content), "�"),
		[]string{"Encoding detection failed, used UTF-8 with replacements"}
}

// sniffDelimiter inspects a sample of the text and picks the most frequent
// candidate delimiter, defaulting to comma.
func sniffDelimiter(text string) rune {
	sample := text
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	best := ','
	bestCount := strings.Count(sample, ",")
	for _, cand := range []rune{';', '\t', '|'} {
		if n := strings.Count(sample, string(cand)); n > bestCount {
			best = cand
			bestCount = n
		}
	}
	return best
}

// ParseCSV extracts transactions from CSV bytes. Rows with missing or
// invalid data are skipped and counted; the whole file fails only when
// required columns are absent or no row survives.
func ParseCSV(content []byte) ([]models.RawTransaction, []string, error) {
	var warnings []string

	text, encWarnings := decodeContent(content)
	warnings = append(warnings, encWarnings...)

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, newParseError(UnsupportedFormat, "Failed to parse CSV: %v", err)
	}

	if len(rows) < 2 {
		return nil, nil, newParseError(NoTransactionsFound, "CSV file contains no data rows")
	}

	cols := detectColumns(rows[0])
	if cols.date == -1 {
		return nil, nil, newParseError(MissingRequiredColumn,
			"Could not detect date column. Expected headers like: Date, Transaction Date, Posted Date")
	}
	if cols.description == -1 {
		return nil, nil, newParseError(MissingRequiredColumn,
			"Could not detect description column. Expected headers like: Description, Memo, Payee")
	}
	hasAmount := cols.amount != -1
	hasDebitCredit := cols.debit != -1 || cols.credit != -1
	if !hasAmount && !hasDebitCredit {
		return nil, nil, newParseError(MissingRequiredColumn,
			"Could not detect amount column. Expected headers like: Amount, Debit, Credit")
	}

	maxIdx := cols.maxIndex()
	var transactions []models.RawTransaction
	skipped := 0

	for _, row := range rows[1:] {
		if len(row) <= maxIdx {
			skipped++
			continue
		}

		date, ok := ParseDate(row[cols.date])
		if !ok {
			skipped++
			continue
		}

		description := strings.TrimSpace(row[cols.description])
		if description == "" {
			skipped++
			continue
		}
		if len(description) > 100 {
			description = description[:100]
		}

		amount, amountOK := parseRowAmount(row, cols, hasAmount)
		if !amountOK {
			// Credit-only rows are incoming money, not bills; dropped
			// silently rather than counted as defects.
			if hasDebitCredit && isCreditRow(row, cols) {
				continue
			}
			skipped++
			continue
		}

		transactions = append(transactions, models.RawTransaction{
			Date:                date,
			Description:         description,
			Amount:              amount,
			OriginalDescription: description,
		})
	}

	if skipped > 0 {
		warnings = append(warnings, fmt.Sprintf("Skipped %d rows due to missing or invalid data", skipped))
	}

	if len(transactions) == 0 {
		return nil, nil, newParseError(NoTransactionsFound, "No valid transactions found in CSV")
	}

	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.Before(transactions[j].Date)
	})

	return transactions, warnings, nil
}

// parseRowAmount resolves the outgoing amount of one row. A unified amount
// column takes precedence; negative values there are debits and kept as
// their absolute value. With separate columns, only the debit side counts.
func parseRowAmount(row []string, cols columnMap, hasAmount bool) (decimal.Decimal, bool) {
	if hasAmount {
		amount, ok := ParseAmount(row[cols.amount])
		if !ok {
			return decimal.Decimal{}, false
		}
		if amount.IsNegative() {
			amount = amount.Abs()
		}
		if !amount.IsPositive() {
			return decimal.Decimal{}, false
		}
		return amount, true
	}

	if cols.debit != -1 {
		if debit, ok := ParseAmount(row[cols.debit]); ok && !debit.IsZero() {
			return debit.Abs(), true
		}
	}
	return decimal.Decimal{}, false
}

// isCreditRow reports whether the row carries money in the credit column and
// nothing usable in the debit column.
func isCreditRow(row []string, cols columnMap) bool {
	if cols.credit == -1 {
		return false
	}
	credit, ok := ParseAmount(row[cols.credit])
	return ok && !credit.IsZero()
}
