package normalizer

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/paytrack/statement-analyzer/internal/ai"
	"github.com/paytrack/statement-analyzer/internal/extractor"
	"github.com/paytrack/statement-analyzer/internal/models"
)

// Line-oriented statement patterns. Statements list transactions as a date,
// a description that may wrap onto following lines, and an amount at the end
// of a line or alone on its own line.
var (
	dateStartRe        = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4})\s+(.+)`)
	amountTailRe       = regexp.MustCompile(`(-?[\d,]+\.\d{2})\s*$`)
	standaloneAmountRe = regexp.MustCompile(`^(-?[\d,]+\.\d{2})\s*$`)

	descBankCodeRes = []*regexp.Regexp{
		regexp.MustCompile(`\s+DES:\w+`),
		regexp.MustCompile(`\s+ID:[\w\d]+`),
		regexp.MustCompile(`\s+INDN:[\w\s]+`),
		regexp.MustCompile(`\s+CO\s+ID:[\w\d]+`),
	}
	descChannelRe  = regexp.MustCompile(`\s+(WEB|PPD|CCD)(\s|$)`)
	descPmtInfoRe  = regexp.MustCompile(`\s+PMT\s+INFO:.*`)
	descConfRe     = regexp.MustCompile(`\s+Conf#\s*\w+`)
	descLongNumRe  = regexp.MustCompile(`\d{10,}`)
	descSpaceRe    = regexp.MustCompile(`\s+`)
)

const pdfExtractionPrompt = `You are a bank statement parser. Extract all WITHDRAWAL/DEBIT transactions from the following bank statement text.

For each withdrawal transaction, extract:
- date: The transaction date (format: YYYY-MM-DD)
- description: The merchant/payee name (simplified, e.g., "DUKEENERGY" becomes "Duke Energy", "T-MOBILE" becomes "T-Mobile")
- amount: The transaction amount as a POSITIVE number

IMPORTANT:
- Only extract WITHDRAWALS (money going out) - these typically have negative amounts or are listed under "Withdrawals"
- DO NOT include deposits or credits
- Simplify merchant names to be human-readable
- Return ONLY a valid JSON array, no explanations
- If you cannot find any transactions, return an empty array []

BANK STATEMENT TEXT:
%s

JSON OUTPUT (array of {date, description, amount}):`

// CleanDescription strips bank routing codes and long reference numbers from
// a raw statement description, capped at 100 chars.
func CleanDescription(desc string) string {
	for _, re := range descBankCodeRes {
		desc = re.ReplaceAllString(desc, " ")
	}
	desc = descChannelRe.ReplaceAllString(desc, " ")
	desc = descPmtInfoRe.ReplaceAllString(desc, "")
	desc = descConfRe.ReplaceAllString(desc, "")
	desc = descLongNumRe.ReplaceAllString(desc, "")
	desc = strings.TrimSpace(descSpaceRe.ReplaceAllString(desc, " "))
	if len(desc) > 100 {
		desc = desc[:100]
	}
	return desc
}

// PDFParser extracts transactions from PDF statements through an ordered
// pipeline of extraction stages. The first stage that produces transactions
// wins; later stages never run.
type PDFParser struct {
	AI             ai.Caller
	MaxPromptChars int
	Log            zerolog.Logger
}

// NewPDFParser builds a parser. AI may be nil, in which case the AI stage is
// skipped with a warning.
func NewPDFParser(caller ai.Caller, maxPromptChars int, log zerolog.Logger) *PDFParser {
	if maxPromptChars <= 0 {
		maxPromptChars = 15000
	}
	return &PDFParser{AI: caller, MaxPromptChars: maxPromptChars, Log: log}
}

// extractionStage is one attempt at pulling transactions out of a document.
// A non-nil error is fatal and aborts the whole pipeline.
type extractionStage struct {
	name string
	run  func(ctx context.Context) ([]models.RawTransaction, []string, error)
}

// Parse runs the extraction pipeline over PDF bytes.
func (p *PDFParser) Parse(ctx context.Context, content []byte) ([]models.RawTransaction, []string, error) {
	if len(content) == 0 {
		return nil, nil, newParseError(EmptyFile, "PDF file is empty")
	}

	doc, err := extractor.Open(content)
	if err != nil {
		switch err {
		case extractor.ErrEncrypted:
			return nil, nil, newParseError(EncryptedDocument,
				"PDF is encrypted. Please export an unencrypted version from your bank.")
		case extractor.ErrNoPages:
			return nil, nil, newParseError(NoExtractableText, "PDF contains no pages")
		default:
			return nil, nil, newParseError(UnsupportedFormat, "Failed to open PDF: %v", err)
		}
	}

	pages, err := doc.PageTexts()
	if err != nil {
		return nil, nil, newParseError(NoExtractableText, "Failed to extract text: %v", err)
	}
	fullText := strings.Join(pages, "\n")
	if len(strings.TrimSpace(fullText)) < extractor.MinTextLength {
		return nil, nil, newParseError(NoExtractableText,
			"Could not extract text from PDF. The file may be scanned or image-based. "+
				"Try exporting as CSV from your bank instead.")
	}

	stages := []extractionStage{
		{
			name: "text parsing",
			run: func(context.Context) ([]models.RawTransaction, []string, error) {
				return extractFromLines(fullText), nil, nil
			},
		},
		{
			name: "table extraction",
			run: func(context.Context) ([]models.RawTransaction, []string, error) {
				rows, rowErr := doc.TableRows()
				if rowErr != nil {
					return nil, []string{fmt.Sprintf("Table extraction failed: %v", rowErr)}, nil
				}
				return extractFromTables(rows), nil, nil
			},
		},
		{
			name: "AI extraction",
			run: func(stageCtx context.Context) ([]models.RawTransaction, []string, error) {
				return p.extractWithAI(stageCtx, fullText)
			},
		},
	}

	return p.runStages(ctx, stages)
}

// runStages executes extraction stages in order. The first stage producing
// transactions wins and later stages never run; fatal errors short-circuit.
func (p *PDFParser) runStages(ctx context.Context, stages []extractionStage) ([]models.RawTransaction, []string, error) {
	var warnings []string
	for _, stage := range stages {
		p.Log.Debug().Str("stage", stage.name).Msg("running pdf extraction stage")
		txs, stageWarnings, stageErr := stage.run(ctx)
		warnings = append(warnings, stageWarnings...)
		if stageErr != nil {
			return nil, nil, stageErr
		}
		if len(txs) > 0 {
			warnings = append(warnings,
				fmt.Sprintf("Extracted %d transactions using %s", len(txs), stage.name))
			sort.SliceStable(txs, func(i, j int) bool {
				return txs[i].Date.Before(txs[j].Date)
			})
			return txs, warnings, nil
		}
	}

	return nil, nil, newParseError(NoTransactionsFound,
		"No transactions found in PDF. Try exporting as CSV from your bank for better results.")
}

// extractFromLines walks statement text line by line, tracking which section
// the cursor is inside. Positive amounts count as debits only within a
// withdrawals section; negative amounts always do.
func extractFromLines(text string) []models.RawTransaction {
	var transactions []models.RawTransaction
	inWithdrawals := false

	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.Contains(lower, "withdrawal") && strings.Contains(lower, "subtraction"):
			inWithdrawals = true
			continue
		case strings.Contains(lower, "deposit") && strings.Contains(lower, "addition"):
			inWithdrawals = false
			continue
		case strings.Contains(lower, "service fee") || strings.Contains(lower, "total service"):
			inWithdrawals = false
		}

		dateMatch := dateStartRe.FindStringSubmatch(line)
		if dateMatch == nil {
			continue
		}
		dateStr := dateMatch[1]
		rest := dateMatch[2]

		var amountStr, description string
		if loc := amountTailRe.FindStringSubmatchIndex(rest); loc != nil {
			amountStr = rest[loc[2]:loc[3]]
			description = strings.TrimSpace(rest[:loc[0]])
		} else {
			// Amount is on a following line, or the description wraps.
			description = rest
			for j := i + 1; j < len(lines) && j < i+6; j++ {
				next := strings.TrimSpace(lines[j])
				if next == "" || dateStartRe.MatchString(next) {
					break
				}
				nextLower := strings.ToLower(next)
				if strings.Contains(nextLower, "total ") || strings.Contains(nextLower, "continued") ||
					strings.Contains(nextLower, "service fee") || strings.Contains(nextLower, "page ") {
					break
				}
				if m := standaloneAmountRe.FindStringSubmatch(next); m != nil {
					amountStr = m[1]
					break
				}
				if loc := amountTailRe.FindStringSubmatchIndex(next); loc != nil {
					amountStr = next[loc[2]:loc[3]]
					if prefix := strings.TrimSpace(next[:loc[0]]); prefix != "" {
						description += " " + prefix
					}
					break
				}
				description += " " + next
			}
		}

		date, ok := ParseDate(dateStr)
		if !ok || amountStr == "" {
			continue
		}
		amount, ok := ParseAmount(amountStr)
		if !ok || amount.IsZero() {
			continue
		}

		isDebit := amount.IsNegative() || inWithdrawals
		if !isDebit {
			continue
		}

		cleanDesc := CleanDescription(description)
		if cleanDesc == "" {
			continue
		}
		original := description
		if len(original) > 200 {
			original = original[:200]
		}
		transactions = append(transactions, models.RawTransaction{
			Date:                date,
			Description:         cleanDesc,
			Amount:              amount.Abs(),
			OriginalDescription: original,
		})
	}

	return transactions
}

// extractFromTables scans tabular rows for transaction shapes: a date in the
// first cell and a negative amount in the last. Only negative amounts are
// kept since tables do not carry section context.
func extractFromTables(rows [][]string) []models.RawTransaction {
	var transactions []models.RawTransaction
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		date, ok := ParseDate(row[0])
		if !ok {
			continue
		}
		desc := strings.TrimSpace(row[1])
		amount, ok := ParseAmount(row[len(row)-1])
		if !ok || !amount.IsNegative() {
			continue
		}
		transactions = append(transactions, models.RawTransaction{
			Date:                date,
			Description:         CleanDescription(desc),
			Amount:              amount.Abs(),
			OriginalDescription: desc,
		})
	}
	return transactions
}

// extractWithAI asks the model to pull withdrawals out of the raw statement
// text. AI failures are downgraded to warnings so the pipeline can report
// NoTransactionsFound instead of an opaque service error.
func (p *PDFParser) extractWithAI(ctx context.Context, text string) ([]models.RawTransaction, []string, error) {
	warnings := []string{"Using AI to extract transactions from PDF text"}

	if p.AI == nil {
		return nil, append(warnings, "AI extraction skipped: no AI client configured"), nil
	}
	if len(strings.TrimSpace(text)) < extractor.MinTextLength {
		return nil, append(warnings, "PDF text too short to contain transactions"), nil
	}
	if len(text) > p.MaxPromptChars {
		text = text[:p.MaxPromptChars]
		warnings = append(warnings, "PDF text was truncated due to length")
	}

	prompt := fmt.Sprintf(pdfExtractionPrompt, text)
	response, _, err := p.AI.Generate(ctx, prompt)
	if err != nil {
		p.Log.Warn().Err(err).Msg("ai pdf extraction failed")
		return nil, append(warnings, fmt.Sprintf("LLM extraction failed: %v", err)), nil
	}

	items := ai.ExtractJSONArray(response)
	var transactions []models.RawTransaction
	for _, item := range items {
		date, ok := ParseDate(ai.StringValue(item, "date"))
		if !ok {
			continue
		}
		description := ai.StringValue(item, "description")
		if description == "" {
			continue
		}
		if len(description) > 100 {
			description = description[:100]
		}
		amount, ok := parseItemAmount(item)
		if !ok || !amount.IsPositive() {
			continue
		}
		transactions = append(transactions, models.RawTransaction{
			Date:                date,
			Description:         description,
			Amount:              amount.Abs(),
			OriginalDescription: description,
		})
	}

	if len(transactions) == 0 {
		warnings = append(warnings, "LLM could not extract transactions from PDF text")
	}
	return transactions, warnings, nil
}

// parseItemAmount reads an amount the model may have emitted as either a
// JSON number or a formatted string.
func parseItemAmount(item map[string]any) (decimal.Decimal, bool) {
	if f, ok := ai.NumberValue(item, "amount"); ok {
		return decimal.NewFromFloat(f), true
	}
	return ParseAmount(ai.StringValue(item, "amount"))
}
