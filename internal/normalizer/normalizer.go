// Package normalizer turns bank statement files into a uniform transaction
// stream. CSV and PDF inputs produce the same output shape; everything
// downstream is format-agnostic.
package normalizer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/paytrack/statement-analyzer/internal/ai"
	"github.com/paytrack/statement-analyzer/internal/models"
)

// Normalizer dispatches statement content to a format-specific parser.
type Normalizer struct {
	pdf *PDFParser
	log zerolog.Logger
}

// New builds a normalizer. caller may be nil to disable the AI extraction
// stage for PDFs.
func New(caller ai.Caller, maxPromptChars int, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		pdf: NewPDFParser(caller, maxPromptChars, log),
		log: log,
	}
}

// Normalize parses statement bytes based on the filename extension and
// returns date-sorted transactions plus non-fatal warnings.
func (n *Normalizer) Normalize(ctx context.Context, content []byte, filename string) ([]models.RawTransaction, []string, error) {
	if len(content) == 0 {
		return nil, nil, newParseError(EmptyFile, "File is empty")
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(content)
	case ".pdf":
		return n.pdf.Parse(ctx, content)
	default:
		return nil, nil, newParseError(UnsupportedFormat,
			"Unsupported file type %q. Only CSV and PDF files are supported.", filepath.Ext(filename))
	}
}
