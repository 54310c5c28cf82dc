package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Failure modes surfaced to the normalizer, which maps them onto its own
// document-level error taxonomy.
var (
	ErrEncrypted = errors.New("pdf is encrypted")
	ErrNoPages   = errors.New("pdf has no pages")
)

// Document is an opened PDF held in memory.
type Document struct {
	reader *pdf.Reader
}

// Open parses PDF bytes. Encrypted documents are reported as ErrEncrypted so
// the caller can surface actionable guidance.
func Open(content []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	r, openErr := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if openErr != nil {
		msg := strings.ToLower(openErr.Error())
		if strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") {
			return nil, ErrEncrypted
		}
		return nil, fmt.Errorf("open pdf: %w", openErr)
	}

	if r.NumPage() == 0 {
		return nil, ErrNoPages
	}

	return &Document{reader: r}, nil
}

// NumPages returns the page count.
func (d *Document) NumPages() int {
	return d.reader.NumPage()
}

// PageTexts extracts the text of each page, trying multiple extraction
// methods and keeping the first that yields readable content.
func (d *Document) PageTexts() (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	numPages := d.reader.NumPage()

	// Method 1: row-based extraction (best layout preservation).
	pages = d.extractByRow(numPages)
	if IsReadableText(pages) {
		return pages, nil
	}

	// Method 2: raw content with coordinate-based row reconstruction.
	pages = d.extractByContent(numPages)
	if IsReadableText(pages) {
		return pages, nil
	}

	// Method 3: per-page plain text with font maps.
	pages = d.extractByPlainText(numPages)
	return pages, nil
}

// TableRows extracts tabular rows across all pages: each row is the ordered
// cell texts the library groups onto one line.
func (d *Document) TableRows() (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library crashed: %v", r)
		}
	}()

	for i := 1; i <= d.reader.NumPage(); i++ {
		page := d.reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageRows, rowErr := page.GetTextByRow()
		if rowErr != nil {
			continue
		}
		for _, row := range pageRows {
			var cells []string
			for _, word := range row.Content {
				s := strings.TrimSpace(word.S)
				if s != "" {
					cells = append(cells, s)
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
	}
	return rows, nil
}

func (d *Document) extractByRow(numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := d.reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByContent groups text pieces by Y coordinate to reconstruct rows,
// then sorts by X. PDF Y grows bottom-to-top.
func (d *Document) extractByContent(numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := d.reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		type textItem struct {
			x float64
			s string
		}
		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool {
				return items[a].x < items[b].x
			})

			var parts []string
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					// Large gap between items marks a column boundary.
					parts = append(parts, "  ")
				}
				parts = append(parts, item.s)
				prevX = item.x
			}
			line := strings.TrimSpace(strings.Join(parts, ""))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

func (d *Document) extractByPlainText(numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := d.reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		fontNames := page.Fonts()
		fonts := make(map[string]*pdf.Font)
		for _, name := range fontNames {
			f := page.Font(name)
			fonts[name] = &f
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

// MinTextLength is the minimum total extracted text below which a document
// is assumed to be image-only.
const MinTextLength = 50

// textQuality returns the ratio of basic ASCII readable characters to total
// characters. A strict ASCII check: unicode.IsLetter is too broad and passes
// the garbage produced by identity-encoded fonts.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(`.,-/:;()'"$%&@#!?+=*`, r) ||
				r == '£' || r == '€' {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// IsReadableText checks that pages contain enough text and that it is
// actually readable rather than binary garbage.
func IsReadableText(pages []string) bool {
	if TotalTextLen(pages) <= MinTextLength {
		return false
	}
	return textQuality(pages) > 0.6
}

// TotalTextLen sums the trimmed length of all pages.
func TotalTextLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
