package normalizer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var nonAmountChars = regexp.MustCompile(`[^\d.,\-]`)

// ParseAmount parses a money string into a decimal, tolerating currency
// symbols and both US and European digit grouping. When both separators are
// present, whichever appears later is the decimal point. A lone comma is a
// decimal point only when at most two digits follow it.
func ParseAmount(s string) (decimal.Decimal, bool) {
	cleaned := nonAmountChars.ReplaceAllString(strings.TrimSpace(s), "")
	if cleaned == "" || cleaned == "-" {
		return decimal.Decimal{}, false
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			// European style: 1.234,56
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			// US style: 1,234.56
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			cleaned = parts[0] + "." + parts[1]
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
