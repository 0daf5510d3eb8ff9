package locale

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// currencyNoise matches currency symbols and whitespace to strip before parsing
	currencyNoise = regexp.MustCompile(`(?i)r\$|us\$|€|£|\$|\s`)

	// groupedAmount matches the Brazilian grouped format: 1.234.567,89
	groupedAmount = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d{1,2})?$`)

	oneHundred = decimal.NewFromInt(100)
)

// ParseAmountCents parses a locale-formatted currency string to integer
// minor units with the sign of the original value.
//
// Accepts both "1.112,00" (grouped, decimal comma) and "1112.00" or
// "1112,00" (plain decimal, either separator). A value that fails to parse
// yields zero: malformed amounts are common in low-quality exports and the
// callers have no per-field validation step, so this stage degrades rather
// than failing.
func ParseAmountCents(s string) int64 {
	cleaned := currencyNoise.ReplaceAllString(strings.TrimSpace(s), "")
	if cleaned == "" {
		return 0
	}

	negative := false
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = cleaned[1:]
	}

	if groupedAmount.MatchString(cleaned) {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else {
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0
	}

	cents := value.Mul(oneHundred).Round(0).IntPart()
	if negative {
		cents = -cents
	}
	return cents
}
