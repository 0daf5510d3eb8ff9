package csv

import (
	"strings"
)

// SplitLines normalizes line endings and returns the non-empty trimmed lines
func SplitLines(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// DetectDelimiter picks the field delimiter from the header line.
// Brazilian exports use semicolons; everything else defaults to comma.
func DetectDelimiter(headerLine string) rune {
	if strings.ContainsRune(headerLine, ';') {
		return ';'
	}
	return ','
}

// SplitFields splits one line into trimmed fields, honoring quoting.
//
// A field may be wrapped in single or double quotes; a doubled quote
// character inside a quoted field is an escaped literal quote; the
// delimiter is inert while inside quotes, which keeps amounts like
// "1.112,00" in one field. An unterminated quote swallows the rest of the
// line rather than failing; malformed quoting degrades, it never errors.
func SplitFields(line string, delimiter rune) []string {
	var fields []string
	var field strings.Builder
	var quote rune // 0 while outside a quoted region

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case quote != 0:
			if c == quote {
				if i+1 < len(runes) && runes[i+1] == quote {
					// doubled quote is an escaped literal
					field.WriteRune(c)
					i++
				} else {
					quote = 0
				}
			} else {
				field.WriteRune(c)
			}
		case c == '"' || c == '\'':
			quote = c
		case c == delimiter:
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteRune(c)
		}
	}
	fields = append(fields, strings.TrimSpace(field.String()))
	return fields
}
