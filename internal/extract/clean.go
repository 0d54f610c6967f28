package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Corrupted font subsets in these invoices render glyphs as C0/C1 control
// characters or private-use-area codepoints. Both are stripped before any
// field-level matching.
var (
	reControlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\x9f]`)
	rePrivateUse   = regexp.MustCompile(`[\x{e000}-\x{f8ff}]`)
	reWhitespace   = regexp.MustCompile(`\s+`)

	rePrice    = regexp.MustCompile(`^\d+[\d,]*\.\d{2}$`)
	reUnitSize = regexp.MustCompile(`(\d+\.?\d*\s*[MG]+)`)
	reStrain   = regexp.MustCompile(`^([A-Z][A-Z\s'\-]+?)(?:\[|$)`)
)

// cleanText strips control characters and private-use glyphs and collapses
// internal whitespace runs to single spaces.
func cleanText(s string) string {
	s = reControlChars.ReplaceAllString(s, "")
	s = rePrivateUse.ReplaceAllString(s, "")
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// parsePrice parses a dollar amount like "$1,234.56" or "1234.56".
// Returns ok=false when the token is not a well-formed amount.
func parsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// parseInt parses a plain positive integer token.
func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// isPriceToken reports whether a cleaned token looks like a bare dollar
// amount (optionally $-prefixed).
func isPriceToken(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	return rePrice.MatchString(s)
}

// unitSize extracts a size token ("1G", "3.5G", "100MG") from a product
// name, scanning case-insensitively.
func unitSize(productName string) string {
	m := reUnitSize.FindStringSubmatch(strings.ToUpper(productName))
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(m[1], " ", "")
}

// strainName extracts the leading all-caps run of a product name up to
// the first bracket. Only meaningful for flower-adjacent products.
func strainName(productName string) string {
	m := reStrain.FindStringSubmatch(productName)
	if m == nil {
		return ""
	}
	s := strings.TrimSpace(m[1])
	// Single-word fragments shorter than 3 chars are noise, not strains.
	if len(s) < 3 {
		return ""
	}
	return s
}
