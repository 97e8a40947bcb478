package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Token validation for amounts and dates. Both parsers are deliberately
// strict: a statement page is full of digit runs (street numbers, unit
// numbers, reference codes) that must never be mistaken for money or dates.

var (
	datePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	// bareAmount matches amounts that lost their $ in extraction but kept
	// the two decimal places.
	bareAmount = regexp.MustCompile(`^-?\d+\.\d{2}$`)
)

const dateLayout = "01/02/2006"

// ParseDate validates a strict MM/DD/YYYY token and returns it unchanged.
// No locale inference, no alternative layouts.
func ParseDate(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if !datePattern.MatchString(token) {
		return "", false
	}
	if _, err := time.Parse(dateLayout, token); err != nil {
		return "", false
	}
	return token, true
}

// ParseAmount converts a monetary token to a decimal. Accepted forms:
// "$42.13", "1,234.56", "-15.00", "($15.00)" (parenthesized = negative).
// A token with digits but no decimal point and no parentheses is rejected;
// that is how street and unit numbers sneak into transaction rows.
func ParseAmount(token string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(token)
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "$", "")

	if !strings.Contains(s, ".") {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if neg && d.IsPositive() {
		d = d.Neg()
	}
	return d, true
}

// IsProbableAmount reports whether a token looks like money: it carries a
// currency marker or parentheses and parses, or it is a bare number with
// exactly two decimal places.
func IsProbableAmount(token string) bool {
	t := strings.TrimSpace(token)
	if t == "" {
		return false
	}
	if strings.Contains(t, "$") || strings.HasPrefix(t, "(") {
		_, ok := ParseAmount(t)
		return ok
	}
	return bareAmount.MatchString(strings.ReplaceAll(t, ",", ""))
}

// FormatAmount renders an amount with two fraction digits, the shape the
// CSV contract requires.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// cleanText normalizes tabs, newlines, and repeated whitespace to single
// spaces.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
