package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/varo-monarch-converter/internal/extractor"
	"github.com/insightdelivered/varo-monarch-converter/internal/models"
	"github.com/insightdelivered/varo-monarch-converter/internal/section"
)

var accountNumberPattern = regexp.MustCompile(`(?i)account number[:#\s]*([0-9Xx*-]{4,})`)

// ExtractSummary scans the document for balance markers, independent of the
// transaction pipeline. The secured account's ending balance doubles as the
// Believe card's credit limit when no explicit credit-limit marker exists,
// since the vault balance is what secures the card.
func ExtractSummary(doc *extractor.Document, source string) models.StatementSummary {
	summary := models.StatementSummary{Source: source}

	cur := section.Unknown
	var lastEnding decimal.Decimal
	var haveLastEnding bool
	var securedEnding decimal.Decimal
	var haveSecuredEnding bool

	for _, page := range doc.Pages {
		for _, row := range page.Rows {
			line := cleanText(row.Joined())
			if line == "" {
				continue
			}
			if sec, ok := section.Match(line); ok {
				cur = sec
				continue
			}

			lower := strings.ToLower(line)
			if summary.AccountNumber == "" {
				if m := accountNumberPattern.FindStringSubmatch(line); m != nil {
					summary.AccountNumber = m[1]
				}
			}
			if strings.Contains(lower, "credit limit") {
				if amt, ok := lastAmountOnLine(line); ok && !summary.HasCreditLimit {
					summary.CreditLimit = amt
					summary.HasCreditLimit = true
				}
			}
			if strings.Contains(lower, "new balance") {
				if amt, ok := lastAmountOnLine(line); ok && !summary.HasNewBalance {
					summary.NewBalance = amt
					summary.HasNewBalance = true
				}
			}
			if strings.Contains(lower, "payment due") {
				if amt, ok := lastAmountOnLine(line); ok && !summary.HasPaymentDueAmount {
					summary.PaymentDueAmount = amt
					summary.HasPaymentDueAmount = true
				}
				if d, ok := lastDateOnLine(line); ok && summary.PaymentDueDate == "" {
					summary.PaymentDueDate = d
				}
			}
			if strings.Contains(lower, "ending balance") {
				if amt, ok := lastAmountOnLine(line); ok {
					lastEnding = amt
					haveLastEnding = true
					if cur == section.SecuredTransactions {
						securedEnding = amt
						haveSecuredEnding = true
					}
				}
			}
		}
	}

	switch {
	case haveSecuredEnding:
		summary.EndingBalance = securedEnding
		summary.HasEndingBalance = true
	case haveLastEnding:
		summary.EndingBalance = lastEnding
		summary.HasEndingBalance = true
	}

	if !summary.HasCreditLimit && haveSecuredEnding {
		summary.CreditLimit = securedEnding
		summary.HasCreditLimit = true
	}

	return summary
}

// lastAmountOnLine returns the rightmost money token on a line.
func lastAmountOnLine(line string) (decimal.Decimal, bool) {
	tokens := strings.Fields(line)
	for i := len(tokens) - 1; i >= 0; i-- {
		if IsProbableAmount(tokens[i]) {
			return ParseAmount(tokens[i])
		}
	}
	return decimal.Zero, false
}

// lastDateOnLine returns the rightmost date token on a line.
func lastDateOnLine(line string) (string, bool) {
	tokens := strings.Fields(line)
	for i := len(tokens) - 1; i >= 0; i-- {
		if d, ok := ParseDate(tokens[i]); ok {
			return d, true
		}
	}
	return "", false
}
