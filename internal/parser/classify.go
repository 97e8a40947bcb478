package parser

import (
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/varo-monarch-converter/internal/models"
	"github.com/insightdelivered/varo-monarch-converter/internal/section"
)

// classify applies the section policy to each merged transaction, then lets
// description overrides replace the account and sign rule unconditionally.
// Transactions in an unknown section cannot be classified and are dropped;
// the extraction passes already counted the warning.
func classify(txs []models.LogicalTransaction, overrides *section.OverrideMatcher) []models.ClassifiedTransaction {
	out := make([]models.ClassifiedTransaction, 0, len(txs))
	for _, tx := range txs {
		policy, ok := section.PolicyFor(tx.Section)
		if !ok {
			continue
		}

		rule := policy.Sign
		account := policy.Account
		if ov, matched := overrides.Match(tx.Desc); matched {
			rule = ov.Sign
			account = ov.Account
		}

		category := ""
		if account == section.AccountSecured {
			category = section.CategoryTransfer
		}

		out = append(out, models.ClassifiedTransaction{
			Date:       tx.Date,
			Merchant:   tx.Desc,
			Category:   category,
			Account:    account,
			Amount:     applySign(rule, tx.Amount),
			SourceFile: tx.Source,
		})
	}
	return out
}

// applySign maps a source-signed amount through a sign rule. The rule always
// acts on the source sign, never on a previously adjusted value.
func applySign(rule section.SignRule, amount decimal.Decimal) decimal.Decimal {
	switch rule {
	case section.ForceNegative:
		return amount.Abs().Neg()
	case section.ForcePositive:
		return amount.Abs()
	default:
		return amount
	}
}
