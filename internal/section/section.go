// Package section holds the fixed vocabulary of Varo Believe statement
// sections and the policy that maps each section to an account and a sign
// rule. The vocabulary is compile-time data; nothing here inspects PDFs.
package section

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Section is a labeled region of a statement grouping transactions of one
// kind. Rows that cannot be attributed to a heading are tagged Unknown and
// are excluded from classification.
type Section string

const (
	Purchases           Section = "Purchases"
	Fees                Section = "Fees"
	PaymentsAndCredits  Section = "Payments and Credits"
	SecuredTransactions Section = "Secured Account Transactions"
	Unknown             Section = "unknown"
)

// Order is the recognized headings in the order they appear on a statement.
var Order = []Section{Purchases, Fees, PaymentsAndCredits, SecuredTransactions}

// SignRule says how a section's amounts map to signed ledger amounts.
type SignRule int

const (
	// ForceNegative makes the amount -abs(amount): spending sections.
	ForceNegative SignRule = iota
	// ForcePositive makes the amount abs(amount): payment/credit sections.
	ForcePositive
	// TrustSource keeps whatever sign the statement printed (parenthesized
	// amounts are already negative after tokenizing).
	TrustSource
)

// The two destination accounts and the category tag used for secured-account
// activity. These strings are part of the Monarch import contract.
const (
	AccountBelieve   = "Varo Believe Card"
	AccountSecured   = "Varo Secured Account"
	CategoryTransfer = "Transfer"
)

// Policy is the section → (sign, account) mapping.
type Policy struct {
	Sign    SignRule
	Account string
}

var policies = map[Section]Policy{
	Purchases:           {Sign: ForceNegative, Account: AccountBelieve},
	Fees:                {Sign: ForceNegative, Account: AccountBelieve},
	PaymentsAndCredits:  {Sign: ForcePositive, Account: AccountBelieve},
	SecuredTransactions: {Sign: TrustSource, Account: AccountSecured},
}

// PolicyFor returns the classification policy for a section. The second
// return is false for Unknown (and any unrecognized value), meaning the
// transaction cannot be classified.
func PolicyFor(s Section) (Policy, bool) {
	p, ok := policies[s]
	return p, ok
}

// Match reports whether a line is one of the recognized section headings.
// Matching is exact or prefix ("Purchases (continued)" still counts), never
// free-form: the vocabulary is fixed by the statement vendor.
func Match(line string) (Section, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Unknown, false
	}
	for _, sec := range Order {
		if line == string(sec) || strings.HasPrefix(line, string(sec)) {
			return sec, true
		}
	}
	return Unknown, false
}

// Override is a description-driven reclassification that supersedes the
// section-derived account and sign rule.
type Override struct {
	Phrase  string
	Account string
	Sign    SignRule
}

// overrides are evaluated in order; the first matching phrase wins. Vault
// transfers show up inside the credit-card sections but belong to the
// secured account.
var overrides = []Override{
	{Phrase: "TRF FROM VAULT TO CHARGE", Account: AccountSecured, Sign: TrustSource},
	{Phrase: "TRF FROM VAULT TO CHECKING", Account: AccountSecured, Sign: TrustSource},
	{Phrase: "PAY MOVE TO BELIEVE", Account: AccountSecured, Sign: TrustSource},
}

// OverrideMatcher matches transaction descriptions against the override
// phrases in a single pass using Aho-Corasick, so the rule list can grow
// without a per-rule scan.
type OverrideMatcher struct {
	matcher *ahocorasick.Matcher
}

// NewOverrideMatcher builds the matcher over the fixed override phrases.
func NewOverrideMatcher() *OverrideMatcher {
	patterns := make([]string, len(overrides))
	for i, ov := range overrides {
		patterns[i] = ov.Phrase
	}
	return &OverrideMatcher{matcher: ahocorasick.NewStringMatcher(patterns)}
}

// Match returns the first override (in declaration order) whose phrase
// occurs in the description, case-insensitively.
func (m *OverrideMatcher) Match(description string) (Override, bool) {
	hits := m.matcher.Match([]byte(strings.ToUpper(description)))
	if len(hits) == 0 {
		return Override{}, false
	}
	first := hits[0]
	for _, h := range hits[1:] {
		if h < first {
			first = h
		}
	}
	return overrides[first], true
}
