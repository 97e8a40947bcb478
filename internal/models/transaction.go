// Package models holds the record types that flow through the extraction
// pipeline: raw candidate rows, merged logical transactions, classified
// output rows, and the per-statement summary.
package models

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/varo-monarch-converter/internal/section"
)

// Origin says which extraction pass produced a raw row.
type Origin string

const (
	OriginTable Origin = "table"
	OriginText  Origin = "text"
)

// RawRow is one candidate transaction observation from either pass.
// A row belongs to exactly one section, assigned at extraction time.
type RawRow struct {
	Source  string
	Page    int
	Table   int // 0 for text-pass rows
	Section section.Section
	Date    string // raw token, validated later
	Desc    string
	Amount  string // raw token, "" when the row carried none
	Start   bool   // true if this row begins a new logical transaction
	Origin  Origin
	Pos     int // document-order ordinal within the pass, for output ordering
}

// LogicalTransaction is one real-world transaction after continuation rows
// have been coalesced. Amount carries the source sign; classification applies
// the section's sign rule afterwards.
type LogicalTransaction struct {
	Date    string // MM/DD/YYYY
	Desc    string
	Amount  decimal.Decimal
	Section section.Section
	Source  string
	Page    int
	Table   int
	Origin  Origin
	Pos     int
}

// ClassifiedTransaction is the final output unit in Monarch's column shape.
type ClassifiedTransaction struct {
	Date       string          `json:"date"`
	Merchant   string          `json:"merchant"`
	Category   string          `json:"category"`
	Account    string          `json:"account"`
	Amount     decimal.Decimal `json:"amount"`
	SourceFile string          `json:"sourceFile,omitempty"`
}

// StatementSummary holds the balances needed to set up the matching Monarch
// accounts. Produced once per statement, independent of the transactions.
// EndingBalance and CreditLimit describe the secured account; NewBalance and
// the payment-due fields describe the Believe card.
type StatementSummary struct {
	Source              string          `json:"source"`
	EndingBalance       decimal.Decimal `json:"endingBalance"`
	HasEndingBalance    bool            `json:"hasEndingBalance"`
	CreditLimit         decimal.Decimal `json:"creditLimit"`
	HasCreditLimit      bool            `json:"hasCreditLimit"`
	NewBalance          decimal.Decimal `json:"newBalance"`
	HasNewBalance       bool            `json:"hasNewBalance"`
	PaymentDueAmount    decimal.Decimal `json:"paymentDueAmount"`
	HasPaymentDueAmount bool            `json:"hasPaymentDueAmount"`
	PaymentDueDate      string          `json:"paymentDueDate,omitempty"`
	AccountNumber       string          `json:"accountNumber,omitempty"`
}

// WarningKind classifies recoverable extraction problems. None of these
// abort a document; they are counted and surfaced alongside the result.
type WarningKind string

const (
	WarnUnresolvedSection     WarningKind = "unresolved-section"
	WarnIncompleteTransaction WarningKind = "incomplete-transaction"
	WarnMalformedTable        WarningKind = "malformed-table"
	WarnDuplicateCollapse     WarningKind = "duplicate-collapse"
	WarnEmptyDocument         WarningKind = "empty-document"
)

// Warning is one recovered extraction problem.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Page   int         `json:"page,omitempty"`
	Detail string      `json:"detail"`
}

func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("%s (page %d): %s", w.Kind, w.Page, w.Detail)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
}
