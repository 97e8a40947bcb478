package parser

import (
	"strings"
	"testing"

	"github.com/insightdelivered/varo-monarch-converter/internal/extractor"
	"github.com/insightdelivered/varo-monarch-converter/internal/models"
	"github.com/insightdelivered/varo-monarch-converter/internal/section"
)

func TestExtractTransactionsPurchase(t *testing.T) {
	doc := extractor.FromText(`Purchases
Date  Description  Amount
12/05/2024  AMAZON.COM PURCHASE  $42.13`)

	txs, _ := ExtractTransactions(doc, "stmt.pdf")
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	tx := txs[0]
	if tx.Date != "12/05/2024" {
		t.Errorf("date = %q", tx.Date)
	}
	if tx.Merchant != "AMAZON.COM PURCHASE" {
		t.Errorf("merchant = %q", tx.Merchant)
	}
	if tx.Category != "" {
		t.Errorf("category = %q, want empty", tx.Category)
	}
	if tx.Account != section.AccountBelieve {
		t.Errorf("account = %q", tx.Account)
	}
	if got := tx.Amount.StringFixed(2); got != "-42.13" {
		t.Errorf("amount = %s, want -42.13", got)
	}
	if tx.SourceFile != "stmt.pdf" {
		t.Errorf("source = %q", tx.SourceFile)
	}
}

func TestExtractTransactionsParenthesizedFee(t *testing.T) {
	doc := extractor.FromText(`Fees
12/10/2024  LATE FEE  (15.00)`)

	txs, _ := ExtractTransactions(doc, "stmt.pdf")
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if got := txs[0].Amount.StringFixed(2); got != "-15.00" {
		t.Errorf("amount = %s, want -15.00", got)
	}
}

func TestExtractTransactionsWrappedVaultTransfer(t *testing.T) {
	doc := extractor.FromText(`Purchases
Date  Description  Amount
12/01/2024  Trf from Vault
to Charge C Bal  $100.00`)

	txs, _ := ExtractTransactions(doc, "stmt.pdf")
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	tx := txs[0]
	if tx.Merchant != "Trf from Vault to Charge C Bal" {
		t.Errorf("merchant = %q", tx.Merchant)
	}
	if tx.Account != section.AccountSecured {
		t.Errorf("account = %q, want secured (description override)", tx.Account)
	}
	if tx.Category != section.CategoryTransfer {
		t.Errorf("category = %q", tx.Category)
	}
	if got := tx.Amount.StringFixed(2); got != "100.00" {
		t.Errorf("amount = %s, want 100.00", got)
	}
}

func TestExtractTransactionsDedupAcrossPasses(t *testing.T) {
	// The table pass and the text pass both see this row; exactly one
	// transaction must come out, carrying the table description.
	doc := extractor.FromText(`Purchases
12/07/2024  STARBUCKS #4421  $8.75`)

	txs, _ := ExtractTransactions(doc, "stmt.pdf")
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if txs[0].Merchant != "STARBUCKS #4421" {
		t.Errorf("merchant = %q", txs[0].Merchant)
	}
}

func TestExtractTransactionsPaymentSign(t *testing.T) {
	doc := extractor.FromText(`Payments and Credits
12/15/2024  PAYMENT RECEIVED  -75.00`)

	txs, _ := ExtractTransactions(doc, "stmt.pdf")
	if len(txs) != 1 {
		t.Fatalf("got %d transactions, want 1", len(txs))
	}
	if got := txs[0].Amount.StringFixed(2); got != "75.00" {
		t.Errorf("amount = %s, want 75.00", got)
	}
}

func TestExtractTransactionsMultiSection(t *testing.T) {
	doc := extractor.FromText(`Purchases
12/05/2024  COFFEE SHOP  $4.50
12/06/2024  BOOK STORE  $19.99
Total Purchases  $24.49
Payments and Credits
12/15/2024  PAYMENT  $75.00
Secured Account Transactions
12/16/2024  VAULT DEPOSIT  $50.00`)

	txs, _ := ExtractTransactions(doc, "stmt.pdf")
	if len(txs) != 4 {
		t.Fatalf("got %d transactions, want 4", len(txs))
	}

	wantAccounts := []string{
		section.AccountBelieve, section.AccountBelieve,
		section.AccountBelieve, section.AccountSecured,
	}
	wantAmounts := []string{"-4.50", "-19.99", "75.00", "50.00"}
	for i, tx := range txs {
		if tx.Account != wantAccounts[i] {
			t.Errorf("tx %d account = %q, want %q", i, tx.Account, wantAccounts[i])
		}
		if got := tx.Amount.StringFixed(2); got != wantAmounts[i] {
			t.Errorf("tx %d amount = %s, want %s", i, got, wantAmounts[i])
		}
	}
}

func TestExtractTransactionsEmptyDocument(t *testing.T) {
	doc := extractor.FromText("This statement has no transaction tables at all.")

	txs, warns := ExtractTransactions(doc, "stmt.pdf")
	if len(txs) != 0 {
		t.Fatalf("got %d transactions, want 0", len(txs))
	}
	if !hasWarning(warns, models.WarnEmptyDocument) {
		t.Errorf("missing empty-document warning, got %v", warns)
	}
}

func TestExtractTransactionsStreetNumberNotAnAmount(t *testing.T) {
	// "1234" must never be read as $1234: rows whose only numeric token
	// lacks a decimal point are incomplete and dropped.
	doc := extractor.FromText(`Purchases
12/05/2024  STORE AT 1234 MAIN ST`)

	txs, warns := ExtractTransactions(doc, "stmt.pdf")
	if len(txs) != 0 {
		t.Fatalf("got %d transactions, want 0: %+v", len(txs), txs)
	}
	if !hasWarning(warns, models.WarnIncompleteTransaction) {
		t.Errorf("missing incomplete-transaction warning, got %v", warns)
	}
}

func TestExtractTransactionsOutputOrderMatchesDocument(t *testing.T) {
	doc := extractor.FromText(`Purchases
12/09/2024  LATER DATE FIRST  $1.00
12/02/2024  EARLIER DATE SECOND  $2.00`)

	txs, _ := ExtractTransactions(doc, "stmt.pdf")
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	if !strings.HasPrefix(txs[0].Merchant, "LATER") || !strings.HasPrefix(txs[1].Merchant, "EARLIER") {
		t.Errorf("output reordered: %q then %q; document order must be kept", txs[0].Merchant, txs[1].Merchant)
	}
}
