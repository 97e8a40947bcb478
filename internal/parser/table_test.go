package parser

import (
	"testing"

	"github.com/insightdelivered/varo-monarch-converter/internal/extractor"
	"github.com/insightdelivered/varo-monarch-converter/internal/models"
	"github.com/insightdelivered/varo-monarch-converter/internal/section"
)

func TestTablePassBasicRow(t *testing.T) {
	doc := extractor.FromText(`Purchases
Date  Description  Amount
12/05/2024  AMAZON.COM PURCHASE  $42.13`)

	rows, warns := tablePass(doc, "stmt.pdf")
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if !r.Start {
		t.Error("row should start a transaction")
	}
	if r.Date != "12/05/2024" || r.Desc != "AMAZON.COM PURCHASE" || r.Amount != "$42.13" {
		t.Errorf("got (%q, %q, %q)", r.Date, r.Desc, r.Amount)
	}
	if r.Section != section.Purchases {
		t.Errorf("section = %v, want Purchases", r.Section)
	}
	if r.Origin != models.OriginTable {
		t.Errorf("origin = %v, want table", r.Origin)
	}
}

func TestTablePassContinuationRow(t *testing.T) {
	doc := extractor.FromText(`Secured Account Transactions
Date  Description  Amount
12/01/2024  Trf from Vault
to Charge C Bal  $100.00`)

	rows, _ := tablePass(doc, "stmt.pdf")
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if !rows[0].Start || rows[0].Date != "12/01/2024" || rows[0].Amount != "" {
		t.Errorf("start row = %+v", rows[0])
	}
	if rows[1].Start {
		t.Error("second row must be a continuation")
	}
	if rows[1].Desc != "to Charge C Bal" || rows[1].Amount != "$100.00" {
		t.Errorf("continuation = (%q, %q)", rows[1].Desc, rows[1].Amount)
	}
	if rows[0].Table != rows[1].Table {
		t.Error("continuation landed in a different table than its start row")
	}
}

func TestTablePassSectionCarriesAcrossPages(t *testing.T) {
	doc := extractor.FromText("Purchases\n12/05/2024  COFFEE SHOP  $4.50\f12/06/2024  BOOK STORE  $19.99")

	rows, _ := tablePass(doc, "stmt.pdf")
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for _, r := range rows {
		if r.Section != section.Purchases {
			t.Errorf("row %q section = %v, want Purchases", r.Desc, r.Section)
		}
	}
	if rows[0].Page != 1 || rows[1].Page != 2 {
		t.Errorf("pages = %d, %d", rows[0].Page, rows[1].Page)
	}
}

func TestTablePassWarnsOnUnresolvedSection(t *testing.T) {
	doc := extractor.FromText("12/05/2024  MYSTERY ROW  $1.00")

	rows, warns := tablePass(doc, "stmt.pdf")
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Section != section.Unknown {
		t.Errorf("section = %v, want Unknown", rows[0].Section)
	}
	if !hasWarning(warns, models.WarnUnresolvedSection) {
		t.Errorf("missing unresolved-section warning, got %v", warns)
	}
}

func TestTablePassWarnsOnMalformedTable(t *testing.T) {
	// A table whose every row is a header or footer yields nothing usable.
	doc := extractor.FromText(`Fees
Date  Description  Amount
Total Fees  $15.00`)

	rows, warns := tablePass(doc, "stmt.pdf")
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
	if !hasWarning(warns, models.WarnMalformedTable) {
		t.Errorf("missing malformed-table warning, got %v", warns)
	}
}

func TestTablePassSkipsSummaryRows(t *testing.T) {
	doc := extractor.FromText(`Purchases
12/05/2024  GROCERY STORE  $60.00
Ending Balance  $512.34`)

	rows, _ := tablePass(doc, "stmt.pdf")
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Desc != "GROCERY STORE" {
		t.Errorf("kept row = %q", rows[0].Desc)
	}
}

func TestRowToRawFields(t *testing.T) {
	tests := []struct {
		name   string
		cells  []string
		date   string
		desc   string
		amount string
	}{
		{"three columns", []string{"12/05/2024", "AMAZON.COM", "$42.13"}, "12/05/2024", "AMAZON.COM", "$42.13"},
		{"four columns", []string{"12/05/2024", "AMAZON", "MKTP", "$42.13"}, "12/05/2024", "AMAZON MKTP", "$42.13"},
		{"last cell not money", []string{"12/05/2024", "CARD ENDING", "4421"}, "12/05/2024", "CARD ENDING 4421", ""},
		{"date and desc", []string{"12/05/2024", "AMAZON.COM"}, "12/05/2024", "AMAZON.COM", ""},
		{"date and amount", []string{"12/05/2024", "$42.13"}, "12/05/2024", "", "$42.13"},
		{"desc and amount", []string{"wrapped text", "$42.13"}, "", "wrapped text", "$42.13"},
		{"two descs", []string{"wrapped", "text"}, "", "wrapped text", ""},
		{"single cell", []string{"wrapped text"}, "", "wrapped text", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, desc, amount := rowToRawFields(tt.cells)
			if date != tt.date || desc != tt.desc || amount != tt.amount {
				t.Errorf("got (%q, %q, %q), want (%q, %q, %q)", date, desc, amount, tt.date, tt.desc, tt.amount)
			}
		})
	}
}

func TestIsSummaryLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"Total Purchases $42.13", true},
		{"Ending Balance $512.34", true},
		{"Beginning Balance $100.00", true},
		{"New Balance $42.13", true},
		{"Minimum Payment Due $25.00", true},
		{"Credit Limit $500.00", true},
		{"Page 2 of 4", true},
		{"12/05/2024 AMAZON.COM $42.13", false},
		{"TOTALLY NORMAL MERCHANT", false},
	}
	for _, tt := range tests {
		if got := isSummaryLine(tt.line); got != tt.want {
			t.Errorf("isSummaryLine(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func hasWarning(warns []models.Warning, kind models.WarningKind) bool {
	for _, w := range warns {
		if w.Kind == kind {
			return true
		}
	}
	return false
}
