// Package writer renders classified transactions as Monarch-importable CSV.
package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/insightdelivered/varo-monarch-converter/internal/models"
	"github.com/insightdelivered/varo-monarch-converter/internal/parser"
)

// monarchRow is the Monarch import schema. Column order matters to the
// importer, so the struct field order is the contract.
type monarchRow struct {
	Date     string `csv:"Date"`
	Merchant string `csv:"Merchant Name"`
	Category string `csv:"Category"`
	Account  string `csv:"Account"`
	Amount   string `csv:"Amount"`
}

// monarchRowWithSource adds the provenance column used when merging multiple
// statements into one file.
type monarchRowWithSource struct {
	Date       string `csv:"Date"`
	Merchant   string `csv:"Merchant Name"`
	Category   string `csv:"Category"`
	Account    string `csv:"Account"`
	Amount     string `csv:"Amount"`
	SourceFile string `csv:"SourceFile"`
}

// Options controls CSV rendering.
type Options struct {
	// IncludeSourceFile appends a Source File column naming the statement
	// each row came from.
	IncludeSourceFile bool
}

// Write renders transactions to w as CSV with a header row. Amounts are
// always printed with two decimal places.
func Write(w io.Writer, txs []models.ClassifiedTransaction, opts Options) error {
	if opts.IncludeSourceFile {
		rows := make([]monarchRowWithSource, len(txs))
		for i, tx := range txs {
			rows[i] = monarchRowWithSource{
				Date:       tx.Date,
				Merchant:   tx.Merchant,
				Category:   tx.Category,
				Account:    tx.Account,
				Amount:     parser.FormatAmount(tx.Amount),
				SourceFile: tx.SourceFile,
			}
		}
		if err := gocsv.Marshal(rows, w); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		return nil
	}

	rows := make([]monarchRow, len(txs))
	for i, tx := range txs {
		rows[i] = monarchRow{
			Date:     tx.Date,
			Merchant: tx.Merchant,
			Category: tx.Category,
			Account:  tx.Account,
			Amount:   parser.FormatAmount(tx.Amount),
		}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}

// String renders transactions to an in-memory CSV string.
func String(txs []models.ClassifiedTransaction, opts Options) (string, error) {
	var b strings.Builder
	if err := Write(&b, txs, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}
