// Package parser turns extracted statement documents into classified
// transactions ready for CSV export. Two extraction passes run over every
// document: a table pass working from positioned cell rows, and a text pass
// working from the flattened line stream. Their results are merged and
// deduplicated, with the table pass preferred when both saw the same
// transaction.
package parser

import (
	"fmt"

	"github.com/insightdelivered/varo-monarch-converter/internal/extractor"
	"github.com/insightdelivered/varo-monarch-converter/internal/models"
	"github.com/insightdelivered/varo-monarch-converter/internal/section"
)

var overrideMatcher = section.NewOverrideMatcher()

// ExtractTransactions runs the full pipeline over one document. Per-row
// problems surface as warnings, never errors: a statement with one garbled
// line still yields the other transactions.
func ExtractTransactions(doc *extractor.Document, source string) ([]models.ClassifiedTransaction, []models.Warning) {
	var warnings []models.Warning

	tableRows, tableWarns := tablePass(doc, source)
	warnings = append(warnings, tableWarns...)

	textRows, textWarns := textPass(doc, source)
	warnings = append(warnings, textWarns...)

	logical, mergeWarns := mergeRuns(append(tableRows, textRows...))
	warnings = append(warnings, mergeWarns...)

	deduped, dedupWarns := dedup(logical)
	warnings = append(warnings, dedupWarns...)

	txs := classify(deduped, overrideMatcher)

	if len(txs) == 0 {
		warnings = append(warnings, models.Warning{
			Kind:   models.WarnEmptyDocument,
			Detail: fmt.Sprintf("no transactions recognized in %s", source),
		})
	}
	return txs, warnings
}
