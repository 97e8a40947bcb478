package parser

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/varo-monarch-converter/internal/extractor"
	"github.com/insightdelivered/varo-monarch-converter/internal/models"
	"github.com/insightdelivered/varo-monarch-converter/internal/section"
)

// tablePass walks the positioned cell rows of each page and emits raw rows
// from detected table blocks. A table block is a run of consecutive
// multi-cell rows; its governing section is whatever heading most recently
// preceded it, carried across pages since sections span page breaks.
func tablePass(doc *extractor.Document, source string) ([]models.RawRow, []models.Warning) {
	var out []models.RawRow
	var warnings []models.Warning

	cur := section.Unknown
	tableIdx := 0
	inTable := false
	tableSection := section.Unknown
	tableRows := 0
	tableEmitted := 0
	tablePage := 0

	closeTable := func() {
		if inTable && tableRows > 0 && tableEmitted == 0 {
			warnings = append(warnings, models.Warning{
				Kind:   models.WarnMalformedTable,
				Page:   tablePage,
				Detail: fmt.Sprintf("table %d yielded no usable rows", tableIdx),
			})
		}
		inTable = false
	}

	for _, page := range doc.Pages {
		for pos, row := range page.Rows {
			cells := cleanCells(row.Cells)
			joined := strings.Join(cells, " ")
			if joined == "" {
				continue
			}

			if sec, ok := section.Match(joined); ok {
				closeTable()
				cur = sec
				continue
			}

			if len(cells) < 2 {
				// No column structure. Inside a table this is a wrapped
				// description line; outside, page prose.
				if inTable && !isHeaderLine(joined) && !isSummaryLine(joined) {
					out = append(out, models.RawRow{
						Source:  source,
						Page:    page.Number,
						Table:   tableIdx,
						Section: tableSection,
						Desc:    joined,
						Start:   false,
						Origin:  models.OriginTable,
						Pos:     pos,
					})
					tableEmitted++
				}
				continue
			}

			if !inTable {
				tableIdx++
				inTable = true
				tableSection = cur
				tableRows = 0
				tableEmitted = 0
				tablePage = page.Number
				if cur == section.Unknown {
					warnings = append(warnings, models.Warning{
						Kind:   models.WarnUnresolvedSection,
						Page:   page.Number,
						Detail: fmt.Sprintf("no heading before table %d", tableIdx),
					})
				}
			}
			tableRows++

			if isHeaderLine(joined) || isSummaryLine(joined) {
				continue
			}

			date, desc, amount := rowToRawFields(cells)
			if d, ok := ParseDate(date); ok {
				out = append(out, models.RawRow{
					Source:  source,
					Page:    page.Number,
					Table:   tableIdx,
					Section: tableSection,
					Date:    d,
					Desc:    desc,
					Amount:  amount,
					Start:   true,
					Origin:  models.OriginTable,
					Pos:     pos,
				})
				tableEmitted++
				continue
			}
			// Continuation row: extra description, possibly carrying the
			// amount the start row lacked.
			if desc != "" || amount != "" || date != "" {
				// An invalid date cell is just description text that landed
				// in the first column.
				if date != "" {
					desc = strings.TrimSpace(date + " " + desc)
				}
				out = append(out, models.RawRow{
					Source:  source,
					Page:    page.Number,
					Table:   tableIdx,
					Section: tableSection,
					Desc:    desc,
					Amount:  amount,
					Start:   false,
					Origin:  models.OriginTable,
					Pos:     pos,
				})
				tableEmitted++
			}
		}
	}
	closeTable()

	return out, warnings
}

// rowToRawFields maps a cell row to (date, description, amount) by position.
// The standard statement layout is Date | Description | Amount; degenerate
// two- and one-cell rows are disambiguated by token shape.
func rowToRawFields(cells []string) (date, desc, amount string) {
	switch {
	case len(cells) >= 3:
		date = cells[0]
		amount = cells[len(cells)-1]
		desc = strings.Join(cells[1:len(cells)-1], " ")
		if !IsProbableAmount(amount) {
			desc = strings.Join(cells[1:], " ")
			amount = ""
		}
	case len(cells) == 2:
		if _, ok := ParseDate(cells[0]); ok {
			date = cells[0]
			if IsProbableAmount(cells[1]) {
				amount = cells[1]
			} else {
				desc = cells[1]
			}
		} else if IsProbableAmount(cells[1]) {
			desc = cells[0]
			amount = cells[1]
		} else {
			desc = strings.Join(cells, " ")
		}
	case len(cells) == 1:
		desc = cells[0]
	}
	return date, strings.TrimSpace(desc), strings.TrimSpace(amount)
}

func cleanCells(cells []string) []string {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		if c = cleanText(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// isHeaderLine spots the column-header row of a transaction table.
func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "date") &&
		strings.Contains(lower, "description") &&
		strings.Contains(lower, "amount")
}

// isSummaryLine spots totals and balance footers that look like data rows
// but are not transactions.
func isSummaryLine(line string) bool {
	lower := strings.ToLower(line)
	if strings.HasPrefix(lower, "total ") || strings.HasPrefix(lower, "summary ") {
		return true
	}
	for _, kw := range []string{
		"beginning balance", "ending balance", "new balance",
		"minimum payment", "payment due", "credit limit", "page ",
	} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
