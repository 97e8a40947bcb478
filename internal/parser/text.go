package parser

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/varo-monarch-converter/internal/extractor"
	"github.com/insightdelivered/varo-monarch-converter/internal/models"
	"github.com/insightdelivered/varo-monarch-converter/internal/section"
)

// textPass is the fallback extractor: it flattens every page into one
// ordered line stream and runs a current-section state machine over it.
// A date-prefixed line opens a transaction; a line without a leading date
// continues the open one. Because the stream is flattened, a description
// wrapped across a page break stays attached to its transaction.
func textPass(doc *extractor.Document, source string) ([]models.RawRow, []models.Warning) {
	var out []models.RawRow
	var warnings []models.Warning

	cur := section.Unknown
	open := false
	openPage := 0

	for _, page := range doc.Pages {
		for pos, row := range page.Rows {
			line := cleanText(row.Joined())
			if line == "" {
				continue
			}

			if sec, ok := section.Match(line); ok {
				cur = sec
				open = false
				continue
			}
			if isHeaderLine(line) {
				continue
			}
			if isSummaryLine(line) {
				// Totals end the section's transaction list; anything after
				// them is footer prose, not a wrapped description.
				open = false
				continue
			}

			tokens := strings.Fields(line)
			if d, ok := ParseDate(tokens[0]); ok {
				if cur == section.Unknown {
					warnings = append(warnings, models.Warning{
						Kind:   models.WarnUnresolvedSection,
						Page:   page.Number,
						Detail: fmt.Sprintf("transaction line before any heading: %q", truncate(line, 60)),
					})
				}
				amount, desc := splitTrailingAmount(tokens[1:])
				out = append(out, models.RawRow{
					Source:  source,
					Page:    page.Number,
					Section: cur,
					Date:    d,
					Desc:    desc,
					Amount:  amount,
					Start:   true,
					Origin:  models.OriginText,
					Pos:     pos,
				})
				open = true
				openPage = page.Number
				continue
			}

			if !open {
				// Continuation before any transaction in this section:
				// discarded, there is nothing to attach it to.
				continue
			}
			amount, desc := splitTrailingAmount(tokens)
			// Tag with the page the transaction started on so the run stays
			// in one partition when a description wraps across pages.
			out = append(out, models.RawRow{
				Source:  source,
				Page:    openPage,
				Section: cur,
				Desc:    desc,
				Amount:  amount,
				Start:   false,
				Origin:  models.OriginText,
				Pos:     pos,
			})
		}
	}

	return out, warnings
}

// splitTrailingAmount peels the rightmost money-looking token off a line.
// Everything before it is description; tokens after it (a balance column,
// typically) are dropped.
func splitTrailingAmount(tokens []string) (amount, desc string) {
	idx := -1
	for i := len(tokens) - 1; i >= 0; i-- {
		if IsProbableAmount(tokens[i]) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", strings.Join(tokens, " ")
	}
	return tokens[idx], strings.Join(tokens[:idx], " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
