package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/insightdelivered/varo-monarch-converter/internal/models"
	"github.com/insightdelivered/varo-monarch-converter/internal/section"
)

// runKey partitions raw rows: continuation rows only ever attach to a start
// row from the same source, page, table, section, and extraction pass.
type runKey struct {
	source  string
	page    int
	table   int
	section section.Section
	origin  models.Origin
}

func keyOf(r models.RawRow) runKey {
	return runKey{source: r.Source, page: r.Page, table: r.Table, section: r.Section, origin: r.Origin}
}

// mergeRuns coalesces each contiguous run of raw rows (one start row plus
// its continuations) into a single logical transaction. The first valid
// date and the first valid amount in the run win; later conflicting values
// are discarded, never combined. Runs missing either are dropped with a
// warning rather than emitted half-empty.
func mergeRuns(rows []models.RawRow) ([]models.LogicalTransaction, []models.Warning) {
	var out []models.LogicalTransaction
	var warnings []models.Warning

	var run []models.RawRow
	flush := func() {
		if len(run) == 0 {
			return
		}
		tx, warn := finishRun(run)
		if warn != nil {
			warnings = append(warnings, *warn)
		} else {
			out = append(out, tx)
		}
		run = nil
	}

	for _, r := range rows {
		switch {
		case r.Start:
			flush()
			run = append(run, r)
		case len(run) > 0 && keyOf(r) == keyOf(run[0]):
			run = append(run, r)
		default:
			// Orphan continuation: no open transaction in its partition.
			flush()
		}
	}
	flush()

	return out, warnings
}

func finishRun(run []models.RawRow) (models.LogicalTransaction, *models.Warning) {
	start := run[0]
	var date string
	var amountTok string
	var descs []string

	for _, r := range run {
		if date == "" {
			if d, ok := ParseDate(r.Date); ok {
				date = d
			}
		}
		if amountTok == "" {
			if _, ok := ParseAmount(r.Amount); ok {
				amountTok = r.Amount
			}
		}
		if d := cleanText(r.Desc); d != "" {
			descs = append(descs, d)
		}
	}

	desc := strings.Join(descs, " ")
	amount, haveAmount := ParseAmount(amountTok)
	if date == "" || !haveAmount {
		return models.LogicalTransaction{}, &models.Warning{
			Kind:   models.WarnIncompleteTransaction,
			Page:   start.Page,
			Detail: fmt.Sprintf("dropped %s-pass run %q: missing date or amount", start.Origin, truncate(desc, 60)),
		}
	}

	return models.LogicalTransaction{
		Date:    date,
		Desc:    desc,
		Amount:  amount,
		Section: start.Section,
		Source:  start.Source,
		Page:    start.Page,
		Table:   start.Table,
		Origin:  start.Origin,
		Pos:     start.Pos,
	}, nil
}

// dedupKey is the tuple the cross-origin duplicate rule matches on. Two
// same-day, same-amount transactions in one section collapse even when they
// are genuinely distinct; that precision/recall trade-off is deliberate and
// kept observable through duplicate-collapse warnings.
func dedupKey(tx models.LogicalTransaction) string {
	return tx.Date + "|" + tx.Amount.StringFixed(2) + "|" + string(tx.Section)
}

// dedup removes text-pass transactions that a table-pass transaction
// already covers. Table extraction is authoritative when both agree; the
// text pass only fills gaps. The result keeps original appearance order.
func dedup(txs []models.LogicalTransaction) ([]models.LogicalTransaction, []models.Warning) {
	byKey := make(map[string]models.LogicalTransaction)
	for _, tx := range txs {
		if tx.Origin == models.OriginTable {
			if _, seen := byKey[dedupKey(tx)]; !seen {
				byKey[dedupKey(tx)] = tx
			}
		}
	}

	var out []models.LogicalTransaction
	var warnings []models.Warning
	for _, tx := range txs {
		if tx.Origin == models.OriginText {
			if table, ok := byKey[dedupKey(tx)]; ok {
				if !descriptionsAlike(table.Desc, tx.Desc) {
					warnings = append(warnings, models.Warning{
						Kind:   models.WarnDuplicateCollapse,
						Page:   tx.Page,
						Detail: fmt.Sprintf("text row %q collapsed into table row %q on matching date/amount/section", truncate(tx.Desc, 40), truncate(table.Desc, 40)),
					})
				}
				continue
			}
		}
		out = append(out, tx)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Page != out[j].Page {
			return out[i].Page < out[j].Page
		}
		return out[i].Pos < out[j].Pos
	})

	return out, warnings
}

// descriptionsAlike reports whether one description is a superset or near
// match of the other after whitespace normalization: "STARBUCKS" vs
// "STARBUCKS #4421" are the same transaction seen by two passes.
func descriptionsAlike(a, b string) bool {
	na := strings.ToUpper(cleanText(a))
	nb := strings.ToUpper(cleanText(b))
	if na == "" || nb == "" {
		return true
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	if len(na) < len(nb) {
		return fuzzy.MatchNormalizedFold(na, nb)
	}
	return fuzzy.MatchNormalizedFold(nb, na)
}
