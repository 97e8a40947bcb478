// Package extractor turns a statement PDF into an in-memory Document: per
// page, the ordered text lines plus positioned cell rows reconstructed from
// text coordinates. The rest of the pipeline only ever sees a Document and
// never touches the filesystem.
package extractor

import (
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// TextItem is one positioned text run on a page, in PDF coordinates
// (Y grows bottom-to-top).
type TextItem struct {
	X, Y, W float64
	S       string
}

// Row is one visual line of a page, split into cells at column gaps.
type Row struct {
	Cells []string
}

// Joined returns the row as a single line, cells separated by two spaces
// so the column structure survives into plain-text parsing.
func (r Row) Joined() string {
	return strings.TrimSpace(strings.Join(r.Cells, "  "))
}

// Page is one statement page.
type Page struct {
	Number int
	Rows   []Row
}

// Lines returns the page's rows as plain text lines.
func (p Page) Lines() []string {
	lines := make([]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		if l := r.Joined(); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Document is a fully materialized statement. The extraction pipeline treats
// it as immutable.
type Document struct {
	Pages []Page
}

// colGap is the horizontal whitespace (in PDF units) between the end of one
// text run and the start of the next that separates two table cells rather
// than two words.
const colGap = 10.0

// rowTol groups text runs whose Y coordinates differ by less than this into
// the same visual row. Statement rows are single-height; wrapped descriptions
// arrive as separate rows.
const rowTol = 3.0

// Open reads a PDF and builds a Document. It tries positioned extraction via
// the PDF library first, then the external pdftotext command (poppler-utils),
// and fails only when no method yields readable text, meaning a scanned or
// image-only statement.
func Open(path string) (*Document, error) {
	doc, libErr := openWithLibrary(path)
	if libErr == nil && isReadable(doc) {
		return doc, nil
	}

	doc, popplerErr := openWithPdftotext(path)
	if popplerErr == nil && isReadable(doc) {
		return doc, nil
	}

	if libErr != nil {
		return nil, fmt.Errorf("PDF text extraction failed: %w (the file may be image-based or use font encodings that cannot be decoded)", libErr)
	}
	return nil, fmt.Errorf("no readable text could be extracted from %q; the file may be scanned or image-based", path)
}

// openWithLibrary extracts positioned text with ledongthuc/pdf. The library
// panics on some malformed files, so the whole walk is recover-protected.
func openWithLibrary(path string) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("PDF library crashed: %v", r)
		}
	}()

	f, r, openErr := pdf.Open(path)
	if openErr != nil {
		return nil, openErr
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	doc = &Document{}
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		items := itemsFromRows(page)
		if len(items) == 0 {
			items = itemsFromContent(page)
		}
		if len(items) == 0 {
			continue
		}
		doc.Pages = append(doc.Pages, buildPage(i, items))
	}

	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("no text content found in PDF")
	}
	return doc, nil
}

// itemsFromRows uses GetTextByRow, which preserves reading order well on
// machine-generated statements.
func itemsFromRows(page pdf.Page) []TextItem {
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil
	}
	var items []TextItem
	for _, row := range rows {
		for _, word := range row.Content {
			if strings.TrimSpace(word.S) == "" {
				continue
			}
			items = append(items, TextItem{X: word.X, Y: word.Y, W: word.W, S: word.S})
		}
	}
	return items
}

// itemsFromContent is the lower-level fallback: raw text objects from the
// page content stream.
func itemsFromContent(page pdf.Page) []TextItem {
	content := page.Content()
	var items []TextItem
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		items = append(items, TextItem{X: t.X, Y: t.Y, W: t.W, S: t.S})
	}
	return items
}

// buildPage reconstructs visual rows from positioned runs: group by Y
// (descending, since PDF Y grows upward), order each row by X, and split into
// cells wherever the horizontal gap exceeds colGap.
func buildPage(number int, items []TextItem) Page {
	sort.SliceStable(items, func(a, b int) bool {
		if math.Abs(items[a].Y-items[b].Y) > rowTol {
			return items[a].Y > items[b].Y
		}
		return items[a].X < items[b].X
	})

	page := Page{Number: number}
	var rowItems []TextItem
	flush := func() {
		if len(rowItems) > 0 {
			page.Rows = append(page.Rows, buildRow(rowItems))
			rowItems = nil
		}
	}
	for _, it := range items {
		if len(rowItems) > 0 && math.Abs(it.Y-rowItems[len(rowItems)-1].Y) > rowTol {
			flush()
		}
		rowItems = append(rowItems, it)
	}
	flush()
	return page
}

func buildRow(items []TextItem) Row {
	var row Row
	var cell strings.Builder
	prevEnd := math.Inf(-1)
	for i, it := range items {
		if i > 0 {
			if it.X-prevEnd > colGap {
				row.Cells = append(row.Cells, strings.TrimSpace(cell.String()))
				cell.Reset()
			} else {
				cell.WriteByte(' ')
			}
		}
		cell.WriteString(it.S)
		end := it.X
		if it.W > 0 {
			end = it.X + it.W
		}
		prevEnd = end
	}
	if s := strings.TrimSpace(cell.String()); s != "" {
		row.Cells = append(row.Cells, s)
	}
	return row
}

var multiSpace = regexp.MustCompile(`\s{2,}`)

// openWithPdftotext shells out to poppler's pdftotext with -layout, which
// preserves column spacing, and rebuilds cells by splitting on runs of two
// or more spaces.
func openWithPdftotext(path string) (*Document, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}

	numPages := 1
	if out, err := exec.Command("pdfinfo", path).Output(); err == nil {
		for _, line := range strings.Split(string(out), "\n") {
			if strings.HasPrefix(line, "Pages:") {
				if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:"))); err == nil && n > 0 {
					numPages = n
				}
			}
		}
	}

	doc := &Document{}
	for i := 1; i <= numPages; i++ {
		pageArg := strconv.Itoa(i)
		out, err := exec.Command("pdftotext", "-layout", "-f", pageArg, "-l", pageArg, path, "-").Output()
		if err != nil {
			continue
		}
		page := Page{Number: i}
		for _, line := range strings.Split(string(out), "\n") {
			line = strings.TrimRight(line, " \t")
			if strings.TrimSpace(line) == "" {
				continue
			}
			cells := multiSpace.Split(strings.TrimSpace(line), -1)
			page.Rows = append(page.Rows, Row{Cells: cells})
		}
		if len(page.Rows) > 0 {
			doc.Pages = append(doc.Pages, page)
		}
	}

	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return doc, nil
}

// statementWords appear in virtually every Varo Believe statement. Extracted
// text containing none of them is treated as garbage from an undecodable
// font rather than real content.
var statementWords = []string{
	"varo", "believe", "account", "balance", "statement",
	"purchases", "payments", "transactions", "fees", "total",
	"date", "description", "amount", "secured",
}

// isReadable checks that the document has enough text, that the text is
// mostly plain ASCII, and that it contains at least one expected word.
func isReadable(doc *Document) bool {
	if doc == nil {
		return false
	}
	var all strings.Builder
	for _, p := range doc.Pages {
		for _, l := range p.Lines() {
			all.WriteString(l)
			all.WriteByte('\n')
		}
	}
	text := all.String()
	if len(strings.TrimSpace(text)) <= 50 {
		return false
	}
	if textQuality(text) <= 0.6 {
		return false
	}
	lower := strings.ToLower(text)
	for _, w := range statementWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// textQuality returns the ratio of readable ASCII characters to total
// characters. A strict ASCII check: unicode.IsLetter is too broad and
// matches the accented garbage produced by identity-encoded fonts.
func textQuality(text string) float64 {
	total := 0
	readable := 0
	for _, r := range text {
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
			strings.ContainsRune(`.,-/:;()'"$%&@#!?+=*`, r) {
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// PlainText returns the whole document as one string, page texts separated
// by blank lines. Used by the API response for parser debugging.
func (d *Document) PlainText() string {
	var b strings.Builder
	for i, p := range d.Pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.Join(p.Lines(), "\n"))
	}
	return b.String()
}

// FromText builds a Document from already-extracted text, one page per
// "\f"-separated chunk. Cells are rebuilt by splitting on multi-space runs,
// mirroring the pdftotext path. Used by the API's pre-extracted-text field
// and heavily by tests.
func FromText(text string) *Document {
	doc := &Document{}
	for i, chunk := range strings.Split(text, "\f") {
		page := Page{Number: i + 1}
		for _, line := range strings.Split(chunk, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			cells := multiSpace.Split(strings.TrimSpace(line), -1)
			page.Rows = append(page.Rows, Row{Cells: cells})
		}
		if len(page.Rows) > 0 {
			doc.Pages = append(doc.Pages, page)
		}
	}
	return doc
}
