// Package locator finds structure inside loosely laid out attendance sheets: the period line,
// the day-number row, named header rows and repeating employee blocks.
//
// All functions are pure and report "not found" through a boolean. Whether a missing
// structure is fatal is the caller's decision.
package locator

import (
	"regexp"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/cellvalue"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/spreadsheet"
)

const monthNames = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?`

var (
	dateTokenRegex = regexp.MustCompile(`(?i)` +
		`\d{1,2}[/\-.]\d{1,2}[/\-.]\d{4}` +
		`|\d{4}-\d{1,2}-\d{1,2}` +
		`|` + monthNames + `\s*\d{1,2}(?:st|nd|rd|th)?,?\s*\d{4}` +
		`|\d{1,2}(?:st|nd|rd|th)?[\s\-]` + monthNames + `[\s\-,]*\d{2,4}`)
	rangeWordRegex = regexp.MustCompile(`(?i)\b(?:to|till|until|through)\b`)
)

// Period is a free-text date range found near the top of a sheet.
type Period struct {
	From time.Time
	To   time.Time
	Row  int
}

// FindPeriod scans the first maxRows rows for a line naming two dates joined by "to", such
// as "Performance Register from 01/07/2025 to 31/07/2025" or "Jul 01 2025 To Jul 31 2025".
func FindPeriod(g spreadsheet.Grid, maxRows int) (Period, bool) {
	for r := 0; r < g.Len() && r < maxRows; r++ {
		text := g.RowText(r)
		if !rangeWordRegex.MatchString(text) {
			continue
		}
		tokens := dateTokenRegex.FindAllString(text, -1)
		if len(tokens) < 2 {
			continue
		}
		from, okFrom := cellvalue.NormalizeDate(tokens[0])
		to, okTo := cellvalue.NormalizeDate(tokens[1])
		if !okFrom || !okTo || to.Before(from) {
			continue
		}
		return Period{From: from, To: to, Row: r}, true
	}
	return Period{}, false
}

// DayColumn is a sheet column carrying one day of the month.
type DayColumn struct {
	Col int
	Day int
}

// FindDayRow returns the first row at or after start whose day-number cells form an
// ascending run of at least minMatches days (wrapping from month end back to 1).
func FindDayRow(g spreadsheet.Grid, start, maxRows, minMatches int) (int, bool) {
	if start < 0 {
		start = 0
	}
	for r := start; r < g.Len() && r < start+maxRows; r++ {
		if dayRunLength(DayColumns(g, r)) >= minMatches {
			return r, true
		}
	}
	return 0, false
}

// DayColumns lists the cells of row r that parse as day numbers, left to right.
func DayColumns(g spreadsheet.Grid, r int) []DayColumn {
	var cols []DayColumn
	for c, v := range g.Row(r) {
		if d, ok := cellvalue.DayNumber(v); ok {
			cols = append(cols, DayColumn{Col: c, Day: d})
		}
	}
	return cols
}

func dayRunLength(cols []DayColumn) int {
	best, run := 0, 0
	for i, dc := range cols {
		if i > 0 && (dc.Day == cols[i-1].Day+1 || (cols[i-1].Day >= 28 && dc.Day == 1)) {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// Column describes one named column of a columnar export.
type Column struct {
	Key      string
	Pattern  *regexp.Regexp
	Required bool
}

// Header is a located header row. Rows is 2 when the labels were split over two rows by
// merged cells; data starts at Row+Rows.
type Header struct {
	Row     int
	Rows    int
	Index   map[string]int
	Matched int
}

// Has reports whether the header located key.
func (h Header) Has(key string) bool {
	_, ok := h.Index[key]
	return ok
}

// Col returns the column of key or -1.
func (h Header) Col(key string) int {
	if c, ok := h.Index[key]; ok {
		return c
	}
	return -1
}

// DataStart is the first row below the header.
func (h Header) DataStart() int {
	return h.Row + h.Rows
}

// Missing lists required columns the header did not match.
func (h Header) Missing(columns []Column) []string {
	var missing []string
	for _, col := range columns {
		if col.Required && !h.Has(col.Key) {
			missing = append(missing, col.Key)
		}
	}
	return missing
}

// FindHeaderRow picks the row among the first maxRows that matches the most columns, as
// long as it matches at least minMatches. Column order in the sheet is free.
func FindHeaderRow(g spreadsheet.Grid, maxRows int, columns []Column, minMatches int) (Header, bool) {
	var best Header
	for r := 0; r < g.Len() && r < maxRows; r++ {
		single := matchHeader(g, r, 1, columns)
		if single.Matched > best.Matched {
			best = single
		}
		if r+1 < g.Len() {
			merged := matchHeader(g, r, 2, columns)
			if merged.Matched > best.Matched && merged.Matched > single.Matched {
				best = merged
			}
		}
	}
	if best.Matched < minMatches || best.Matched == 0 {
		return Header{}, false
	}
	return best, true
}

func matchHeader(g spreadsheet.Grid, r, rows int, columns []Column) Header {
	h := Header{Row: r, Rows: rows, Index: make(map[string]int)}
	width := len(g.Row(r))
	if rows == 2 && len(g.Row(r+1)) > width {
		width = len(g.Row(r + 1))
	}

	labels := make([]string, width)
	for c := 0; c < width; c++ {
		if rows == 1 {
			labels[c] = NormalizeLabel(g.Cell(r, c))
			continue
		}
		top, bottom := g.Cell(r, c), g.Cell(r+1, c)
		// A merged parent label ("Punch") stays in its first column only; carry it right.
		if strings.TrimSpace(top) == "" && c > 0 && strings.TrimSpace(g.Cell(r, c-1)) != "" && strings.TrimSpace(bottom) != "" {
			top = g.Cell(r, c-1)
		}
		labels[c] = NormalizeLabel(top + " " + bottom)
	}

	used := make(map[int]bool)
	for _, col := range columns {
		for c, label := range labels {
			if used[c] || label == "" {
				continue
			}
			if col.Pattern.MatchString(label) {
				h.Index[col.Key] = c
				used[c] = true
				h.Matched++
				break
			}
		}
	}
	return h
}

var labelPunct = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeLabel lower-cases a header label and reduces punctuation to single spaces, so
// "Emp. Code", "EMP_CODE" and "Emp Code" all read "emp code".
func NormalizeLabel(raw string) string {
	s := strings.ToLower(cellvalue.Clean(raw))
	return strings.TrimSpace(labelPunct.ReplaceAllString(s, " "))
}

// Anchor is the cell that opens an employee block.
type Anchor struct {
	Row int
	Col int
}

// FindBlocks returns every row at or after start containing a cell that matches pattern.
// When col is not negative only that column is inspected.
func FindBlocks(g spreadsheet.Grid, start int, pattern *regexp.Regexp, col int) []Anchor {
	var anchors []Anchor
	for r := start; r < g.Len(); r++ {
		if col >= 0 {
			if pattern.MatchString(g.Text(r, col)) {
				anchors = append(anchors, Anchor{Row: r, Col: col})
			}
			continue
		}
		for c := range g.Row(r) {
			if pattern.MatchString(g.Text(r, c)) {
				anchors = append(anchors, Anchor{Row: r, Col: c})
				break
			}
		}
	}
	return anchors
}

// Stride returns block start rows for blocks of constant height.
func Stride(start, height, total int) []int {
	if height <= 0 {
		return nil
	}
	var rows []int
	for r := start; r+height <= total; r += height {
		rows = append(rows, r)
	}
	return rows
}

// FindLabeledRow searches rows [from, min(from+depth, stop)) for a cell matching label,
// used to find optional sub-rows of variable-height blocks.
func FindLabeledRow(g spreadsheet.Grid, from, depth, stop int, label *regexp.Regexp) (int, bool) {
	end := from + depth
	if stop >= 0 && stop < end {
		end = stop
	}
	for r := from; r < g.Len() && r < end; r++ {
		for c := range g.Row(r) {
			if label.MatchString(g.Text(r, c)) {
				return r, true
			}
		}
	}
	return 0, false
}

// ValueRightOf returns the first non-empty cleaned cell to the right of (r, c).
func ValueRightOf(g spreadsheet.Grid, r, c int) string {
	row := g.Row(r)
	for cc := c + 1; cc < len(row); cc++ {
		if v := cellvalue.Clean(row[cc]); v != "" {
			return v
		}
	}
	return ""
}
