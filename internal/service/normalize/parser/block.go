package parser

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/cellvalue"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/locator"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/spreadsheet"
)

// Field is a sub-row of an employee block.
type Field string

const (
	FieldStatus Field = "status"
	FieldIn     Field = "in"
	FieldOut    Field = "out"
	FieldShift  Field = "shift"

	// FieldHours and FieldOvertime carry the day totals the export printed.
	FieldHours    Field = "hours"
	FieldOvertime Field = "overtime"
)

// IdentityFunc reads the source employee id and name of the block anchored at a.
type IdentityFunc func(g spreadsheet.Grid, a locator.Anchor) (id, name string)

// BlockConfig describes an export made of repeating employee blocks whose columns are days.
type BlockConfig struct {
	Name string

	// PeriodRows bounds the search for the period line at the top of the sheet.
	PeriodRows int
	// MonthHeader and YearHeader, when both set, take the period from the first data row
	// under those day-header columns instead of a period line.
	MonthHeader *regexp.Regexp
	YearHeader  *regexp.Regexp

	// DayRowOffset, when positive, reads the day header inside every block at anchor row
	// plus the offset. Otherwise one sheet-wide day row is located below the period.
	DayRowOffset  int
	DayRowSearch  int
	MinDayMatches int

	Anchor    *regexp.Regexp
	AnchorCol int
	Identity  IdentityFunc
	// Stride, when positive, makes every block exactly Stride rows tall. Blocks are read
	// by stepping from one anchor row to the next; a step that misses an anchor row starts
	// a new search from there.
	Stride int

	// Offsets places sub-rows at fixed distances from the anchor row.
	Offsets map[Field]int
	// Labels finds sub-rows by their label within LabelDepth rows of the anchor.
	Labels     map[Field]*regexp.Regexp
	LabelDepth int
	// Required sub-rows; a block missing one is skipped.
	Required []Field

	ZeroTimeIsBlank bool
}

// BlockParser parses block exports.
type BlockParser struct {
	cfg   BlockConfig
	punch punchReader
}

// NewBlockParser applies defaults to cfg.
func NewBlockParser(cfg BlockConfig) *BlockParser {
	if cfg.PeriodRows <= 0 {
		cfg.PeriodRows = 10
	}
	if cfg.DayRowSearch <= 0 {
		cfg.DayRowSearch = 40
	}
	if cfg.MinDayMatches <= 0 {
		cfg.MinDayMatches = 6
	}
	if cfg.LabelDepth <= 0 {
		cfg.LabelDepth = 20
	}
	return &BlockParser{cfg: cfg, punch: punchReader{zeroIsBlank: cfg.ZeroTimeIsBlank}}
}

// Parse implements Parser.
func (p *BlockParser) Parse(g spreadsheet.Grid) (Result, error) {
	period, ok := p.findPeriod(g)
	if !ok {
		return Result{}, &attendance.StructuralError{Format: p.cfg.Name, What: "report period line"}
	}
	fileRange := attendance.DateRange{From: period.From, To: period.To}

	searchFrom := period.Row + 1
	var sheetDays []locator.DayColumn
	if p.cfg.DayRowOffset <= 0 {
		row, ok := locator.FindDayRow(g, searchFrom, p.cfg.DayRowSearch, p.cfg.MinDayMatches)
		if !ok {
			return Result{}, &attendance.StructuralError{Format: p.cfg.Name, What: "day header row"}
		}
		sheetDays = locator.DayColumns(g, row)
		searchFrom = row + 1
	}

	var anchors []locator.Anchor
	if p.cfg.Stride > 0 {
		anchors = p.strideAnchors(g, searchFrom)
	} else {
		anchors = locator.FindBlocks(g, searchFrom, p.cfg.Anchor, p.cfg.AnchorCol)
	}
	if len(anchors) == 0 {
		return Result{}, &attendance.StructuralError{Format: p.cfg.Name, What: "employee blocks"}
	}

	res := Result{Period: fileRange}
	for i, a := range anchors {
		next := -1
		if i+1 < len(anchors) {
			next = anchors[i+1].Row
		}
		if p.cfg.Stride > 0 && (next < 0 || next > a.Row+p.cfg.Stride) {
			next = a.Row + p.cfg.Stride
		}

		id, name := p.cfg.Identity(g, a)
		if id == "" && name == "" {
			slog.Debug("block without identity skipped", "format", p.cfg.Name, "row", a.Row+1)
			continue
		}

		rows, ok := p.fieldRows(g, a, next)
		if !ok {
			slog.Debug("incomplete block skipped", "format", p.cfg.Name, "row", a.Row+1, "id", id)
			continue
		}

		days := sheetDays
		if p.cfg.DayRowOffset > 0 {
			days = locator.DayColumns(g, a.Row+p.cfg.DayRowOffset)
		}

		for _, dc := range days {
			date, ok := dateForDay(fileRange, dc.Day)
			if !ok {
				continue
			}
			group := attendance.DailyPunchGroup{
				SourceEmployeeID: id,
				EmployeeName:     name,
				Date:             date,
				Row:              a.Row + 1,
			}
			if r, ok := rows[FieldStatus]; ok {
				group.StatusToken = g.Text(r, dc.Col)
			}
			if r, ok := rows[FieldShift]; ok {
				group.SourceShift = g.Text(r, dc.Col)
			}
			if r, ok := rows[FieldIn]; ok {
				p.punch.add(&group, attendance.DirectionIn, date, g.Cell(r, dc.Col))
			}
			if r, ok := rows[FieldOut]; ok {
				p.punch.add(&group, attendance.DirectionOut, date, g.Cell(r, dc.Col))
			}
			if r, ok := rows[FieldHours]; ok {
				readTotal(&group.SourceHours, g.Cell(r, dc.Col))
			}
			if r, ok := rows[FieldOvertime]; ok {
				readTotal(&group.SourceOvertime, g.Cell(r, dc.Col))
			}
			res.Groups = append(res.Groups, group)
		}
	}
	return res, nil
}

// strideAnchors walks fixed-height blocks from the first anchor row at or after from.
func (p *BlockParser) strideAnchors(g spreadsheet.Grid, from int) []locator.Anchor {
	var anchors []locator.Anchor
	for r := from; r < g.Len(); {
		if _, ok := p.anchorAt(g, r); !ok {
			r++
			continue
		}
		next := r + 1
		for _, start := range locator.Stride(r, p.cfg.Stride, g.Len()) {
			col, ok := p.anchorAt(g, start)
			if !ok {
				next = start
				break
			}
			anchors = append(anchors, locator.Anchor{Row: start, Col: col})
			next = start + p.cfg.Stride
		}
		r = next
	}
	return anchors
}

// anchorAt reports whether row r is a block anchor and in which column.
func (p *BlockParser) anchorAt(g spreadsheet.Grid, r int) (int, bool) {
	if p.cfg.AnchorCol >= 0 {
		return p.cfg.AnchorCol, p.cfg.Anchor.MatchString(g.Text(r, p.cfg.AnchorCol))
	}
	for c := range g.Row(r) {
		if p.cfg.Anchor.MatchString(g.Text(r, c)) {
			return c, true
		}
	}
	return 0, false
}

func (p *BlockParser) findPeriod(g spreadsheet.Grid) (locator.Period, bool) {
	if p.cfg.MonthHeader != nil && p.cfg.YearHeader != nil {
		return headerPeriod(g, p.cfg)
	}
	return findPeriod(g, p.cfg.PeriodRows)
}

// headerPeriod reads "For Month" / "For Year" style columns of the day header row. The
// returned period row sits just above the header so the day row search finds it again.
func headerPeriod(g spreadsheet.Grid, cfg BlockConfig) (locator.Period, bool) {
	row, ok := locator.FindDayRow(g, 0, cfg.DayRowSearch, cfg.MinDayMatches)
	if !ok {
		return locator.Period{}, false
	}
	var month, year int
	for c := range g.Row(row) {
		label := g.Text(row, c)
		switch {
		case cfg.MonthHeader.MatchString(label):
			month = monthNumber(g.Text(row+1, c))
		case cfg.YearHeader.MatchString(label):
			if f, err := strconv.ParseFloat(g.Text(row+1, c), 64); err == nil {
				year = int(f)
			}
		}
	}
	if month < 1 || month > 12 || year < 1900 {
		return locator.Period{}, false
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return locator.Period{From: first, To: first.AddDate(0, 1, -1), Row: row - 1}, true
}

// monthNumber reads "7", "07", "7.0", "Jul" or "July".
func monthNumber(s string) int {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	if len(s) >= 3 {
		if t, err := time.Parse("Jan", strings.ToUpper(s[:1])+strings.ToLower(s[1:3])); err == nil {
			return int(t.Month())
		}
	}
	return 0
}

// fieldRows locates the block's sub-rows. Rows never reach into the next block.
func (p *BlockParser) fieldRows(g spreadsheet.Grid, a locator.Anchor, next int) (map[Field]int, bool) {
	rows := make(map[Field]int)
	inBlock := func(r int) bool {
		return r < g.Len() && (next < 0 || r < next)
	}

	for field, off := range p.cfg.Offsets {
		if r := a.Row + off; inBlock(r) {
			rows[field] = r
		}
	}
	for field, label := range p.cfg.Labels {
		if _, fixed := rows[field]; fixed {
			continue
		}
		if r, ok := locator.FindLabeledRow(g, a.Row+1, p.cfg.LabelDepth, next, label); ok {
			rows[field] = r
		}
	}

	for _, field := range p.cfg.Required {
		if _, ok := rows[field]; !ok {
			return nil, false
		}
	}
	return rows, true
}

var monthYearRegex = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?[\s\-,/]*(\d{4})\b`)

// findPeriod accepts a "from .. to .." line or, failing that, a bare "July 2025" title
// which covers the whole month.
func findPeriod(g spreadsheet.Grid, maxRows int) (locator.Period, bool) {
	if p, ok := locator.FindPeriod(g, maxRows); ok {
		return p, true
	}
	for r := 0; r < g.Len() && r < maxRows; r++ {
		m := monthYearRegex.FindStringSubmatch(g.RowText(r))
		if m == nil {
			continue
		}
		first, err := time.Parse("Jan 2006", m[1]+" "+m[2])
		if err != nil {
			continue
		}
		return locator.Period{From: first, To: first.AddDate(0, 1, -1), Row: r}, true
	}
	return locator.Period{}, false
}

// LabelIdentity reads "Emp. Code: 0042 ... Emp. Name: Asha" anchor rows. The value may
// share the label's cell or sit in a cell to its right.
func LabelIdentity(code, name *regexp.Regexp) IdentityFunc {
	return func(g spreadsheet.Grid, a locator.Anchor) (string, string) {
		id := labelValue(g, a.Row, a.Col, code)
		for c := range g.Row(a.Row) {
			if name.MatchString(g.Text(a.Row, c)) {
				return id, labelValue(g, a.Row, c, name)
			}
		}
		return id, ""
	}
}

func labelValue(g spreadsheet.Grid, r, c int, label *regexp.Regexp) string {
	text := g.Text(r, c)
	if loc := label.FindStringIndex(text); loc != nil {
		if rest := strings.Trim(text[loc[1]:], " :-"); rest != "" {
			return rest
		}
	}
	return strings.TrimLeft(locator.ValueRightOf(g, r, c), ": ")
}

// SplitIdentity reads anchor rows holding one "PMP0005515, Naveen Singh" cell. pattern
// must capture the id and the name.
func SplitIdentity(pattern *regexp.Regexp) IdentityFunc {
	return func(g spreadsheet.Grid, a locator.Anchor) (string, string) {
		for c := range g.Row(a.Row) {
			if m := pattern.FindStringSubmatch(g.Text(a.Row, c)); m != nil {
				return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
			}
		}
		return "", ""
	}
}

// ColumnIdentity takes the id from the anchor cell and the name from a fixed column.
func ColumnIdentity(nameCol int) IdentityFunc {
	return func(g spreadsheet.Grid, a locator.Anchor) (string, string) {
		return cellvalue.Clean(g.Cell(a.Row, a.Col)), g.Text(a.Row, nameCol)
	}
}

// RowIdentity reads the name from nameCol and the id from the first non-empty of idCols,
// all on the anchor row.
func RowIdentity(nameCol int, idCols ...int) IdentityFunc {
	return func(g spreadsheet.Grid, a locator.Anchor) (string, string) {
		for _, c := range idCols {
			if id := cellvalue.Clean(g.Cell(a.Row, c)); id != "" {
				return id, g.Text(a.Row, nameCol)
			}
		}
		return "", g.Text(a.Row, nameCol)
	}
}
