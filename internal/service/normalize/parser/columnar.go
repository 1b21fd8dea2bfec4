package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/cellvalue"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/locator"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/spreadsheet"
)

// Column keys understood by ColumnarParser.
const (
	ColCode      = "code"
	ColName      = "name"
	ColDate      = "date"
	ColIn        = "in"
	ColOut       = "out"
	ColDateOut   = "date_out"
	ColTime      = "time"
	ColDirection = "direction"
	ColStatus    = "status"
	ColShift     = "shift"
	ColHours     = "hours"
	ColOvertime  = "overtime"
)

// ColumnarConfig describes a table export with a header row.
type ColumnarConfig struct {
	Name string

	Columns      []locator.Column
	HeaderSearch int
	MinMatches   int

	// PunchColumns matches repeated punch headers such as "IN 1" and "OUT 2" on normalized
	// labels. The first group must read "in" or "out".
	PunchColumns *regexp.Regexp

	// Directions maps tokens of the direction column ("Terminal 1") to a direction.
	Directions map[string]attendance.Direction

	ZeroTimeIsBlank bool
}

// ColumnarParser parses table exports with one row per day or one row per punch. Rows of
// the same employee and date are merged into one group in first-seen order.
type ColumnarParser struct {
	cfg        ColumnarConfig
	punch      punchReader
	directions map[string]attendance.Direction
}

var defaultDirections = map[string]attendance.Direction{
	"IN":        attendance.DirectionIn,
	"I":         attendance.DirectionIn,
	"CHECK IN":  attendance.DirectionIn,
	"CHECKIN":   attendance.DirectionIn,
	"ENTRY":     attendance.DirectionIn,
	"OUT":       attendance.DirectionOut,
	"O":         attendance.DirectionOut,
	"CHECK OUT": attendance.DirectionOut,
	"CHECKOUT":  attendance.DirectionOut,
	"EXIT":      attendance.DirectionOut,
}

// NewColumnarParser applies defaults to cfg.
func NewColumnarParser(cfg ColumnarConfig) *ColumnarParser {
	if cfg.HeaderSearch <= 0 {
		cfg.HeaderSearch = 30
	}
	if cfg.MinMatches <= 0 {
		cfg.MinMatches = 2
	}
	dirs := make(map[string]attendance.Direction, len(defaultDirections)+len(cfg.Directions))
	for k, v := range defaultDirections {
		dirs[k] = v
	}
	for k, v := range cfg.Directions {
		dirs[strings.ToUpper(cellvalue.Clean(k))] = v
	}
	return &ColumnarParser{
		cfg:        cfg,
		punch:      punchReader{zeroIsBlank: cfg.ZeroTimeIsBlank},
		directions: dirs,
	}
}

type punchColumn struct {
	col int
	dir attendance.Direction
}

// Parse implements Parser.
func (p *ColumnarParser) Parse(g spreadsheet.Grid) (Result, error) {
	h, ok := locator.FindHeaderRow(g, p.cfg.HeaderSearch, p.cfg.Columns, p.cfg.MinMatches)
	if !ok {
		return Result{}, &attendance.StructuralError{Format: p.cfg.Name, What: "header row"}
	}
	if missing := h.Missing(p.cfg.Columns); len(missing) > 0 {
		return Result{}, &attendance.FormatError{Format: p.cfg.Name, Missing: missing}
	}

	var punchCols []punchColumn
	if p.cfg.PunchColumns != nil {
		punchCols = p.punchColumns(g, h)
		if len(punchCols) == 0 {
			return Result{}, &attendance.FormatError{Format: p.cfg.Name, Missing: []string{"IN n / OUT n"}}
		}
	}

	codeCol := p.columnPattern(ColCode)
	index := make(map[string]int)
	var res Result

	for r := h.DataStart(); r < g.Len(); r++ {
		id := g.Text(r, h.Col(ColCode))
		name := g.Text(r, h.Col(ColName))
		if id == "" && name == "" {
			continue
		}
		// Text extracted from multi-page PDFs repeats the header on every page.
		if codeCol != nil && codeCol.MatchString(locator.NormalizeLabel(id)) {
			continue
		}

		date, ok := p.rowDate(g, h, r)
		if !ok {
			res.Anomalies = append(res.Anomalies, attendance.RowAnomaly{
				Kind:     attendance.AnomalyUnparseableTime,
				Row:      r + 1,
				SourceID: id,
				Detail:   fmt.Sprintf("no readable date in %q", g.Text(r, h.Col(ColDate))),
			})
			continue
		}

		key := strings.ToUpper(id) + "|" + strings.ToUpper(name) + "|" + date.Format(attendance.DateLayout)
		i, seen := index[key]
		if !seen {
			i = len(res.Groups)
			index[key] = i
			res.Groups = append(res.Groups, attendance.DailyPunchGroup{
				SourceEmployeeID: id,
				EmployeeName:     name,
				Date:             date,
				Row:              r + 1,
			})
		}
		group := &res.Groups[i]

		if group.StatusToken == "" && h.Has(ColStatus) {
			group.StatusToken = g.Text(r, h.Col(ColStatus))
		}
		if group.SourceShift == "" && h.Has(ColShift) {
			group.SourceShift = g.Text(r, h.Col(ColShift))
		}
		if h.Has(ColHours) {
			readTotal(&group.SourceHours, g.Cell(r, h.Col(ColHours)))
		}
		if h.Has(ColOvertime) {
			readTotal(&group.SourceOvertime, g.Cell(r, h.Col(ColOvertime)))
		}
		p.readPunches(g, h, r, date, group, punchCols)
	}
	return res, nil
}

func (p *ColumnarParser) readPunches(g spreadsheet.Grid, h locator.Header, r int, date time.Time, group *attendance.DailyPunchGroup, punchCols []punchColumn) {
	if h.Has(ColIn) {
		p.punch.add(group, attendance.DirectionIn, date, g.Cell(r, h.Col(ColIn)))
	}
	if h.Has(ColOut) {
		outDate := date
		if h.Has(ColDateOut) {
			if d, ok := cellvalue.NormalizeDate(g.Cell(r, h.Col(ColDateOut))); ok {
				outDate = d
			}
		}
		p.punch.add(group, attendance.DirectionOut, outDate, g.Cell(r, h.Col(ColOut)))
	}
	if h.Has(ColTime) {
		dir := attendance.DirectionUnknown
		if h.Has(ColDirection) {
			if d, ok := p.directions[strings.ToUpper(g.Text(r, h.Col(ColDirection)))]; ok {
				dir = d
			}
		}
		p.punch.add(group, dir, date, g.Cell(r, h.Col(ColTime)))
	}
	for _, pc := range punchCols {
		p.punch.add(group, pc.dir, date, g.Cell(r, pc.col))
	}
}

// rowDate reads the date column, falling back to the date embedded in a datetime punch.
func (p *ColumnarParser) rowDate(g spreadsheet.Grid, h locator.Header, r int) (time.Time, bool) {
	if h.Has(ColDate) {
		if d, ok := cellvalue.NormalizeDate(g.Cell(r, h.Col(ColDate))); ok {
			return d, true
		}
	}
	for _, key := range []string{ColTime, ColIn} {
		if !h.Has(key) {
			continue
		}
		if ts, ok := cellvalue.NormalizeTime(time.Time{}, g.Cell(r, h.Col(key))); ok && ts.Year() > 1 {
			return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// punchColumns lists repeated IN n / OUT n columns left to right.
func (p *ColumnarParser) punchColumns(g spreadsheet.Grid, h locator.Header) []punchColumn {
	var cols []punchColumn
	width := len(g.Row(h.Row))
	if h.Rows == 2 && len(g.Row(h.Row+1)) > width {
		width = len(g.Row(h.Row + 1))
	}
	for c := 0; c < width; c++ {
		candidates := []string{locator.NormalizeLabel(g.Cell(h.Row, c))}
		if h.Rows == 2 {
			candidates = append(candidates,
				locator.NormalizeLabel(g.Cell(h.Row+1, c)),
				locator.NormalizeLabel(g.Cell(h.Row, c)+" "+g.Cell(h.Row+1, c)))
		}
		for _, label := range candidates {
			m := p.cfg.PunchColumns.FindStringSubmatch(label)
			if m == nil {
				continue
			}
			dir := attendance.DirectionIn
			if strings.EqualFold(m[1], "out") {
				dir = attendance.DirectionOut
			}
			cols = append(cols, punchColumn{col: c, dir: dir})
			break
		}
	}
	return cols
}

func (p *ColumnarParser) columnPattern(key string) *regexp.Regexp {
	for _, c := range p.cfg.Columns {
		if c.Key == key {
			return c.Pattern
		}
	}
	return nil
}
