// Package parser turns loosely structured attendance grids into daily punch groups. Two
// parsers cover every supported export: BlockParser for repeating employee blocks laid out
// against day columns, and ColumnarParser for tables with one row per day or per punch.
// What differs between exports is configuration, not code.
package parser

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/cellvalue"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/spreadsheet"
	"github.com/shopspring/decimal"
)

// Parser extracts daily punch groups from a grid. Structure problems are returned as
// *attendance.StructuralError or *attendance.FormatError.
type Parser interface {
	Parse(g spreadsheet.Grid) (Result, error)
}

// Result is everything a parser read from one grid, in source order.
type Result struct {
	// Period is the range printed in the file. Zero when the file prints none.
	Period    attendance.DateRange
	Groups    []attendance.DailyPunchGroup
	Anomalies []attendance.RowAnomaly
}

// Span returns the file's date range: the printed period, or else the first and last
// group dates.
func (r Result) Span() (attendance.DateRange, bool) {
	if !r.Period.IsZero() {
		return r.Period, true
	}
	var span attendance.DateRange
	for _, g := range r.Groups {
		if span.From.IsZero() || g.Date.Before(span.From) {
			span.From = g.Date
		}
		if span.To.IsZero() || g.Date.After(span.To) {
			span.To = g.Date
		}
	}
	return span, !span.IsZero()
}

// Cells exports use when a punch is absent.
var blankMarkers = map[string]struct{}{
	"-": {}, "--": {}, "---": {}, "NA": {}, "N/A": {}, "NIL": {}, "0": {}, "X": {},
}

// punchReader parses time cells for one format.
type punchReader struct {
	zeroIsBlank bool
}

// read parses a time cell against the given date. Blank cells and absence markers return
// ok false with an empty bad value; a cell with content that cannot be read returns it in bad.
func (p punchReader) read(date time.Time, raw string) (ts time.Time, ok bool, bad string) {
	s := cellvalue.Clean(raw)
	if s == "" {
		return time.Time{}, false, ""
	}
	if _, marker := blankMarkers[strings.ToUpper(s)]; marker {
		return time.Time{}, false, ""
	}
	if p.zeroIsBlank && cellvalue.IsZeroClock(s) {
		return time.Time{}, false, ""
	}
	ts, ok = cellvalue.NormalizeTime(date, s)
	if !ok {
		return time.Time{}, false, s
	}
	return ts, true, ""
}

// add appends a punch read from raw to the group.
func (p punchReader) add(group *attendance.DailyPunchGroup, dir attendance.Direction, date time.Time, raw string) {
	ts, ok, bad := p.read(date, raw)
	if bad != "" {
		group.Unparsed = append(group.Unparsed, bad)
	}
	if !ok {
		return
	}
	group.Events = append(group.Events, attendance.RawPunchEvent{
		SourceEmployeeID: group.SourceEmployeeID,
		EmployeeName:     group.EmployeeName,
		Timestamp:        ts,
		Direction:        dir,
	})
}

// dateForDay maps a day-of-month header to a date inside period. When the period crosses a
// month boundary, days at or after the start day belong to the first month.
func dateForDay(period attendance.DateRange, d int) (time.Time, bool) {
	y, m := period.From.Year(), period.From.Month()
	crossesMonth := period.From.Year() != period.To.Year() || period.From.Month() != period.To.Month()
	if crossesMonth && d < period.From.Day() {
		y, m = period.To.Year(), period.To.Month()
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// readTotal keeps the first printed hours value seen for a group.
func readTotal(dst *decimal.NullDecimal, raw string) {
	if dst.Valid {
		return
	}
	if h, ok := cellvalue.ParseHours(raw); ok {
		*dst = decimal.NewNullDecimal(h)
	}
}
