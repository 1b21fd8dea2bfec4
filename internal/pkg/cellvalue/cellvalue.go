// Package cellvalue turns loosely typed spreadsheet cells into dates and times.
//
// Every parser returns (value, ok). A cell that cannot be interpreted yields ok == false and
// callers treat it as a missing punch, never as midnight or zero.
package cellvalue

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

const secondsPerDay = 86400

// Clean applies NFKC folding (non-breaking and full-width spaces become plain spaces) and
// collapses runs of whitespace, including embedded newlines.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFKC.String(raw)), " ")
}

var (
	clockRegex   = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{1,2})(?::(\d{1,2}))?(?:\.\d+)?(?:\s*([AP])\.?M\.?)?$`)
	dottedRegex  = regexp.MustCompile(`(?i)^(\d{1,2})\.(\d{1,2})(?:\s*([AP])\.?M\.?)?$`)
	dayNumRegex  = regexp.MustCompile(`^(\d{1,2})(?:\.0+)?(?:[\s\-/][A-Za-z]|\s|$)`)
	monthDotFix  = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)\.`)
	septFix      = regexp.MustCompile(`(?i)\bsept\b`)
	ordinalRegex = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
)

// NormalizeTime interprets raw as a time of day on dateRef's calendar date. Serials of one
// day or more and embedded datetimes carry their own date, which wins over dateRef.
func NormalizeTime(dateRef time.Time, raw string) (time.Time, bool) {
	s := Clean(raw)
	if s == "" {
		return time.Time{}, false
	}

	if h, m, sec, ok := parseClock(s); ok {
		return onDate(dateRef, h, m, sec), true
	}

	if h, m, ok := parseDotted(s); ok {
		return onDate(dateRef, h, m, 0), true
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromSerial(dateRef, f)
	}

	return parseDateTime(s)
}

// parseDotted reads "9.30", "00.45" and "0.30" as clock values. A single-digit zero hour
// with a single-digit fraction ("0.5") is left to the serial branch, as is "0.25", the raw
// serial of 06:00.
func parseDotted(s string) (h, m int, ok bool) {
	match := dottedRegex.FindStringSubmatch(s)
	if match == nil || s == "0.25" {
		return 0, 0, false
	}
	h, _ = strconv.Atoi(match[1])
	m, _ = strconv.Atoi(match[2])
	if h == 0 && len(match[1]) == 1 && len(match[2]) == 1 && match[3] == "" {
		return 0, 0, false
	}
	h, ok = to24(h, match[3])
	if !ok || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// fromSerial converts a spreadsheet serial. Hour and minute come from integer division of
// the rounded second count so 0.3958333 lands on 09:30, not 09:29.
func fromSerial(dateRef time.Time, f float64) (time.Time, bool) {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	// Whole numbers below a plausible date serial are counts, not times.
	if f >= 1 && (f < 20000 || f > 80000) {
		return time.Time{}, false
	}
	total := int64(math.Round(f * secondsPerDay))
	// 0.9999999 rounds up to a whole day; it still means the last second of its own day.
	if whole := int64(f); total >= (whole+1)*secondsPerDay {
		total = (whole+1)*secondsPerDay - 1
	}
	days := total / secondsPerDay
	rem := total % secondsPerDay
	h := int(rem / 3600)
	m := int(rem % 3600 / 60)
	sec := int(rem % 60)

	if days == 0 {
		return onDate(dateRef, h, m, sec), true
	}
	date, err := excelize.ExcelDateToTime(float64(days), false)
	if err != nil {
		return time.Time{}, false
	}
	return onDate(date, h, m, sec), true
}

// parseDateTime handles a date token followed by a clock, e.g. "03/07/2025 21:10".
func parseDateTime(s string) (time.Time, bool) {
	s = strings.Replace(s, "T", " ", 1)
	idx := strings.IndexByte(s, ' ')
	if idx <= 0 {
		return time.Time{}, false
	}
	date, ok := NormalizeDate(s[:idx])
	if !ok {
		return time.Time{}, false
	}
	h, m, sec, ok := parseClock(strings.TrimSpace(s[idx+1:]))
	if !ok {
		return time.Time{}, false
	}
	return onDate(date, h, m, sec), true
}

func parseClock(s string) (h, m, sec int, ok bool) {
	match := clockRegex.FindStringSubmatch(s)
	if match == nil {
		return 0, 0, 0, false
	}
	h, _ = strconv.Atoi(match[1])
	m, _ = strconv.Atoi(match[2])
	if match[3] != "" {
		sec, _ = strconv.Atoi(match[3])
	}
	h, ok = to24(h, match[4])
	if !ok || m > 59 || sec > 59 {
		return 0, 0, 0, false
	}
	return h, m, sec, true
}

// to24 converts a 12-hour clock value when a meridiem marker ("A" or "P") is present.
func to24(h int, meridiem string) (int, bool) {
	switch strings.ToUpper(meridiem) {
	case "":
		return h, h < 24
	case "A":
		if h < 1 || h > 12 {
			return 0, false
		}
		if h == 12 {
			return 0, true
		}
		return h, true
	case "P":
		if h < 1 || h > 12 {
			return 0, false
		}
		if h == 12 {
			return 12, true
		}
		return h + 12, true
	}
	return 0, false
}

func onDate(d time.Time, h, m, s int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, s, 0, time.UTC)
}

var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-1-2",
	"2006/1/2",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"January 2, 2006",
	"2-Jan-2006",
	"2 Jan 2006",
	"2-January-2006",
	"2 January 2006",
	"2-Jan-06",
	"2 Jan, 2006",
	"Mon 2 Jan 2006",
	"Monday, January 2, 2006",
}

// NormalizeDate parses a calendar date. Day-first numeric forms are assumed.
func NormalizeDate(raw string) (time.Time, bool) {
	s := prepareDate(raw)
	if s == "" {
		return time.Time{}, false
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		// Only plausible date serials (1954..2119); smaller numbers are day counts or hours.
		if f < 20000 || f > 80000 {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(math.Floor(f), false)
		if err != nil {
			return time.Time{}, false
		}
		return onDate(t, 0, 0, 0), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Trailing weekday or clock ("03/07/2025 Thu", "2025-07-03 00:00:00").
	if idx := strings.IndexByte(s, ' '); idx > 0 {
		head := s[:idx]
		for _, layout := range dateLayouts[:5] {
			if t, err := time.Parse(layout, head); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

var partialLayouts = []string{"2-Jan", "2 Jan", "Jan 2", "2-January", "2 January", "January 2"}

// NormalizeDateRef parses a date that may omit the year ("03-Jul"), taking it from ref.
func NormalizeDateRef(raw string, ref time.Time) (time.Time, bool) {
	if t, ok := NormalizeDate(raw); ok {
		return t, true
	}
	s := prepareDate(raw)
	for _, layout := range partialLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(ref.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func prepareDate(raw string) string {
	s := Clean(raw)
	if s == "" {
		return ""
	}
	s = monthDotFix.ReplaceAllString(s, "$1")
	s = septFix.ReplaceAllString(s, "Sep")
	s = ordinalRegex.ReplaceAllString(s, "$1")
	return s
}

// DayNumber reads a day-of-month header cell such as "5", "05", "21\nTue", "3 Mon" or "01-Jul".
func DayNumber(raw string) (int, bool) {
	m := dayNumRegex.FindStringSubmatch(Clean(raw))
	if m == nil {
		return 0, false
	}
	d, _ := strconv.Atoi(m[1])
	if d < 1 || d > 31 {
		return 0, false
	}
	return d, true
}

// IsZeroClock reports whether the cell reads as a 00:00 placeholder, in colon or dotted form.
func IsZeroClock(raw string) bool {
	s := Clean(raw)
	if h, m, sec, ok := parseClock(s); ok {
		return h == 0 && m == 0 && sec == 0
	}
	match := dottedRegex.FindStringSubmatch(s)
	return match != nil && match[3] == "" && strings.Trim(match[1]+match[2], "0") == ""
}

var durationRegex = regexp.MustCompile(`^(\d{1,3}):(\d{2})(?::(\d{2}))?$`)

var sixtyMinutes = decimal.NewFromInt(60)

// ParseHours reads a printed duration such as "8.5", "08:30" or a duration serial like
// "0.354166666" and returns it in hours, rounded to two places.
func ParseHours(raw string) (decimal.Decimal, bool) {
	s := Clean(raw)
	if s == "" {
		return decimal.Decimal{}, false
	}
	if m := durationRegex.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		sec, _ := strconv.Atoi(m[3])
		if min > 59 || sec > 59 {
			return decimal.Decimal{}, false
		}
		total := decimal.NewFromInt(int64(h)).
			Add(decimal.NewFromInt(int64(min)).Div(sixtyMinutes)).
			Add(decimal.NewFromInt(int64(sec)).Div(decimal.NewFromInt(3600)))
		return total.Round(2), true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	// Raw duration cells are day fractions with long tails; typed hour values are short.
	if _, frac, found := strings.Cut(s, "."); found && len(frac) > 4 && d.LessThan(decimal.NewFromInt(1)) {
		d = d.Mul(decimal.NewFromInt(24))
	}
	return d.Round(2), true
}
