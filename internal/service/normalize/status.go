package normalize

import (
	"strings"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/cellvalue"
	"github.com/shopspring/decimal"
)

var (
	presentThreshold = decimal.NewFromFloat(7.0)
	halfDayThreshold = decimal.NewFromFloat(4.5)
	minimumOvertime  = decimal.NewFromInt(1)

	// DefaultStandardHours is the working day length overtime is measured against.
	DefaultStandardHours = decimal.NewFromInt(9)
)

// StatusTable maps a format's raw status tokens to canonical statuses. Tokens listed as
// skip drop the whole day.
type StatusTable struct {
	codes map[string]attendance.Status
	skip  map[string]struct{}
}

// NewStatusTable builds a table; keys go through the same cleaning as lookups.
func NewStatusTable(codes map[string]attendance.Status, skip ...string) StatusTable {
	t := StatusTable{
		codes: make(map[string]attendance.Status, len(codes)),
		skip:  make(map[string]struct{}, len(skip)),
	}
	for token, status := range codes {
		t.codes[tokenKey(token)] = status
	}
	for _, token := range skip {
		t.skip[tokenKey(token)] = struct{}{}
	}
	return t
}

// With returns a copy extended with more codes and skip tokens.
func (t StatusTable) With(codes map[string]attendance.Status, skip ...string) StatusTable {
	out := t.clone()
	for token, status := range codes {
		out.codes[tokenKey(token)] = status
	}
	for _, token := range skip {
		out.skip[tokenKey(token)] = struct{}{}
	}
	return out
}

// WithSkipStatuses returns a copy that also drops days whose token maps to one of statuses.
func (t StatusTable) WithSkipStatuses(statuses ...attendance.Status) StatusTable {
	out := t.clone()
	for token, status := range out.codes {
		for _, s := range statuses {
			if status == s {
				out.skip[token] = struct{}{}
			}
		}
	}
	return out
}

func (t StatusTable) clone() StatusTable {
	out := StatusTable{
		codes: make(map[string]attendance.Status, len(t.codes)),
		skip:  make(map[string]struct{}, len(t.skip)),
	}
	for k, v := range t.codes {
		out.codes[k] = v
	}
	for k := range t.skip {
		out.skip[k] = struct{}{}
	}
	return out
}

// Len returns the number of mapped and skipped tokens.
func (t StatusTable) Len() int {
	return len(t.codes) + len(t.skip)
}

func tokenKey(raw string) string {
	return strings.ToUpper(cellvalue.Clean(raw))
}

// StatusFromHours derives a status from worked hours: 7 or more is Present, 4.5 or more is
// Half Day, anything else (including no hours) is Absent.
func StatusFromHours(hours decimal.NullDecimal) attendance.Status {
	switch {
	case !hours.Valid:
		return attendance.StatusAbsent
	case hours.Decimal.GreaterThanOrEqual(presentThreshold):
		return attendance.StatusPresent
	case hours.Decimal.GreaterThanOrEqual(halfDayThreshold):
		return attendance.StatusHalfDay
	}
	return attendance.StatusAbsent
}

// StatusDecision is the outcome of reconciling a status token with computed hours.
type StatusDecision struct {
	Status attendance.Status
	// Skip drops the day from the output.
	Skip bool
	// Unknown marks a non-blank token the table does not know.
	Unknown bool
}

// ResolveStatus reconciles a source status token with the hours computed from punches.
// Leave, holiday and work-from-home codes stand on their own. Present, Absent and Half Day
// codes give way to the hours rule whenever hours exist.
func ResolveStatus(token string, hours decimal.NullDecimal, table StatusTable) StatusDecision {
	key := tokenKey(token)
	if key == "" {
		return StatusDecision{Status: StatusFromHours(hours)}
	}
	if _, skip := table.skip[key]; skip {
		return StatusDecision{Skip: true}
	}

	status, ok := table.codes[key]
	if !ok {
		return StatusDecision{Status: StatusFromHours(hours), Unknown: true}
	}
	if status.IsWorked() && hours.Valid {
		return StatusDecision{Status: StatusFromHours(hours)}
	}
	return StatusDecision{Status: status}
}

// Overtime returns hours beyond standard rounded to two places, blank when below one hour.
func Overtime(hours decimal.NullDecimal, standard decimal.Decimal) decimal.NullDecimal {
	if !hours.Valid {
		return decimal.NullDecimal{}
	}
	ot := hours.Decimal.Sub(standard).Round(2)
	if ot.LessThan(minimumOvertime) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(ot)
}
