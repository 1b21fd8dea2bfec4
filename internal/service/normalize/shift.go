package normalize

import (
	"regexp"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/cellvalue"
)

// ShiftPolicy decides whether a shift code printed in the source is used as is.
type ShiftPolicy string

const (
	ShiftRecompute   ShiftPolicy = "recompute"
	ShiftTrustSource ShiftPolicy = "trust_source"
)

// ShiftWindows is the static shift table, in tie-break order.
var ShiftWindows = []attendance.ShiftWindow{
	{Code: "A", StartHour: 5, EndHour: 7},
	{Code: "G", StartHour: 8, EndHour: 10},
	{Code: "B", StartHour: 13, EndHour: 15},
	{Code: "C", StartHour: 21, EndHour: 23},
}

// ClassifyShift assigns a shift code from the punch-in hour. Hours outside every window go
// to the window whose center is nearest on the 24 hour clock; ties keep table order.
func ClassifyShift(firstIn *time.Time) string {
	if firstIn == nil {
		return ""
	}
	return classifyHour(firstIn.Hour())
}

func classifyHour(hour int) string {
	for _, w := range ShiftWindows {
		if w.Contains(hour) {
			return w.Code
		}
	}

	best, bestDist := "", 25
	for _, w := range ShiftWindows {
		if d := circularDistance(hour, w.Center()); d < bestDist {
			best, bestDist = w.Code, d
		}
	}
	return best
}

func circularDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if 24-d < d {
		return 24 - d
	}
	return d
}

var shiftPrefix = regexp.MustCompile(`^(?:SHIFT|SHFT|SH)[\s\-:]*`)

// NormalizeShiftCode maps a source shift label ("Shift A", "a", "GEN", "General") to a
// canonical code.
func NormalizeShiftCode(raw string) (string, bool) {
	s := strings.ToUpper(cellvalue.Clean(raw))
	s = strings.TrimSpace(shiftPrefix.ReplaceAllString(s, ""))
	switch s {
	case "GEN", "GENERAL", "GS", "G":
		return "G", true
	case "A", "B", "C":
		return s, true
	}
	return "", false
}

// ResolveShift applies the format's shift policy. A trusted source code that is blank or
// unknown falls back to the punch-in classification.
func ResolveShift(policy ShiftPolicy, source string, firstIn *time.Time) string {
	if policy == ShiftTrustSource {
		if code, ok := NormalizeShiftCode(source); ok {
			return code
		}
	}
	return ClassifyShift(firstIn)
}
