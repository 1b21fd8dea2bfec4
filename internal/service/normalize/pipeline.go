package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/spreadsheet"
	"github.com/shopspring/decimal"
)

// RunInput is one normalization run over an already read grid.
type RunInput struct {
	Grid          spreadsheet.Grid
	Format        Format
	Company       string
	Branch        string
	From          *time.Time
	To            *time.Time
	Resolver      *Resolver
	CorrelationID string
}

// Result is the output of a run.
type Result struct {
	Records    []attendance.AttendanceRecord
	FilePeriod attendance.DateRange
	Effective  attendance.DateRange
	Unresolved []string
	Summary    attendance.Summary
}

// Run parses the grid with the run's format and turns every non-empty employee-day inside
// the effective range into a canonical record, in source order. Structure and range
// problems abort the run; row problems are counted in the summary.
func Run(ctx context.Context, in RunInput) (Result, error) {
	if in.Format.Parser == nil {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownFormat, in.Format.Key)
	}
	resolver := in.Resolver
	if resolver == nil {
		resolver = NewResolver(nil)
	}

	parsed, err := in.Format.Parser.Parse(in.Grid)
	if err != nil {
		return Result{}, err
	}

	span, ok := parsed.Span()
	if !ok {
		return Result{}, &attendance.EmptyResultError{Branch: in.Branch}
	}
	effective, err := ValidateRange(span, in.From, in.To)
	if err != nil {
		return Result{}, err
	}

	res := Result{FilePeriod: span, Effective: effective}
	for _, a := range parsed.Anomalies {
		res.Summary.AddAnomaly(a)
	}

	for _, group := range parsed.Groups {
		if !effective.Contains(group.Date) {
			res.Summary.OutOfRange++
			continue
		}
		if group.IsEmpty() {
			res.Summary.SkippedEmpty++
			continue
		}

		record, skip := buildRecord(in, resolver, group, &res.Summary)
		if skip {
			res.Summary.SkippedStatus++
			continue
		}
		res.Records = append(res.Records, record)
	}

	res.Summary.Emitted = len(res.Records)
	res.Unresolved = resolver.Unresolved()

	slog.InfoContext(ctx, "attendance run finished",
		"correlation_id", in.CorrelationID,
		"branch", in.Branch,
		"format", in.Format.Key,
		"range", effective.String(),
		"rows", res.Summary.Emitted,
		"skipped", res.Summary.SkippedEmpty+res.Summary.SkippedStatus,
		"out_of_range", res.Summary.OutOfRange,
		"unresolved", len(res.Unresolved),
	)

	if len(res.Records) == 0 {
		return res, &attendance.EmptyResultError{Range: effective, Branch: in.Branch}
	}
	return res, nil
}

func buildRecord(in RunInput, resolver *Resolver, group attendance.DailyPunchGroup, summary *attendance.Summary) (attendance.AttendanceRecord, bool) {
	anomaly := func(kind attendance.AnomalyKind, detail string) {
		summary.AddAnomaly(attendance.RowAnomaly{
			Kind:     kind,
			Row:      group.Row,
			SourceID: group.SourceEmployeeID,
			Detail:   detail,
		})
	}

	for _, raw := range group.Unparsed {
		anomaly(attendance.AnomalyUnparseableTime, fmt.Sprintf("%s: %q", group.Date.Format(attendance.DateLayout), raw))
	}

	interval := Consolidate(group, in.Format.Policy)
	for _, a := range interval.Anomalies {
		anomaly(a.Kind, fmt.Sprintf("%s: %s", group.Date.Format(attendance.DateLayout), a.Detail))
	}

	decision := ResolveStatus(group.StatusToken, interval.Hours, in.Format.Statuses)
	if decision.Skip {
		return attendance.AttendanceRecord{}, true
	}
	if decision.Unknown {
		anomaly(attendance.AnomalyUnknownStatus, group.StatusToken)
	}

	shift := ResolveShift(in.Format.ShiftPolicy, group.SourceShift, interval.FirstIn)
	overtime := Overtime(interval.Hours, in.Format.StandardFor(shift))

	if interval.Hours.Valid {
		day := group.Date.Format(attendance.DateLayout)
		if src := group.SourceHours; src.Valid && !withinTolerance(src.Decimal, interval.Hours.Decimal) {
			anomaly(attendance.AnomalyHoursMismatch, fmt.Sprintf("%s: source %s h, computed %s h",
				day, src.Decimal.StringFixed(2), interval.Hours.Decimal.StringFixed(2)))
		}
		if src := group.SourceOvertime; src.Valid && !withinTolerance(src.Decimal, overtime.Decimal) {
			anomaly(attendance.AnomalyOvertimeMismatch, fmt.Sprintf("%s: source %s h, computed %s h",
				day, src.Decimal.StringFixed(2), overtime.Decimal.StringFixed(2)))
		}
	}

	name := group.EmployeeName
	employee := ""
	if entry, ok := resolver.Lookup(group.SourceEmployeeID); ok {
		employee = entry.EmployeeID
		if name == "" {
			name = entry.DisplayName
		}
	} else if group.SourceEmployeeID != "" {
		anomaly(attendance.AnomalyUnresolvedID, group.SourceEmployeeID)
	}

	return attendance.AttendanceRecord{
		AttendanceDate:   group.Date,
		Employee:         employee,
		EmployeeName:     name,
		Status:           decision.Status,
		InTime:           interval.FirstIn,
		OutTime:          interval.LastOut,
		WorkingHours:     interval.Hours,
		Shift:            shift,
		Overtime:         overtime,
		Company:          in.Company,
		Branch:           in.Branch,
		SourceEmployeeID: group.SourceEmployeeID,
		CorrelationID:    in.CorrelationID,
	}, false
}

// sourceTolerance absorbs minute rounding in printed totals.
var sourceTolerance = decimal.RequireFromString("0.05")

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(sourceTolerance)
}
