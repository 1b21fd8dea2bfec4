package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the canonical attendance status written to the import artifact.
type Status string

const (
	StatusPresent      Status = "Present"
	StatusAbsent       Status = "Absent"
	StatusHalfDay      Status = "Half Day"
	StatusHoliday      Status = "Holiday"
	StatusOnLeave      Status = "On Leave"
	StatusWorkFromHome Status = "Work From Home"
)

// IsWorked reports whether the status is derived from punches (Present, Half Day, Absent)
// rather than from a leave or holiday code.
func (s Status) IsWorked() bool {
	return s == StatusPresent || s == StatusHalfDay || s == StatusAbsent
}

// Direction of a single punch.
type Direction string

const (
	DirectionIn      Direction = "IN"
	DirectionOut     Direction = "OUT"
	DirectionUnknown Direction = "UNKNOWN"
)

// RawPunchEvent is one check-in or check-out read from a source file.
type RawPunchEvent struct {
	SourceEmployeeID string
	EmployeeName     string
	Timestamp        time.Time
	Direction        Direction
}

// DailyPunchGroup holds everything a parser found for one employee on one source date.
// Events keep the date printed in the source; overnight adjustment happens later.
type DailyPunchGroup struct {
	SourceEmployeeID string
	EmployeeName     string
	Date             time.Time
	Events           []RawPunchEvent
	StatusToken      string
	SourceShift      string
	// Unparsed keeps time cells that had content but could not be read.
	Unparsed []string
	// Row is the 1-based sheet row the group was read from, used in anomaly samples.
	Row int
	// SourceHours and SourceOvertime are the day totals the export printed, if any.
	SourceHours    decimal.NullDecimal
	SourceOvertime decimal.NullDecimal
}

// IsEmpty reports whether the group carries no attendance signal at all.
func (g DailyPunchGroup) IsEmpty() bool {
	return len(g.Events) == 0 && len(g.Unparsed) == 0 && g.StatusToken == ""
}

// AttendanceRecord is the canonical output row handed to the bulk importer.
type AttendanceRecord struct {
	AttendanceDate   time.Time
	Employee         string
	EmployeeName     string
	Status           Status
	InTime           *time.Time
	OutTime          *time.Time
	WorkingHours     decimal.NullDecimal
	Shift            string
	Overtime         decimal.NullDecimal
	Company          string
	Branch           string
	SourceEmployeeID string
	CorrelationID    string
}

// ShiftWindow is an inclusive range of punch-in hours attributed to a shift code.
type ShiftWindow struct {
	Code      string
	StartHour int
	EndHour   int
}

// Center returns the midpoint hour of the window.
func (w ShiftWindow) Center() int {
	return (w.StartHour + w.EndHour) / 2
}

// Contains reports whether hour falls inside the window.
func (w ShiftWindow) Contains(hour int) bool {
	return hour >= w.StartHour && hour <= w.EndHour
}

// DateRange is an inclusive calendar range.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether d falls inside the range, ignoring the time of day.
func (r DateRange) Contains(d time.Time) bool {
	day := truncateDay(d)
	return !day.Before(truncateDay(r.From)) && !day.After(truncateDay(r.To))
}

// IsZero reports whether the range was never set.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

func (r DateRange) String() string {
	return r.From.Format(DateLayout) + " to " + r.To.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// ImportStatus tracks a hand-off to the external bulk importer.
type ImportStatus string

const (
	ImportStatusQueued    ImportStatus = "queued"
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusCompleted ImportStatus = "completed"
	ImportStatusFailed    ImportStatus = "failed"
	ImportStatusCancelled ImportStatus = "cancelled"
)

// IsTerminal reports whether the importer will not touch the job again.
func (s ImportStatus) IsTerminal() bool {
	return s == ImportStatusCompleted || s == ImportStatusFailed || s == ImportStatusCancelled
}

// ImportJob references a canonical artifact handed to the importer. Records created from
// it are stamped with CorrelationID.
type ImportJob struct {
	CorrelationID string
	Company       string
	Branch        string
	Format        string
	ArtifactPath  string
	Status        ImportStatus
	TotalRows     int
	ProcessedRows int
	FailedRows    int
	Unresolved    []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
