package attendance

import (
	"errors"
	"fmt"
	"strings"
)

// Attendance normalization errors
var (
	// Fatal, whole-file errors
	ErrStructureNotRecognized = errors.New("structure not recognized")
	ErrMissingColumn          = errors.New("required column missing")
	ErrInvalidRange           = errors.New("invalid date range")
	ErrEmptyResult            = errors.New("no attendance records produced")

	// Input errors
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("file is empty")
	ErrImportNotFound  = errors.New("attendance import not found")
)

// StructuralError reports that a header, day row or employee block could not be located.
type StructuralError struct {
	Format string
	What   string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s: could not locate %s", ErrStructureNotRecognized, e.Format, e.What)
}

func (e *StructuralError) Unwrap() error { return ErrStructureNotRecognized }

// FormatError reports required columns that are absent from the header row.
type FormatError struct {
	Format  string
	Missing []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrMissingColumn, e.Format, strings.Join(e.Missing, ", "))
}

func (e *FormatError) Unwrap() error { return ErrMissingColumn }

// RangeError reports a requested date range that is malformed or outside the file span.
type RangeError struct {
	Message string
	File    DateRange
}

func (e *RangeError) Error() string {
	if e.File.IsZero() {
		return fmt.Sprintf("%s: %s", ErrInvalidRange, e.Message)
	}
	return fmt.Sprintf("%s: %s. File contains data from %s", ErrInvalidRange, e.Message, e.File)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// EmptyResultError reports a run that produced zero records.
type EmptyResultError struct {
	Range  DateRange
	Branch string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf(
		"%s for the selected date range (%s); check that the file matches branch %q and that the format is correct",
		ErrEmptyResult, e.Range, e.Branch,
	)
}

func (e *EmptyResultError) Unwrap() error { return ErrEmptyResult }

// RowAnomaly is a non-fatal problem with a single row or day. The row is still emitted.
type RowAnomaly struct {
	Kind     AnomalyKind
	Row      int
	SourceID string
	Detail   string
}

type AnomalyKind string

const (
	AnomalyUnparseableTime   AnomalyKind = "unparseable_time"
	AnomalyUnresolvedID      AnomalyKind = "unresolved_employee"
	AnomalyInconsistentPunch AnomalyKind = "inconsistent_punch"
	AnomalyUnknownStatus     AnomalyKind = "unknown_status"
	AnomalyMultiMidnight     AnomalyKind = "multi_midnight_span"
	AnomalyHoursMismatch     AnomalyKind = "hours_mismatch"
	AnomalyOvertimeMismatch  AnomalyKind = "overtime_mismatch"
)
