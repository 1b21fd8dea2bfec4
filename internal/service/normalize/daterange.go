package normalize

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
)

// ValidateRange returns the effective range for a run. Without a request the whole file
// span applies; a single bound takes the other from the file span. The result must lie
// within the file span.
func ValidateRange(file attendance.DateRange, from, to *time.Time) (attendance.DateRange, error) {
	effective := file
	if from != nil {
		effective.From = dayOf(*from)
	}
	if to != nil {
		effective.To = dayOf(*to)
	}
	if from == nil && to == nil {
		return effective, nil
	}

	if effective.From.After(effective.To) {
		return attendance.DateRange{}, &attendance.RangeError{
			Message: fmt.Sprintf("From Date (%s) cannot be after To Date (%s)",
				effective.From.Format(attendance.DateLayout), effective.To.Format(attendance.DateLayout)),
			File: file,
		}
	}
	if effective.From.Before(dayOf(file.From)) {
		return attendance.DateRange{}, &attendance.RangeError{
			Message: fmt.Sprintf("From Date (%s) is before the file's start date (%s)",
				effective.From.Format(attendance.DateLayout), file.From.Format(attendance.DateLayout)),
			File: file,
		}
	}
	if effective.To.After(dayOf(file.To)) {
		return attendance.DateRange{}, &attendance.RangeError{
			Message: fmt.Sprintf("To Date (%s) is after the file's end date (%s)",
				effective.To.Format(attendance.DateLayout), file.To.Format(attendance.DateLayout)),
			File: file,
		}
	}
	return effective, nil
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
