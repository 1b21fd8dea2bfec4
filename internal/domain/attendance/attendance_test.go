package attendance

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRange_Contains(t *testing.T) {
	t.Parallel()

	r := DateRange{From: day(1), To: day(31)}

	assert.True(t, r.Contains(day(1)))
	assert.True(t, r.Contains(day(31).Add(23*time.Hour)), "time of day is ignored")
	assert.False(t, r.Contains(day(1).Add(-time.Minute)))
	assert.Equal(t, "2025-07-01 to 2025-07-31", r.String())
	assert.True(t, DateRange{}.IsZero())
}

func TestErrors_WrapSentinels(t *testing.T) {
	t.Parallel()

	rangeErr := &RangeError{Message: "from_date is before the file", File: DateRange{From: day(1), To: day(31)}}
	assert.ErrorIs(t, rangeErr, ErrInvalidRange)
	assert.Contains(t, rangeErr.Error(), "File contains data from 2025-07-01 to 2025-07-31")

	formatErr := &FormatError{Format: "punch-log", Missing: []string{"date", "time"}}
	assert.ErrorIs(t, formatErr, ErrMissingColumn)
	assert.Contains(t, formatErr.Error(), "date, time")

	assert.ErrorIs(t, &StructuralError{Format: "crystal", What: "period line"}, ErrStructureNotRecognized)

	empty := &EmptyResultError{Range: DateRange{From: day(1), To: day(2)}, Branch: "Lanjigarh"}
	assert.ErrorIs(t, empty, ErrEmptyResult)
	assert.Contains(t, empty.Error(), `branch "Lanjigarh"`)
}

func TestSummary_AddAnomalyKeepsBoundedSamples(t *testing.T) {
	t.Parallel()

	var s Summary
	for i := 0; i < maxAnomalySamples+5; i++ {
		s.AddAnomaly(RowAnomaly{Kind: AnomalyUnparseableTime, Row: i})
	}
	s.AddAnomaly(RowAnomaly{Kind: AnomalyUnknownStatus})

	assert.Equal(t, maxAnomalySamples+5, s.Anomalies[AnomalyUnparseableTime])
	assert.Len(t, s.Samples[AnomalyUnparseableTime], maxAnomalySamples)
	assert.Equal(t, 1, s.Anomalies[AnomalyUnknownStatus])
}

func TestImportStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, ImportStatusQueued.IsTerminal())
	assert.False(t, ImportStatusRunning.IsTerminal())
	assert.True(t, ImportStatusCompleted.IsTerminal())
	assert.True(t, ImportStatusFailed.IsTerminal())
	assert.True(t, ImportStatusCancelled.IsTerminal())
}

func TestNormalizeRequest_Validate(t *testing.T) {
	t.Parallel()

	valid := func() NormalizeRequest {
		return NormalizeRequest{
			Company:  "ACME Works",
			Branch:   "Lanjigarh",
			Filename: "july.XLSX",
			File:     strings.NewReader("x"),
			FromDate: "2025-07-01",
			ToDate:   "2025-07-15",
		}
	}

	tests := []struct {
		name   string
		mutate func(r *NormalizeRequest)
		field  string
	}{
		{"missing company", func(r *NormalizeRequest) { r.Company = "" }, "company"},
		{"missing branch", func(r *NormalizeRequest) { r.Branch = " " }, "branch"},
		{"missing file", func(r *NormalizeRequest) { r.File = nil }, "file"},
		{"unsupported type", func(r *NormalizeRequest) { r.Filename = "july.pdf" }, "file"},
		{"too large", func(r *NormalizeRequest) { r.Size = MaxUploadSize + 1 }, "file"},
		{"bad from date", func(r *NormalizeRequest) { r.FromDate = "01/07/2025" }, "from_date"},
		{"bad to date", func(r *NormalizeRequest) { r.ToDate = "2025-07-32" }, "to_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)

			err := req.Validate()

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Contains(t, verrs.ToMap(), tt.field)
		})
	}

	t.Run("valid request parses dates", func(t *testing.T) {
		req := valid()

		require.NoError(t, req.Validate())
		require.NotNil(t, req.From)
		require.NotNil(t, req.To)
		assert.Equal(t, day(1), *req.From)
		assert.Equal(t, day(15), *req.To)
	})
}
