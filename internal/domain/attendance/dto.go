package attendance

import (
	"io"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/validator"
)

// ========================================
// NORMALIZATION DTOs
// ========================================

// SupportedExtensions lists the upload types the spreadsheet reader understands.
var SupportedExtensions = []string{".xlsx", ".xlsm", ".xls", ".htm", ".html", ".csv", ".txt"}

const MaxUploadSize = 20 << 20

type NormalizeRequest struct {
	Company  string    `json:"company"`
	Branch   string    `json:"branch"`
	FromDate string    `json:"from_date"`
	ToDate   string    `json:"to_date"`
	Filename string    `json:"-"`
	File     io.Reader `json:"-"`
	Size     int64     `json:"-"`

	// Parsed by Validate.
	From *time.Time `json:"-"`
	To   *time.Time `json:"-"`
}

func (r *NormalizeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Company) {
		errs.Add("company", "company is required")
	}
	if validator.IsEmpty(r.Branch) {
		errs.Add("branch", "branch is required")
	}

	switch {
	case r.File == nil || validator.IsEmpty(r.Filename):
		errs.Add("file", "attendance file is required")
	case !validator.HasExtension(r.Filename, SupportedExtensions):
		errs.Add("file", "invalid file type: only xlsx, xls, html, csv, txt allowed")
	case r.Size > MaxUploadSize:
		errs.Add("file", "file size must not exceed 20MB")
	}

	if !validator.IsEmpty(r.FromDate) {
		if d, ok := validator.ParseDate(r.FromDate); ok {
			r.From = &d
		} else {
			errs.Add("from_date", "from_date must be in YYYY-MM-DD format")
		}
	}
	if !validator.IsEmpty(r.ToDate) {
		if d, ok := validator.ParseDate(r.ToDate); ok {
			r.To = &d
		} else {
			errs.Add("to_date", "to_date must be in YYYY-MM-DD format")
		}
	}

	return errs.Err()
}

// Summary aggregates row-level outcomes of a run.
type Summary struct {
	Emitted       int                          `json:"emitted"`
	SkippedEmpty  int                          `json:"skipped_empty"`
	SkippedStatus int                          `json:"skipped_status"`
	OutOfRange    int                          `json:"out_of_range"`
	Anomalies     map[AnomalyKind]int          `json:"anomalies,omitempty"`
	Samples       map[AnomalyKind][]RowAnomaly `json:"samples,omitempty"`
}

const maxAnomalySamples = 20

// AddAnomaly counts an anomaly and keeps a bounded sample of it.
func (s *Summary) AddAnomaly(a RowAnomaly) {
	if s.Anomalies == nil {
		s.Anomalies = make(map[AnomalyKind]int)
		s.Samples = make(map[AnomalyKind][]RowAnomaly)
	}
	s.Anomalies[a.Kind]++
	if len(s.Samples[a.Kind]) < maxAnomalySamples {
		s.Samples[a.Kind] = append(s.Samples[a.Kind], a)
	}
}

type NormalizeResponse struct {
	CorrelationID string   `json:"correlation_id"`
	Format        string   `json:"format"`
	FilePeriod    string   `json:"file_period"`
	Processed     string   `json:"processed_period"`
	Records       int      `json:"records"`
	ArtifactURL   string   `json:"artifact_url"`
	CSVURL        string   `json:"csv_url,omitempty"`
	ReportURL     string   `json:"unresolved_report_url,omitempty"`
	Unresolved    []string `json:"unresolved_ids"`
	Summary       Summary  `json:"summary"`
}

type ImportResponse struct {
	CorrelationID string    `json:"correlation_id"`
	Company       string    `json:"company"`
	Branch        string    `json:"branch"`
	Format        string    `json:"format"`
	ArtifactPath  string    `json:"artifact_path"`
	ArtifactURL   string    `json:"artifact_url,omitempty"`
	Status        string    `json:"status"`
	TotalRows     int       `json:"total_rows"`
	ProcessedRows int       `json:"processed_rows"`
	FailedRows    int       `json:"failed_rows"`
	Unresolved    []string  `json:"unresolved_ids"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type FormatInfo struct {
	Key         string   `json:"key"`
	Layout      string   `json:"layout"`
	Policy      string   `json:"consolidation_policy"`
	ShiftPolicy string   `json:"shift_policy"`
	Branches    []string `json:"branches"`
	Default     bool     `json:"default"`
}
