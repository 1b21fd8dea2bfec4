package normalize

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/jszwec/csvutil"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const artifactSheet = "Attendance"

// CanonicalRow is one line of the import artifact, in importer column order.
type CanonicalRow struct {
	AttendanceDate string `csv:"Attendance Date"`
	Employee       string `csv:"Employee"`
	EmployeeName   string `csv:"Employee Name"`
	Status         string `csv:"Status"`
	InTime         string `csv:"In Time"`
	OutTime        string `csv:"Out Time"`
	Company        string `csv:"Company"`
	Branch         string `csv:"Branch"`
	WorkingHours   string `csv:"Working Hours"`
	Shift          string `csv:"Shift"`
	Overtime       string `csv:"Over Time"`
}

// ArtifactHeaders lists the artifact columns.
var ArtifactHeaders = []string{
	"Attendance Date", "Employee", "Employee Name", "Status", "In Time", "Out Time",
	"Company", "Branch", "Working Hours", "Shift", "Over Time",
}

// Zero-based artifact columns written as numbers.
const (
	hoursCol    = 8
	overtimeCol = 10
)

var artifactWidths = []float64{16, 14, 30, 14, 20, 20, 30, 20, 14, 8, 10}

// ToRow formats a record for the artifact. Blank values stay empty strings.
func ToRow(r attendance.AttendanceRecord) CanonicalRow {
	return CanonicalRow{
		AttendanceDate: r.AttendanceDate.Format(attendance.DateLayout),
		Employee:       r.Employee,
		EmployeeName:   r.EmployeeName,
		Status:         string(r.Status),
		InTime:         formatTime(r.InTime),
		OutTime:        formatTime(r.OutTime),
		Company:        r.Company,
		Branch:         r.Branch,
		WorkingHours:   formatHours(r.WorkingHours),
		Shift:          r.Shift,
		Overtime:       formatHours(r.Overtime),
	}
}

func (c CanonicalRow) values() []string {
	return []string{
		c.AttendanceDate, c.Employee, c.EmployeeName, c.Status, c.InTime, c.OutTime,
		c.Company, c.Branch, c.WorkingHours, c.Shift, c.Overtime,
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(attendance.DateTimeLayout)
}

func formatHours(h decimal.NullDecimal) string {
	if !h.Valid {
		return ""
	}
	return h.Decimal.String()
}

// numericHours keeps blank hours as empty cells.
func numericHours(h decimal.NullDecimal) interface{} {
	if !h.Valid {
		return nil
	}
	return h.Decimal.InexactFloat64()
}

// WriteXLSX renders records as the canonical workbook. The correlation id is stored in the
// workbook properties so an artifact can be traced back to its run.
func WriteXLSX(records []attendance.AttendanceRecord, correlationID string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", artifactSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeArtifactHeaders(f); err != nil {
		return nil, fmt.Errorf("write headers: %w", err)
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := ToRow(r).values()
		row := make([]interface{}, len(values))
		for j, v := range values {
			if v != "" {
				row[j] = v
			}
		}
		row[hoursCol] = numericHours(r.WorkingHours)
		row[overtimeCol] = numericHours(r.Overtime)
		if err := f.SetSheetRow(artifactSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	for col, w := range artifactWidths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(artifactSheet, name, name, w); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:      "Attendance import",
		Identifier: correlationID,
		Creator:    "attendance-normalizer",
	}); err != nil {
		return nil, fmt.Errorf("set properties: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func writeArtifactHeaders(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	for col, header := range ArtifactHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(artifactSheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(artifactSheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV renders records as CSV with the artifact headers.
func WriteCSV(records []attendance.AttendanceRecord) ([]byte, error) {
	rows := make([]CanonicalRow, len(records))
	for i, r := range records {
		rows[i] = ToRow(r)
	}
	b, err := csvutil.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("marshal csv: %w", err)
	}
	return b, nil
}
