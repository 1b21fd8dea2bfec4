package normalize

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/attendance"
	"github.com/jung-kurt/gofpdf"
)

// ReportInfo is the header of the unresolved-identifier report.
type ReportInfo struct {
	CorrelationID string
	Company       string
	Branch        string
	Format        string
	Period        attendance.DateRange
	GeneratedAt   time.Time
}

// WriteUnresolvedReport renders the identifiers the directory could not resolve, plus the
// run's anomaly counters, as a PDF for the people who maintain the directory.
func WriteUnresolvedReport(info ReportInfo, unresolved []string, summary attendance.Summary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Unresolved Employee Identifiers")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	for _, line := range []string{
		fmt.Sprintf("Company: %s", info.Company),
		fmt.Sprintf("Branch: %s (%s format)", info.Branch, info.Format),
		fmt.Sprintf("Period: %s", info.Period),
		fmt.Sprintf("Correlation ID: %s", info.CorrelationID),
	} {
		pdf.Cell(40, 8, tr(line))
		pdf.Ln(7)
	}
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(20, 10, "No.")
	pdf.Cell(120, 10, "Source identifier")
	pdf.Ln(10)

	pdf.SetFont("Arial", "", 11)
	if len(unresolved) == 0 {
		pdf.Cell(140, 8, "Every identifier was resolved.")
		pdf.Ln(8)
	}
	for i, id := range unresolved {
		pdf.Cell(20, 8, fmt.Sprintf("%d", i+1))
		pdf.Cell(120, 8, tr(id))
		pdf.Ln(8)
	}

	if len(summary.Anomalies) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(90, 10, "Row anomalies")
		pdf.Cell(40, 10, "Count")
		pdf.Ln(10)

		kinds := make([]string, 0, len(summary.Anomalies))
		for k := range summary.Anomalies {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)

		pdf.SetFont("Arial", "", 11)
		for _, k := range kinds {
			pdf.Cell(90, 8, k)
			pdf.Cell(40, 8, fmt.Sprintf("%d", summary.Anomalies[attendance.AnomalyKind(k)]))
			pdf.Ln(8)
		}
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 9)
	pdf.Cell(0, 10, fmt.Sprintf("Generated at: %s", info.GeneratedAt.Format("02 January 2006 15:04:05")))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render unresolved report: %w", err)
	}
	return buf.Bytes(), nil
}
