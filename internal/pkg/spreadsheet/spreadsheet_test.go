package spreadsheet

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/cellvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRead_XLSXKeepsRawSerials(t *testing.T) {
	t.Parallel()

	// Arrange
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Emp Code"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "In Time"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "00123"))
	require.NoError(t, f.SetCellValue(sheet, "B2", 0.3958333333333333))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	// Act
	grid, err := Read(bytes.NewReader(buf.Bytes()), "export.xlsx")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, KindXLSX, grid.Kind)
	assert.Equal(t, "Emp Code", grid.Cell(0, 0))
	assert.Equal(t, "00123", grid.Cell(1, 0))
	in, ok := cellvalue.NormalizeTime(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), grid.Cell(1, 1))
	require.True(t, ok)
	assert.Equal(t, 9, in.Hour())
	assert.Equal(t, 30, in.Minute())
}

func TestRead_HTMLSavedAsXLS(t *testing.T) {
	t.Parallel()

	html := `<html><body><table border="1">
<tr><th colspan="2">Employee</th><th>IN 1</th><th>OUT 1</th></tr>
<tr><td>E01</td><td>Ravi&nbsp;Kumar</td><td>08:58</td><td>18:10</td></tr>
<tr><td>Day</td><td>21<br>Tue</td></tr>
</table></body></html>`

	grid, err := Read(strings.NewReader(html), "report.xls")

	require.NoError(t, err)
	assert.Equal(t, KindHTML, grid.Kind)
	require.Equal(t, 3, grid.Len())
	assert.Equal(t, []string{"Employee", "", "IN 1", "OUT 1"}, grid.Row(0))
	assert.Equal(t, "Ravi Kumar", grid.Text(1, 1))
	assert.Equal(t, "21\nTue", grid.Cell(2, 1))
}

func TestRead_CSVWithBOMAndSemicolons(t *testing.T) {
	t.Parallel()

	data := "\ufeffEmp Code;Name;Date\n0042;Asha;03/07/2025\n"

	grid, err := Read(strings.NewReader(data), "punches.csv")

	require.NoError(t, err)
	assert.Equal(t, KindCSV, grid.Kind)
	assert.Equal(t, "Emp Code", grid.Cell(0, 0))
	assert.Equal(t, "03/07/2025", grid.Cell(1, 2))
}

func TestRead_TabSeparatedXLS(t *testing.T) {
	t.Parallel()

	grid, err := Read(strings.NewReader("Code\tName\n1\tA\n"), "legacy.xls")

	require.NoError(t, err)
	assert.Equal(t, KindCSV, grid.Kind)
	assert.Equal(t, "Name", grid.Cell(0, 1))
}

func TestRead_PDFText(t *testing.T) {
	t.Parallel()

	text := "ATTENDANCE REGISTER\n\nEmp Code   Employee Name   Date         In Time  Out Time\n" +
		"1001       Ravi Kumar      03/07/2025   08:58    18:10\n"

	grid, err := Read(strings.NewReader(text), "register.txt")

	require.NoError(t, err)
	assert.Equal(t, KindText, grid.Kind)
	assert.Nil(t, grid.Row(1))
	assert.Equal(t, []string{"Emp Code", "Employee Name", "Date", "In Time", "Out Time"}, grid.Row(2))
	assert.Equal(t, "Ravi Kumar", grid.Cell(3, 1))
}

func TestRead_Errors(t *testing.T) {
	t.Parallel()

	_, err := Read(strings.NewReader("   "), "empty.csv")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Read(strings.NewReader("hello"), "notes.docx")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestGrid_Accessors(t *testing.T) {
	g := Grid{Rows: [][]string{{"a", " b c "}, {}, {"x", "", "z"}}}

	assert.Equal(t, "", g.Cell(5, 0))
	assert.Equal(t, "", g.Cell(0, 9))
	assert.Equal(t, "b c", g.Text(0, 1))
	assert.Equal(t, "x z", g.RowText(2))
	assert.Equal(t, 3, g.Width())
	assert.Equal(t, 3, g.Len())
}

func TestCollectRows(t *testing.T) {
	t.Parallel()

	sheet := map[int][]string{
		0: {"Emp Code", "Name", "", ""},
		2: {"1001", "Budi", "08:58"},
	}
	read := func(i int) []string { return sheet[i] }

	cases := []struct {
		name   string
		maxRow int
		limit  int
		want   [][]string
	}{
		{
			name:   "gaps stay as empty rows",
			maxRow: 2,
			limit:  MaxRows,
			want:   [][]string{{"Emp Code", "Name"}, nil, {"1001", "Budi", "08:58"}},
		},
		{
			name:   "limit caps the row count",
			maxRow: 2,
			limit:  1,
			want:   [][]string{{"Emp Code", "Name"}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			got := collectRows(c.maxRow, read, c.limit)

			assert.Equal(t, c.want, got)
		})
	}
}
