// Package spreadsheet reads attendance exports of any supported container into a Grid.
package spreadsheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cmlabs-hris/attendance-normalizer-go/internal/pkg/cellvalue"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrEmpty       = errors.New("worksheet is empty")
	ErrUnsupported = errors.New("unsupported file type")
)

// MaxRows bounds how much of a legacy workbook is read.
const MaxRows = 100000

// Kind identifies the container a grid was read from.
type Kind string

const (
	KindXLSX Kind = "xlsx"
	KindXLS  Kind = "xls"
	KindHTML Kind = "html"
	KindCSV  Kind = "csv"
	KindText Kind = "text"
)

// Grid is a rectangular-ish view of one worksheet. Rows may have different lengths.
type Grid struct {
	Rows [][]string
	Kind Kind
}

// Cell returns the raw value at (r, c) or "" when out of bounds.
func (g Grid) Cell(r, c int) string {
	if r < 0 || r >= len(g.Rows) || c < 0 || c >= len(g.Rows[r]) {
		return ""
	}
	return g.Rows[r][c]
}

// Text returns the cleaned value at (r, c).
func (g Grid) Text(r, c int) string {
	return cellvalue.Clean(g.Cell(r, c))
}

// Row returns row r or nil when out of bounds.
func (g Grid) Row(r int) []string {
	if r < 0 || r >= len(g.Rows) {
		return nil
	}
	return g.Rows[r]
}

// RowText joins the non-empty cleaned cells of row r with single spaces.
func (g Grid) RowText(r int) string {
	var parts []string
	for _, v := range g.Row(r) {
		if s := cellvalue.Clean(v); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Len returns the number of rows.
func (g Grid) Len() int {
	return len(g.Rows)
}

// Width returns the length of the longest row.
func (g Grid) Width() int {
	w := 0
	for _, row := range g.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Read loads the first worksheet of an export. The container is sniffed from content first
// because many punch-clock systems save HTML or text under an .xls name.
func Read(r io.Reader, filename string) (Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Grid{}, fmt.Errorf("read upload: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Grid{}, ErrEmpty
	}

	var grid Grid
	switch kind := sniff(data, filename); kind {
	case KindHTML:
		grid, err = readHTML(data)
	case KindXLS:
		grid, err = readXLS(data)
	case KindXLSX:
		grid, err = readXLSX(data)
	case KindCSV:
		grid, err = readCSV(data)
	case KindText:
		grid, err = readText(data)
	default:
		return Grid{}, fmt.Errorf("%w %q", ErrUnsupported, filepath.Ext(filename))
	}
	if err != nil {
		return Grid{}, err
	}
	if grid.Len() == 0 {
		return Grid{}, ErrEmpty
	}
	return grid, nil
}

var (
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0}
	zipMagic = []byte("PK\x03\x04")
)

func sniff(data []byte, filename string) Kind {
	switch {
	case bytes.HasPrefix(data, oleMagic):
		return KindXLS
	case bytes.HasPrefix(data, zipMagic):
		return KindXLSX
	case looksLikeHTML(data):
		return KindHTML
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return KindCSV
	case ".txt":
		return KindText
	case ".xls":
		// Tab separated text saved as .xls.
		return KindCSV
	}
	return ""
}

func looksLikeHTML(data []byte) bool {
	head := data
	if len(head) > 4096 {
		head = head[:4096]
	}
	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("<table")) || bytes.Contains(lower, []byte("<html"))
}

func readXLSX(data []byte) (Grid, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Grid{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return Grid{}, fmt.Errorf("no worksheet found")
	}

	// Raw values keep time cells as fractional-day serials instead of locale formatted text.
	rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return Grid{}, fmt.Errorf("read sheet %s: %w", sheetName, err)
	}
	return Grid{Rows: rows, Kind: KindXLSX}, nil
}

func readXLS(data []byte) (Grid, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return Grid{}, fmt.Errorf("open xls: %w", err)
	}
	sheet := workbook.GetSheet(0)
	if sheet == nil {
		return Grid{}, fmt.Errorf("no worksheet found")
	}
	rows := collectRows(int(sheet.MaxRow), func(i int) []string { return xlsRow(sheet, i) }, MaxRows)
	return Grid{Rows: rows, Kind: KindXLS}, nil
}

// BIFF8 worksheets are at most 256 columns wide.
const xlsMaxCols = 256

// xlsRow returns the cells of row i, or nil when the sheet holds no record for it.
func xlsRow(sheet *xls.WorkSheet, i int) (cells []string) {
	// WorkSheet.Row dereferences a nil row for indexes the sheet never wrote.
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()
	row := sheet.Row(i)
	width := row.LastCol() + 1
	if width <= 1 {
		width = xlsMaxCols
	}
	cells = make([]string, width)
	for j := range cells {
		cells[j] = row.Col(j)
	}
	return cells
}

// collectRows reads rows 0..maxRow through row, trimming trailing empty cells and stopping at
// limit rows. Missing rows become empty rows so row indexes match the sheet.
func collectRows(maxRow int, row func(i int) []string, limit int) [][]string {
	n := maxRow + 1
	if n > limit {
		n = limit
	}
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		cells := row(i)
		end := len(cells)
		for end > 0 && strings.TrimSpace(cells[end-1]) == "" {
			end--
		}
		rows = append(rows, cells[:end])
	}
	return rows
}
