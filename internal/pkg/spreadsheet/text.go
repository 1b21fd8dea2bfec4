package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeUTF decodes UTF-16 (with BOM) or UTF-8 input, dropping a UTF-8 BOM.
func decodeUTF(data []byte) io.Reader {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return transform.NewReader(bytes.NewReader(data), decoder)
}

func readCSV(data []byte) (Grid, error) {
	decoded, err := io.ReadAll(decodeUTF(data))
	if err != nil {
		return Grid{}, fmt.Errorf("decode csv: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = detectDelimiter(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return Grid{}, fmt.Errorf("read csv: %w", err)
	}
	return Grid{Rows: rows, Kind: KindCSV}, nil
}

// detectDelimiter picks the most frequent of tab, semicolon and comma in the first lines.
func detectDelimiter(data []byte) rune {
	sample := data
	if len(sample) > 8192 {
		sample = sample[:8192]
	}
	best, bestCount := ',', 0
	for _, d := range []rune{'\t', ';', ','} {
		if n := bytes.Count(sample, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// Columns of text extracted from a PDF table are separated by tabs or runs of two or more
// spaces; single spaces stay inside a cell ("Ravi Kumar").
var textColumnSep = regexp.MustCompile(`\t+|\s{2,}`)

func readText(data []byte) (Grid, error) {
	scanner := bufio.NewScanner(decodeUTF(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var rows [][]string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \r")
		// Page breaks become blank rows so row indices stay stable.
		line = strings.ReplaceAll(line, "\f", "")
		if strings.TrimSpace(line) == "" {
			rows = append(rows, nil)
			continue
		}
		rows = append(rows, textColumnSep.Split(strings.TrimSpace(line), -1))
	}
	if err := scanner.Err(); err != nil {
		return Grid{}, fmt.Errorf("read text table: %w", err)
	}
	return Grid{Rows: rows, Kind: KindText}, nil
}
