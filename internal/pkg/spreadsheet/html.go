package spreadsheet

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// readHTML flattens every <tr> of the document into grid rows. Cells spanning several
// columns are padded with blanks so later columns keep their positions.
func readHTML(data []byte) (Grid, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return Grid{}, fmt.Errorf("parse html table: %w", err)
	}

	rows := doc.Find("table tr")
	if rows.Length() == 0 {
		return Grid{}, fmt.Errorf("could not find table rows")
	}

	out := make([][]string, 0, rows.Length())
	rows.Each(func(_ int, row *goquery.Selection) {
		// Rows wrapping a nested table are layout, the nested rows are visited on their own.
		if row.Find("table").Length() > 0 {
			return
		}
		var cells []string
		row.ChildrenFiltered("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cellText(cell))
			span, err := strconv.Atoi(strings.TrimSpace(cell.AttrOr("colspan", "1")))
			if err != nil || span < 1 {
				span = 1
			}
			for i := 1; i < span; i++ {
				cells = append(cells, "")
			}
		})
		out = append(out, cells)
	})
	return Grid{Rows: out, Kind: KindHTML}, nil
}

// cellText keeps <br> separated lines apart ("21<br>Tue" becomes "21\nTue").
func cellText(cell *goquery.Selection) string {
	cell.Find("br").ReplaceWithHtml("\n")
	return strings.TrimSpace(cell.Text())
}
