package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
)

type htmlReader struct{}

func (htmlReader) CanRead(ext string) bool { return ext == ".html" || ext == ".htm" }

// Read takes the first <table>. Its first row is the header.
func (htmlReader) Read(name string, r io.Reader, _ Options) (*Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &apperrors.SourceError{Source: name, Reason: fmt.Sprintf("parse html: %v", err)}
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, &apperrors.SourceError{Source: name, Reason: "no <table> element"}
	}
	var tbl *Table
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.Closest("table").Get(0) != table.Get(0) {
			return
		}
		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, strings.Join(strings.Fields(cell.Text()), " "))
		})
		if len(cells) == 0 {
			return
		}
		if tbl == nil {
			tbl = &Table{Header: cells}
			return
		}
		tbl.Records = append(tbl.Records, cells)
	})
	if tbl == nil {
		return nil, &apperrors.SourceError{Source: name, Reason: "table has no rows"}
	}
	return tbl, nil
}
