package ingest_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadFileCSV(t *testing.T) {
	p := writeFile(t, "sales.csv", "Month,Revenue,Region\nJan,100,East\nFeb,\"1,250.5\",West\nMar,,North\n")
	ds, err := ingest.LoadFile(p, ingest.DefaultOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Source != "sales.csv" || ds.RowCount() != 3 {
		t.Fatalf("unexpected dataset: source=%q rows=%d", ds.Source, ds.RowCount())
	}
	if got := strings.Join(ds.Columns, "|"); got != "Month|Revenue|Region" {
		t.Fatalf("columns: %s", got)
	}
	if f, ok := ds.Rows[1].Get("Revenue").Number(); !ok || f != 1250.5 {
		t.Fatalf("expected 1250.5, got %v (ok=%v)", f, ok)
	}
	if !ds.Rows[2].Get("Revenue").IsNull() {
		t.Fatalf("empty cell should be absent")
	}
	if !ds.Rows[0].Get("Month").IsString() {
		t.Fatalf("Month should stay text")
	}
}

func TestLoadHeaderNormalization(t *testing.T) {
	p := writeFile(t, "dupes.csv", "\ufeffname,,name,name\na,b,c,d\n")
	ds, err := ingest.LoadFile(p, ingest.DefaultOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := "name|Column 2|name_2|name_3"
	if got := strings.Join(ds.Columns, "|"); got != want {
		t.Fatalf("columns: got %s want %s", got, want)
	}
}

func TestLoadTSVAndSniffedTXT(t *testing.T) {
	tsv := writeFile(t, "a.tsv", "x\ty\n1\t2\n")
	ds, err := ingest.LoadFile(tsv, ingest.DefaultOptions())
	if err != nil || ds.ColumnCount() != 2 {
		t.Fatalf("tsv: ds=%v err=%v", ds, err)
	}

	txt := writeFile(t, "b.txt", "city;temp\nOslo;3,5\nRome;18\n")
	ds, err = ingest.LoadFile(txt, ingest.DefaultOptions())
	if err != nil {
		t.Fatalf("txt: %v", err)
	}
	if f, ok := ds.Rows[0].Get("temp").Number(); !ok || f != 3.5 {
		t.Fatalf("expected decimal comma 3.5, got %v", f)
	}
}

func TestLoadRejections(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		content string
		opt     ingest.Options
		reason  string
	}{
		{"extension", "data.json", `{"a":1}`, ingest.DefaultOptions(), "not allowed"},
		{"size", "big.csv", "a,b\n1,2\n3,4\n", ingest.Options{MaxBytes: 8}, "larger than the 8 B limit"},
		{"empty", "empty.csv", "", ingest.DefaultOptions(), "no header row"},
		{"header only", "head.csv", "a,b\n", ingest.DefaultOptions(), "no data rows"},
		{"blank rows", "blank.csv", "a,b\n,\n , \n", ingest.DefaultOptions(), "no data rows"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := writeFile(t, tc.file, tc.content)
			_, err := ingest.LoadFile(p, tc.opt)
			if !errors.Is(err, apperrors.ErrMalformedSource) {
				t.Fatalf("expected malformed source, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.reason) {
				t.Fatalf("error %q does not mention %q", err, tc.reason)
			}
		})
	}
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet("Data"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	rows := [][]interface{}{
		{"Product", "Units", "Revenue"},
		{"Widget", 10, 99.5},
		{"Gadget", 4, 400},
	}
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Data", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	p := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatalf("save: %v", err)
	}

	opt := ingest.DefaultOptions()
	opt.Sheet = "Data"
	ds, err := ingest.LoadFile(p, opt)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.RowCount() != 2 || ds.Rows[1].Get("Product").String() != "Gadget" {
		t.Fatalf("unexpected rows: %+v", ds.Rows)
	}
	if v, ok := ds.Rows[0].Get("Revenue").Number(); !ok || v != 99.5 {
		t.Fatalf("revenue: %v %v", v, ok)
	}

	opt.Sheet = "Missing"
	if _, err := ingest.LoadFile(p, opt); !errors.Is(err, apperrors.ErrMalformedSource) {
		t.Fatalf("expected malformed source for missing sheet, got %v", err)
	}
}

func TestLoadHTMLTable(t *testing.T) {
	html := `<html><body><p>intro</p>
<table>
  <thead><tr><th>Country</th><th>Population</th></tr></thead>
  <tbody>
    <tr><td>France</td><td>68,000,000</td></tr>
    <tr><td>Norway</td><td> 5,500,000 </td></tr>
  </tbody>
</table>
<table><tr><th>Other</th></tr><tr><td>ignored</td></tr></table>
</body></html>`
	ds, err := ingest.Load("countries.html", strings.NewReader(html), ingest.DefaultOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := strings.Join(ds.Columns, "|"); got != "Country|Population" {
		t.Fatalf("columns: %s", got)
	}
	if v, ok := ds.Rows[1].Get("Population").Number(); !ok || v != 5500000 {
		t.Fatalf("population: %v %v", v, ok)
	}

	_, err = ingest.Load("none.html", strings.NewReader("<p>no table</p>"), ingest.DefaultOptions())
	if !errors.Is(err, apperrors.ErrMalformedSource) {
		t.Fatalf("expected malformed source, got %v", err)
	}
}

func TestBuildPadsShortRecords(t *testing.T) {
	ds, err := ingest.Build("t", &ingest.Table{
		Header:  []string{"a", "b", "c"},
		Records: [][]string{{"1"}, {"2", "x", "3", "extra"}},
	}, dataset.Locale{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(ds.Rows[0]) != 1 || len(ds.Rows[1]) != 3 {
		t.Fatalf("unexpected rows: %+v", ds.Rows)
	}
}
