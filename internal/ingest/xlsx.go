package ingest

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(ext string) bool { return ext == ".xlsx" }

func (xlsxReader) Read(name string, r io.Reader, opt Options) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &apperrors.SourceError{Source: name, Reason: fmt.Sprintf("open workbook: %v", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &apperrors.SourceError{Source: name, Reason: "workbook has no sheets"}
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		if !slices.Contains(sheets, opt.Sheet) {
			return nil, &apperrors.SourceError{Source: name, Reason: fmt.Sprintf("sheet %q not found (sheets: %s)", opt.Sheet, strings.Join(sheets, ", "))}
		}
		sheet = opt.Sheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &apperrors.SourceError{Source: name, Reason: fmt.Sprintf("read sheet %s: %v", sheet, err)}
	}
	// Leading blank rows are common above the header.
	for len(rows) > 0 && isBlank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, &apperrors.SourceError{Source: name, Reason: "no header row"}
	}
	return &Table{Header: rows[0], Records: rows[1:]}, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
