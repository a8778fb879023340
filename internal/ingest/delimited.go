package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
)

type delimitedReader struct{}

func (delimitedReader) CanRead(ext string) bool {
	return ext == ".csv" || ext == ".tsv" || ext == ".txt"
}

func (delimitedReader) Read(name string, r io.Reader, opt Options) (*Table, error) {
	br := bufio.NewReader(r)
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name, br)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &apperrors.SourceError{Source: name, Reason: "no header row"}
		}
		return nil, &apperrors.SourceError{Source: name, Reason: fmt.Sprintf("read header: %v", err)}
	}
	tbl := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &apperrors.SourceError{Source: name, Reason: fmt.Sprintf("read row %d: %v", len(tbl.Records)+1, err)}
		}
		tbl.Records = append(tbl.Records, rec)
	}
	return tbl, nil
}

// sniffDelimiter picks tab for .tsv and comma for .csv; plain .txt files use
// whichever of tab, semicolon, pipe or comma appears most in the first line.
func sniffDelimiter(name string, br *bufio.Reader) rune {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tsv"):
		return '\t'
	case strings.HasSuffix(lower, ".csv"):
		return ','
	}
	line, _ := br.Peek(4096)
	if i := strings.IndexByte(string(line), '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestN := ',', 0
	for _, d := range []rune{'\t', ';', '|', ','} {
		if n := strings.Count(string(line), string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
