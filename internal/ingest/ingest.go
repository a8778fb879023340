// Package ingest turns uploaded files into datasets. Readers are registered
// per file extension; every input passes the same size and extension checks.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

// DefaultMaxBytes is the upload ceiling used when none is configured.
const DefaultMaxBytes int64 = 10 << 20

// Options controls ingestion limits and parsing.
type Options struct {
	// MaxBytes rejects larger inputs. 0 uses DefaultMaxBytes.
	MaxBytes int64
	// AllowedExtensions restricts accepted file types (".csv", ...).
	// Empty allows every registered reader.
	AllowedExtensions []string
	// Delimiter for delimited text. If 0, chosen by extension or sniffed.
	Delimiter rune
	// Locale for numeric cells. Zero runes auto-detect per value.
	Locale dataset.Locale
	// Sheet selects an XLSX worksheet by name; empty picks the first.
	Sheet string
}

// DefaultOptions returns the ceiling and extension list used by the CLI.
func DefaultOptions() Options {
	return Options{
		MaxBytes:          DefaultMaxBytes,
		AllowedExtensions: []string{".csv", ".tsv", ".txt", ".xlsx", ".html", ".htm"},
	}
}

// Table is a raw header plus string records, before typing.
type Table struct {
	Header  []string
	Records [][]string
}

// Reader decodes one family of file formats into a Table.
type Reader interface {
	CanRead(ext string) bool
	Read(name string, r io.Reader, opt Options) (*Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(delimitedReader{})
	Register(xlsxReader{})
	Register(htmlReader{})
}

// Extensions lists the extensions some registered reader accepts.
func Extensions() []string {
	var out []string
	for _, ext := range []string{".csv", ".tsv", ".txt", ".xlsx", ".html", ".htm"} {
		if readerFor(ext) != nil {
			out = append(out, ext)
		}
	}
	return out
}

func readerFor(ext string) Reader {
	for _, r := range registry {
		if r.CanRead(ext) {
			return r
		}
	}
	return nil
}

// LoadFile reads and types the file at path.
func LoadFile(path string, opt Options) (*dataset.Dataset, error) {
	name := filepath.Base(path)
	if err := checkExtension(name, opt); err != nil {
		return nil, err
	}
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &apperrors.SourceError{Source: name, Reason: "file not found"}
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := checkSize(name, st.Size(), opt); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Load(name, f, opt)
}

// Load reads a named stream. The name's extension picks the reader.
func Load(name string, r io.Reader, opt Options) (*dataset.Dataset, error) {
	if err := checkExtension(name, opt); err != nil {
		return nil, err
	}
	limit := maxBytes(opt)
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if err := checkSize(name, int64(len(data)), opt); err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(name))
	rd := readerFor(ext)
	if rd == nil {
		return nil, &apperrors.SourceError{Source: name, Reason: fmt.Sprintf("no reader for %q files", ext)}
	}
	tbl, err := rd.Read(name, bytes.NewReader(data), opt)
	if err != nil {
		return nil, err
	}
	return Build(name, tbl, opt.Locale)
}

func maxBytes(opt Options) int64 {
	if opt.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return opt.MaxBytes
}

func checkExtension(name string, opt Options) error {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return &apperrors.SourceError{Source: name, Reason: "file has no extension"}
	}
	if len(opt.AllowedExtensions) == 0 {
		return nil
	}
	allowed := make([]string, len(opt.AllowedExtensions))
	for i, e := range opt.AllowedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed[i] = e
	}
	if !slices.Contains(allowed, ext) {
		return &apperrors.SourceError{Source: name, Reason: fmt.Sprintf("file type %s is not allowed (allowed: %s)", ext, strings.Join(allowed, ", "))}
	}
	return nil
}

func checkSize(name string, size int64, opt Options) error {
	limit := maxBytes(opt)
	if size > limit {
		return &apperrors.SourceError{Source: name, Reason: fmt.Sprintf("file is larger than the %s limit", humanize.IBytes(uint64(limit)))}
	}
	return nil
}

// Build types a raw table into a dataset. Blank header names become
// "Column N", repeated names get a numeric suffix, empty cells are left out
// and numeric-looking cells become numbers.
func Build(source string, tbl *Table, loc dataset.Locale) (*dataset.Dataset, error) {
	if tbl == nil || len(tbl.Header) == 0 {
		return nil, &apperrors.SourceError{Source: source, Reason: "no header row"}
	}
	cols := headerNames(tbl.Header)
	rows := make([]dataset.Row, 0, len(tbl.Records))
	for _, rec := range tbl.Records {
		row := dataset.Row{}
		for j, col := range cols {
			if j >= len(rec) {
				break
			}
			v := strings.TrimSpace(rec[j])
			if v == "" {
				continue
			}
			if f, ok := dataset.ParseNumber(v, loc); ok {
				row[col] = dataset.Num(f)
			} else {
				row[col] = dataset.Str(v)
			}
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, &apperrors.SourceError{Source: source, Reason: "no data rows"}
	}
	return dataset.New(cols, rows, source)
}

func headerNames(header []string) []string {
	cols := make([]string, len(header))
	seen := map[string]bool{}
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		base := name
		for n := 2; seen[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		seen[name] = true
		cols[i] = name
	}
	return cols
}
