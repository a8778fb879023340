// Package dataset holds the in-memory table model and the single-slot store
// that owns the currently loaded table.
package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/google/uuid"
)

// Row maps column name to cell. A missing key is an absent cell.
type Row map[string]Value

// Get returns the cell for col, or Null when the row has no value for it.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return Null()
}

// Dataset is an ordered set of named columns and rows. It is never mutated
// after construction; consumers receive it read-only.
type Dataset struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
	Columns  []string  `json:"columns"`
	Rows     []Row     `json:"rows"`
}

// New validates columns and rows and returns a fresh Dataset.
// Column names must be non-empty and unique; every row key must be a column.
func New(columns []string, rows []Row, source string) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, &apperrors.SourceError{Source: source, Reason: "no header columns"}
	}
	seen := make(map[string]struct{}, len(columns))
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			return nil, &apperrors.SourceError{Source: source, Reason: fmt.Sprintf("column %d has an empty name", i+1)}
		}
		if _, dup := seen[c]; dup {
			return nil, &apperrors.SourceError{Source: source, Reason: fmt.Sprintf("duplicate column %q", c)}
		}
		seen[c] = struct{}{}
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		cp := make(Row, len(r))
		for k, v := range r {
			if _, ok := seen[k]; !ok {
				return nil, &apperrors.SourceError{Source: source, Reason: fmt.Sprintf("row %d has unknown column %q", i+1, k)}
			}
			cp[k] = v
		}
		out[i] = cp
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Dataset{
		ID:       uuid.NewString(),
		Source:   source,
		LoadedAt: time.Now().UTC(),
		Columns:  cols,
		Rows:     out,
	}, nil
}

func (d *Dataset) RowCount() int    { return len(d.Rows) }
func (d *Dataset) ColumnCount() int { return len(d.Columns) }

// Resolve maps a requested column name onto the dataset's spelling.
// Exact matches win; otherwise a single case-insensitive match is accepted.
func (d *Dataset) Resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, c := range d.Columns {
		if c == name {
			return c, true
		}
	}
	match := ""
	for _, c := range d.Columns {
		if strings.EqualFold(c, name) {
			if match != "" {
				return "", false
			}
			match = c
		}
	}
	return match, match != ""
}

// RequireColumn resolves name or returns a ColumnError tagged with op.
func (d *Dataset) RequireColumn(op, name string) (string, error) {
	if c, ok := d.Resolve(name); ok {
		return c, nil
	}
	return "", &apperrors.ColumnError{Op: op, Column: name, Available: d.Columns}
}

// Values returns the column's cells in row order (Null for missing cells).
func (d *Dataset) Values(col string) []Value {
	out := make([]Value, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Get(col)
	}
	return out
}

// Numbers returns the numeric cells of col in row order, skipping the rest.
func (d *Dataset) Numbers(col string) []float64 {
	var out []float64
	for _, r := range d.Rows {
		if f, ok := r.Get(col).Number(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Distinct counts the distinct non-null display values of col.
func (d *Dataset) Distinct(col string) int {
	seen := map[string]struct{}{}
	for _, r := range d.Rows {
		v := r.Get(col)
		if v.IsNull() {
			continue
		}
		seen[v.String()] = struct{}{}
	}
	return len(seen)
}
