// Package query runs declarative filter/sort/limit requests against a dataset
// and produces presentation-ready results.
package query

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

const (
	Asc  = "asc"
	Desc = "desc"
)

// maxAveragedColumns caps how many numeric columns get an "Avg" stat.
const maxAveragedColumns = 3

// Request is a declarative query. Zero fields mean "not requested".
type Request struct {
	FilterColumn  string `json:"filterColumn,omitempty"`
	FilterValue   string `json:"filterValue,omitempty"`
	SortColumn    string `json:"sortColumn,omitempty"`
	SortDirection string `json:"sortDirection,omitempty"`
	Limit         *int   `json:"limit,omitempty"`
}

// WithLimit returns a copy of r limited to n rows.
func (r Request) WithLimit(n int) Request {
	r.Limit = &n
	return r
}

// Stat is a label/value summary pair.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Result is the transformed table plus summary statistics.
type Result struct {
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"`
	Summary   []Stat     `json:"summary,omitempty"`
}

// Validate checks the request against ds and returns it with column names
// resolved to the dataset's spelling.
func (r Request) Validate(ds *dataset.Dataset) (Request, error) {
	if ds == nil {
		return r, apperrors.ErrNoData
	}
	if r.FilterColumn != "" {
		col, err := ds.RequireColumn("filter", r.FilterColumn)
		if err != nil {
			return r, err
		}
		r.FilterColumn = col
	}
	if r.SortColumn != "" {
		col, err := ds.RequireColumn("sort", r.SortColumn)
		if err != nil {
			return r, err
		}
		r.SortColumn = col
	}
	switch {
	case r.FilterColumn != "" && strings.TrimSpace(r.FilterValue) == "":
		return r, fmt.Errorf("filter on %s needs a value: %w", r.FilterColumn, apperrors.ErrInvalidArgument)
	case r.FilterColumn == "" && r.FilterValue != "":
		return r, fmt.Errorf("filter value %q needs a filter column: %w", r.FilterValue, apperrors.ErrInvalidArgument)
	case r.SortColumn == "" && strings.TrimSpace(r.SortDirection) != "":
		return r, fmt.Errorf("sort direction %q needs a sort column: %w", r.SortDirection, apperrors.ErrInvalidArgument)
	}
	switch strings.ToLower(strings.TrimSpace(r.SortDirection)) {
	case "", Asc:
		r.SortDirection = Asc
	case Desc:
		r.SortDirection = Desc
	default:
		return r, fmt.Errorf("sort direction %q must be %s or %s: %w", r.SortDirection, Asc, Desc, apperrors.ErrInvalidArgument)
	}
	if r.Limit != nil && *r.Limit <= 0 {
		return r, fmt.Errorf("limit must be a positive integer, got %d: %w", *r.Limit, apperrors.ErrInvalidArgument)
	}
	return r, nil
}

// Run executes req against ds: filter, stable sort, aggregate, then limit.
func Run(ds *dataset.Dataset, req Request) (*Result, error) {
	req, err := req.Validate(ds)
	if err != nil {
		return nil, err
	}

	rows := Filter(ds.Rows, req.FilterColumn, req.FilterValue)
	if req.SortColumn != "" {
		rows = Sort(rows, req.SortColumn, req.SortDirection == Desc)
	}
	summary := Aggregate(ds, rows)
	total := len(rows)
	if req.Limit != nil && *req.Limit < len(rows) {
		rows = rows[:*req.Limit]
	}

	res := &Result{
		Headers:   append([]string(nil), ds.Columns...),
		Rows:      make([][]string, len(rows)),
		TotalRows: total,
		Summary:   summary,
	}
	for i, r := range rows {
		line := make([]string, len(ds.Columns))
		for j, c := range ds.Columns {
			line[j] = r.Get(c).String()
		}
		res.Rows[i] = line
	}
	return res, nil
}

// Filter keeps rows whose col matches value: case-insensitive substring for
// string cells, case-insensitive equality of the display form otherwise.
// An empty column or value keeps every row. The input slice is not modified.
func Filter(rows []dataset.Row, col, value string) []dataset.Row {
	if col == "" || value == "" {
		return append([]dataset.Row(nil), rows...)
	}
	needle := strings.ToLower(value)
	out := make([]dataset.Row, 0, len(rows))
	for _, r := range rows {
		if matches(r.Get(col), value, needle) {
			out = append(out, r)
		}
	}
	return out
}

func matches(v dataset.Value, value, needle string) bool {
	switch {
	case v.IsNull():
		return false
	case v.IsString():
		return strings.Contains(strings.ToLower(v.String()), needle)
	default:
		return strings.EqualFold(v.String(), strings.TrimSpace(value))
	}
}

// Sort returns a stably sorted copy of rows ordered by col.
func Sort(rows []dataset.Row, col string, desc bool) []dataset.Row {
	out := append([]dataset.Row(nil), rows...)
	cl := collate.New(language.English)
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(cl, out[i].Get(col), out[j].Get(col))
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compare(cl *collate.Collator, a, b dataset.Value) int {
	fa, okA := a.Float()
	fb, okB := b.Float()
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return cl.CompareString(strings.ToLower(a.String()), strings.ToLower(b.String()))
}

// Aggregate reports the row count and averages for up to the first three
// columns that hold a number in the dataset's first row.
func Aggregate(ds *dataset.Dataset, rows []dataset.Row) []Stat {
	stats := []Stat{{Label: "Total Rows", Value: fmt.Sprintf("%d", len(rows))}}
	numeric := dataset.FirstRowKinds(ds).Numeric
	if len(numeric) > maxAveragedColumns {
		numeric = numeric[:maxAveragedColumns]
	}
	for _, col := range numeric {
		var sum float64
		var n int
		for _, r := range rows {
			if f, ok := r.Get(col).Number(); ok {
				sum += f
				n++
			}
		}
		if n == 0 {
			continue
		}
		stats = append(stats, Stat{Label: "Avg " + col, Value: fmt.Sprintf("%.2f", sum/float64(n))})
	}
	return stats
}
