package dataset

import "strings"

// ColumnKinds partitions column names by sampled cell type, in column order.
// Columns whose sample is null appear in neither list.
type ColumnKinds struct {
	Numeric []string
	Text    []string
}

// FirstRowKinds types each column by its value in the first row only.
// A column holding a number in row 1 and a string in row 2 is reported numeric;
// classification output depends on this, so it is kept as the default.
func FirstRowKinds(d *Dataset) ColumnKinds {
	var k ColumnKinds
	if d == nil || len(d.Rows) == 0 {
		return k
	}
	first := d.Rows[0]
	for _, c := range d.Columns {
		switch first.Get(c).Kind() {
		case KindNumber:
			k.Numeric = append(k.Numeric, c)
		case KindString:
			k.Text = append(k.Text, c)
		}
	}
	return k
}

// SampledKinds types each column by majority vote over the first n rows,
// ignoring nulls. Ties go to text. n <= 1 is FirstRowKinds.
func SampledKinds(d *Dataset, n int) ColumnKinds {
	if n <= 1 {
		return FirstRowKinds(d)
	}
	var k ColumnKinds
	if d == nil || len(d.Rows) == 0 {
		return k
	}
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	for _, c := range d.Columns {
		var nums, strs int
		for _, r := range d.Rows[:n] {
			switch r.Get(c).Kind() {
			case KindNumber:
				nums++
			case KindString:
				strs++
			}
		}
		switch {
		case nums == 0 && strs == 0:
		case nums > strs:
			k.Numeric = append(k.Numeric, c)
		default:
			k.Text = append(k.Text, c)
		}
	}
	return k
}

var temporalKeywords = []string{"date", "time", "month", "year"}

// IsTemporalName reports whether a column name looks like a date/time axis.
func IsTemporalName(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range temporalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// TemporalColumns returns the columns whose names look temporal, in column order.
func TemporalColumns(d *Dataset) []string {
	var out []string
	for _, c := range d.Columns {
		if IsTemporalName(c) {
			out = append(out, c)
		}
	}
	return out
}
