// Package analysis builds column-level profiles of a dataset: inferred kinds,
// numeric statistics, robust outliers, top categories and correlations.
package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

// Column kinds reported by the profiler.
const (
	KindNumeric     = "numeric"
	KindDatetime    = "datetime"
	KindCategorical = "categorical"
	KindText        = "text"
	KindEmpty       = "empty"
)

// Options controls profiling.
type Options struct {
	// MaxRows limits rows processed; 0 means unlimited.
	MaxRows int
	// SampleRows is how many example rows to include in the report.
	SampleRows int
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outliers counts values whose robust z-score (MAD) exceeds OutlierThreshold.
	Outliers         bool
	OutlierThreshold float64
	// Locale for numbers stored as text. Zero runes auto-detect.
	Locale dataset.Locale
	// UnitNormalize converts values using UnitTargets, keyed by the unit
	// found in the column name ("Mass (g/L)"). Off by default.
	UnitNormalize bool
	UnitTargets   map[string]string
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		MaxRows:          100000,
		SampleRows:       5,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
		UnitTargets: map[string]string{
			"g/L":  "mg/L",
			"ug/L": "mg/L",
			"°F":   "°C",
		},
	}
}

// Report is the profile of one dataset.
type Report struct {
	Name      string          `json:"name"`
	Rows      int             `json:"rows"`
	Processed int             `json:"processed"`
	Cols      []ColumnSummary `json:"columns"`
	Samples   [][]string      `json:"samples,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
	Corr      *CorrMatrix     `json:"correlations,omitempty"`
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Unit    string `json:"unit,omitempty"`
	NonNull int    `json:"nonNull"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique,omitempty"`

	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Mean float64 `json:"mean,omitempty"`
	Std  float64 `json:"std,omitempty"`

	OutliersCount    int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliersMaxAbsZ,omitempty"`
	OutlierThreshold float64 `json:"outlierThreshold,omitempty"`

	TopValues    []CategoryCount `json:"topValues,omitempty"`
	ExampleTexts []string        `json:"examples,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// PairCorr is one off-diagonal correlation.
type PairCorr struct {
	A, B string
	R    float64
}

type colAcc struct {
	name     string
	label    string
	unit     string
	origUnit string
	nonNil   int
	miss     int

	// Welford
	n    int
	mean float64
	m2   float64
	min  float64
	max  float64

	numCnt int
	dtCnt  int
	txtCnt int
	cats   map[string]int
	exText []string
	values []float64
}

type pairAcc struct {
	n, sumX, sumY, sumXX, sumYY, sumXY float64
}

// Profile computes a Report for ds.
func Profile(ds *dataset.Dataset, opt Options) *Report {
	rep := &Report{Name: ds.Source, Rows: ds.RowCount()}
	ncol := ds.ColumnCount()
	cols := make([]*colAcc, ncol)
	for i, name := range ds.Columns {
		label, unit := splitUnits(name)
		cols[i] = &colAcc{name: name, label: label, unit: unit, origUnit: unit,
			min: math.Inf(1), max: math.Inf(-1), cats: map[string]int{}}
	}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	pairs := map[[2]int]*pairAcc{}

	for _, row := range ds.Rows {
		if rep.Processed >= maxRows {
			break
		}
		rep.Processed++
		if len(rep.Samples) < sampleRows {
			sample := make([]string, ncol)
			for j, c := range ds.Columns {
				sample[j] = row.Get(c).String()
			}
			rep.Samples = append(rep.Samples, sample)
		}

		rowNums := map[int]float64{}
		for j, c := range cols {
			v := row.Get(c.name)
			if v.IsNull() {
				c.miss++
				continue
			}
			c.nonNil++
			if x, ok := c.numeric(v, opt); ok {
				c.add(x)
				rowNums[j] = x
				continue
			}
			s := strings.TrimSpace(v.String())
			if _, ok := parseTimeMaybe(s); ok {
				c.dtCnt++
				continue
			}
			c.txtCnt++
			if len(c.cats) <= 10000 && len(s) <= 64 {
				c.cats[s]++
			}
			if len(c.exText) < 3 {
				c.exText = append(c.exText, s)
			}
		}
		if opt.Correlations && len(rowNums) >= 2 {
			idxs := make([]int, 0, len(rowNums))
			for j := range rowNums {
				idxs = append(idxs, j)
			}
			sort.Ints(idxs)
			for a := 0; a < len(idxs); a++ {
				for b := a + 1; b < len(idxs); b++ {
					key := [2]int{idxs[a], idxs[b]}
					pa := pairs[key]
					if pa == nil {
						pa = &pairAcc{}
						pairs[key] = pa
					}
					x, y := rowNums[idxs[a]], rowNums[idxs[b]]
					pa.n++
					pa.sumX += x
					pa.sumY += y
					pa.sumXX += x * x
					pa.sumYY += y * y
					pa.sumXY += x * y
				}
			}
		}
	}

	var numCols []int
	for idx, c := range cols {
		s := c.summary(opt)
		if s.Kind == KindNumeric {
			numCols = append(numCols, idx)
		}
		rep.Cols = append(rep.Cols, s)
	}
	if rep.Processed < rep.Rows {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", rep.Processed, rep.Rows))
	}
	if opt.Correlations && len(numCols) >= 2 {
		rep.Corr = correlationMatrix(cols, numCols, pairs)
	}
	return rep
}

// numeric reads v as a number. Text cells may carry a percent sign or
// locale separators.
func (c *colAcc) numeric(v dataset.Value, opt Options) (float64, bool) {
	x, ok := v.Number()
	if !ok {
		s := strings.TrimSpace(v.String())
		if strings.HasSuffix(s, "%") {
			if c.unit == "" {
				c.unit, c.origUnit = "%", "%"
			}
			s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		}
		x, ok = dataset.ParseNumber(s, opt.Locale)
		if !ok {
			return 0, false
		}
	}
	if opt.UnitNormalize && c.origUnit != "" {
		if nx, nu, converted := normalizeUnit(x, c.origUnit, opt); converted {
			x = nx
			c.unit = nu
		}
	}
	return x, true
}

func (c *colAcc) add(x float64) {
	c.numCnt++
	c.n++
	if x < c.min {
		c.min = x
	}
	if x > c.max {
		c.max = x
	}
	delta := x - c.mean
	c.mean += delta / float64(c.n)
	c.m2 += delta * (x - c.mean)
	c.values = append(c.values, x)
}

// summary decides the column kind by predominant parsed type.
func (c *colAcc) summary(opt Options) ColumnSummary {
	s := ColumnSummary{Name: c.name, Label: c.label, Unit: c.unit, NonNull: c.nonNil, Missing: c.miss, Kind: KindEmpty}
	switch {
	case c.numCnt > 0 && c.numCnt >= c.dtCnt && c.numCnt >= c.txtCnt:
		s.Kind = KindNumeric
		s.Min, s.Max, s.Mean = c.min, c.max, c.mean
		if c.n > 1 {
			s.Std = math.Sqrt(c.m2 / float64(c.n-1))
		}
		if opt.Outliers && len(c.values) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(c.values, thr)
			s.OutlierThreshold = thr
		}
	case c.dtCnt > 0 && c.dtCnt >= c.txtCnt:
		s.Kind = KindDatetime
	case len(c.cats) > 0 && len(c.cats) < c.txtCnt:
		s.Kind = KindCategorical
		s.TopValues = topValues(c.cats, 8)
		s.Unique = len(c.cats)
	case c.txtCnt > 0:
		s.Kind = KindText
		s.ExampleTexts = c.exText
		s.Unique = len(c.cats)
	}
	return s
}

func topValues(cats map[string]int, n int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > n {
		tops = tops[:n]
	}
	return tops
}

// robustOutliers counts values with |0.6745*(x-median)/MAD| above thr.
func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

func correlationMatrix(cols []*colAcc, numCols []int, pairs map[[2]int]*pairAcc) *CorrMatrix {
	n := len(numCols)
	names := make([]string, n)
	mat := make([][]float64, n)
	for i, idx := range numCols {
		names[i] = cols[idx].label
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r := pearson(pairs[[2]int{numCols[a], numCols[b]}])
			mat[a][b], mat[b][a] = r, r
		}
	}
	return &CorrMatrix{Columns: names, Values: mat}
}

func pearson(pa *pairAcc) float64 {
	if pa == nil || pa.n < 2 {
		return 0
	}
	denom := math.Sqrt((pa.n*pa.sumXX - pa.sumX*pa.sumX) * (pa.n*pa.sumYY - pa.sumY*pa.sumY))
	if denom == 0 {
		return 0
	}
	r := (pa.n*pa.sumXY - pa.sumX*pa.sumY) / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// TopPairs lists the strongest off-diagonal correlations by |r|.
func (m *CorrMatrix) TopPairs(limit int) []PairCorr {
	var out []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			out = append(out, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := math.Abs(out[i].R), math.Abs(out[j].R)
		if ai == aj {
			return out[i].A+out[i].B < out[j].A+out[j].B
		}
		return ai > aj
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

func parseTimeMaybe(s string) (time.Time, bool) {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalizeUnit(x float64, unit string, opt Options) (float64, string, bool) {
	target, ok := opt.UnitTargets[unit]
	if !ok {
		return x, unit, false
	}
	switch unit + ">" + target {
	case "g/L>mg/L":
		return x * 1000, target, true
	case "ug/L>mg/L":
		return x / 1000, target, true
	case "°F>°C":
		return (x - 32) * 5.0 / 9.0, target, true
	default:
		return x, unit, false
	}
}

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // Alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // Mass [mg/L]
	{regexp.MustCompile(`^(.*?)[_\s-]+(mg/L|g/L|ug/L|°[CF]|Brix|%|ppm|ppb)$`), 2},
}

func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := append([]float64(nil), vals...)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
