// Package insight computes descriptive summaries, rankings, trend deltas and
// recommendations over a dataset.
package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

// Analysis types accepted by Generate.
const (
	Summary         = "summary"
	TopPerformers   = "top_performers"
	Trends          = "trends"
	Recommendations = "recommendations"
)

// Types lists the analysis types in their advertised order.
var Types = []string{Summary, TopPerformers, Trends, Recommendations}

// Metric classes. They only drive presentation.
const (
	ClassPositive = "positive"
	ClassNeutral  = "neutral"
	ClassWarning  = "warning"
)

const (
	defaultTopN         = 5
	maxSummaryColumns   = 3
	maxOutlierColumns   = 2
	lowUniqueness       = 0.3
	highUniqueness      = 0.7
	highOutlierMultiple = 1.5
	lowOutlierMultiple  = 0.5
)

type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Class string `json:"class"`
}

type Performer struct {
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Value  string `json:"value"`
	Detail string `json:"detail,omitempty"`
}

// Insight is presentation-ready: every field renders verbatim.
type Insight struct {
	Type            string      `json:"type"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Metrics         []Metric    `json:"metrics"`
	TopPerformers   []Performer `json:"topPerformers,omitempty"`
	Recommendations []string    `json:"recommendations,omitempty"`
}

// Options carries the optional target column and top-N count.
type Options struct {
	Column string
	Limit  int
}

// NormalizeType maps unknown analysis types onto summary.
func NormalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	for _, known := range Types {
		if t == known {
			return t
		}
	}
	return Summary
}

// Generate computes the requested analysis over ds.
func Generate(ds *dataset.Dataset, analysisType string, opt Options) (*Insight, error) {
	if ds == nil {
		return nil, apperrors.ErrNoData
	}
	switch NormalizeType(analysisType) {
	case TopPerformers:
		return topPerformers(ds, opt)
	case Trends:
		return trends(ds), nil
	case Recommendations:
		return recommendations(ds), nil
	default:
		return summary(ds), nil
	}
}

func summary(ds *dataset.Dataset) *Insight {
	in := &Insight{
		Type:        Summary,
		Title:       "Data Summary",
		Description: fmt.Sprintf("Overview of %d records across %d columns", ds.RowCount(), ds.ColumnCount()),
		Metrics: []Metric{
			{Label: "Total Records", Value: humanize.Comma(int64(ds.RowCount())), Class: ClassNeutral},
			{Label: "Columns", Value: fmt.Sprintf("%d", ds.ColumnCount()), Class: ClassNeutral},
		},
	}
	for _, col := range firstN(dataset.FirstRowKinds(ds).Numeric, maxSummaryColumns) {
		vals := ds.Numbers(col)
		if len(vals) == 0 {
			continue
		}
		lo, hi, sum := vals[0], vals[0], 0.0
		for _, v := range vals {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			sum += v
		}
		in.Metrics = append(in.Metrics,
			Metric{Label: col + " Range", Value: formatNum(lo) + " - " + formatNum(hi), Class: ClassNeutral},
			Metric{Label: col + " Average", Value: formatNum(sum / float64(len(vals))), Class: ClassNeutral},
		)
	}
	return in
}

type ranked struct {
	name  string
	value float64
}

func topPerformers(ds *dataset.Dataset, opt Options) (*Insight, error) {
	kinds := dataset.FirstRowKinds(ds)
	var target string
	if opt.Column != "" {
		col, err := ds.RequireColumn("top_performers", opt.Column)
		if err != nil {
			return nil, err
		}
		target = col
	} else {
		if len(kinds.Numeric) == 0 {
			return nil, fmt.Errorf("top_performers: dataset has no numeric column to rank by: %w", apperrors.ErrInvalidArgument)
		}
		target = kinds.Numeric[0]
	}
	n := opt.Limit
	if n <= 0 {
		n = defaultTopN
	}
	label := labelColumn(ds, kinds, target)

	var items []ranked
	var total float64
	for _, r := range ds.Rows {
		f, ok := r.Get(target).Float()
		if !ok {
			continue
		}
		items = append(items, ranked{name: r.Get(label).String(), value: f})
		total += f
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("top_performers: column %q has no numeric values: %w", target, apperrors.ErrInvalidArgument)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].value > items[j].value })
	if len(items) > n {
		items = items[:n]
	}

	in := &Insight{
		Type:        TopPerformers,
		Title:       fmt.Sprintf("Top %d by %s", len(items), target),
		Description: fmt.Sprintf("Rows ranked by %s, labelled by %s", target, label),
	}
	for i, it := range items {
		p := Performer{Rank: i + 1, Name: it.name, Value: dataset.FormatNumber(it.value)}
		if total != 0 {
			p.Detail = fmt.Sprintf("%.1f%% of total", it.value/total*100)
		}
		in.TopPerformers = append(in.TopPerformers, p)
	}
	in.Metrics = []Metric{
		{Label: "Leader", Value: items[0].name, Class: ClassPositive},
		{Label: "Top Value", Value: formatNum(items[0].value), Class: ClassPositive},
		{Label: "Total " + target, Value: formatNum(total), Class: ClassNeutral},
	}
	return in, nil
}

var labelNames = []string{"name", "product", "title", "label"}

// labelColumn picks the column that names each ranked row.
func labelColumn(ds *dataset.Dataset, kinds dataset.ColumnKinds, target string) string {
	for _, want := range labelNames {
		for _, c := range ds.Columns {
			if strings.EqualFold(c, want) {
				return c
			}
		}
	}
	for _, c := range kinds.Text {
		if c != target {
			return c
		}
	}
	return ds.Columns[0]
}

func trends(ds *dataset.Dataset) *Insight {
	in := &Insight{
		Type:        Trends,
		Title:       "Trend Analysis",
		Description: "Change from the first to the last row for each numeric column",
	}
	for _, col := range dataset.FirstRowKinds(ds).Numeric {
		vals := ds.Numbers(col)
		if len(vals) < 2 {
			continue
		}
		in.Metrics = append(in.Metrics, trendMetric(col, vals[0], vals[len(vals)-1]))
	}
	if len(in.Metrics) == 0 {
		in.Description = "Not enough numeric values to compute trends"
	}
	return in
}

func trendMetric(col string, first, last float64) Metric {
	m := Metric{Label: col}
	if first == 0 {
		if last == 0 {
			m.Value, m.Class = "0.0%", ClassNeutral
		} else {
			m.Value, m.Class = "n/a (starts at 0)", ClassNeutral
		}
		return m
	}
	pct := (last - first) / math.Abs(first) * 100
	switch {
	case pct > 0:
		m.Value, m.Class = fmt.Sprintf("+%.1f%%", pct), ClassPositive
	case pct < 0:
		m.Value, m.Class = fmt.Sprintf("%.1f%%", pct), ClassWarning
	default:
		m.Value, m.Class = "0.0%", ClassNeutral
	}
	return m
}

func recommendations(ds *dataset.Dataset) *Insight {
	in := &Insight{
		Type:        Recommendations,
		Title:       "Recommendations",
		Description: "Signals worth acting on in the current dataset",
	}
	kinds := dataset.FirstRowKinds(ds)
	rows := ds.RowCount()

	if len(kinds.Text) > 0 && rows > 0 {
		col := kinds.Text[0]
		distinct := ds.Distinct(col)
		ratio := float64(distinct) / float64(rows)
		m := Metric{Label: col + " Uniqueness", Value: fmt.Sprintf("%.0f%%", ratio*100), Class: ClassNeutral}
		switch {
		case ratio < lowUniqueness:
			m.Class = ClassWarning
			in.Recommendations = append(in.Recommendations, fmt.Sprintf(
				"%s is highly concentrated (%d distinct values in %d rows); group by it to compare segments", col, distinct, rows))
		case ratio > highUniqueness:
			m.Class = ClassPositive
			in.Recommendations = append(in.Recommendations, fmt.Sprintf(
				"%s is mostly unique (%d distinct values in %d rows); treat it as an identifier rather than a category", col, distinct, rows))
		}
		in.Metrics = append(in.Metrics, m)
	}

	for _, col := range firstN(kinds.Numeric, maxOutlierColumns) {
		vals := ds.Numbers(col)
		if len(vals) == 0 {
			continue
		}
		var sum float64
		for _, v := range vals {
			sum += v
		}
		avg := sum / float64(len(vals))
		var high, low int
		for _, v := range vals {
			if v > avg*highOutlierMultiple {
				high++
			}
			if v < avg*lowOutlierMultiple {
				low++
			}
		}
		if high > 0 {
			in.Recommendations = append(in.Recommendations, fmt.Sprintf(
				"%s has %d high outlier(s) above 1.5x the average of %s; review them for exceptional results", col, high, formatNum(avg)))
		}
		if low > 0 {
			in.Recommendations = append(in.Recommendations, fmt.Sprintf(
				"%s has %d low outlier(s) below 0.5x the average of %s; check them for underperformance or data errors", col, low, formatNum(avg)))
		}
		class := ClassNeutral
		if high+low > 0 {
			class = ClassWarning
		}
		in.Metrics = append(in.Metrics, Metric{Label: col + " Outliers", Value: fmt.Sprintf("%d", high+low), Class: class})
	}

	if len(in.Recommendations) == 0 {
		in.Recommendations = []string{
			"Sort by a numeric column to surface the largest values",
			"Filter on a text column to focus on a single segment",
			"Compare the top performers against the average",
		}
	}
	return in
}

func firstN(cols []string, n int) []string {
	if len(cols) > n {
		return cols[:n]
	}
	return cols
}

// formatNum renders a metric value with thousands separators and at most two decimals.
func formatNum(f float64) string {
	return humanize.CommafWithDigits(f, 2)
}
