// Package shape guesses a dataset's semantic category and the view best suited
// to present it.
package shape

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

// Category is the semantic shape of a dataset.
type Category string

const (
	TimeSeries         Category = "time-series"
	Ranking            Category = "ranking"
	Comparison         Category = "comparison"
	CategoricalNumeric Category = "categorical-numeric"
	Unclassified       Category = "unclassified"
)

// View is the presentation mode recommended for a category.
type View string

const (
	ViewChart            View = "chart"
	ViewRankedInsight    View = "ranked-insight"
	ViewDetailCard       View = "detail-card"
	ViewMultiSeriesChart View = "multi-series-chart"
	ViewTable            View = "table"
)

// Classification is the outcome of Classify.
type Classification struct {
	Category    Category `json:"category"`
	View        View     `json:"recommendedView"`
	Reason      string   `json:"reason"`
	Confidence  float64  `json:"confidence"`
	SampledRows int      `json:"sampledRows"`
}

// Options tunes classification. The zero value samples only the first row.
type Options struct {
	// SampleRows > 1 types columns by majority over that many rows instead of
	// the first row alone. This changes results for mixed-type columns.
	SampleRows int
}

// Classify runs the rule cascade with default options.
func Classify(ds *dataset.Dataset) (Classification, error) {
	return ClassifyWith(ds, Options{})
}

// ClassifyWith runs the ordered rule cascade; the first matching rule wins.
func ClassifyWith(ds *dataset.Dataset, opt Options) (Classification, error) {
	if ds == nil {
		return Classification{}, apperrors.ErrNoData
	}
	if ds.ColumnCount() == 0 {
		return Classification{}, &apperrors.SourceError{Source: ds.Source, Reason: "dataset has no columns"}
	}
	if ds.RowCount() == 0 {
		return Classification{}, &apperrors.SourceError{Source: ds.Source, Reason: "dataset has no rows"}
	}
	sampled := opt.SampleRows
	if sampled < 1 {
		sampled = 1
	}
	if sampled > ds.RowCount() {
		sampled = ds.RowCount()
	}

	if temporal := dataset.TemporalColumns(ds); len(temporal) > 0 {
		return Classification{
			Category:    TimeSeries,
			View:        ViewChart,
			Reason:      fmt.Sprintf("column %s looks like a time axis", quoteList(temporal[:1])),
			Confidence:  0.95,
			SampledRows: sampled,
		}, nil
	}

	kinds := dataset.SampledKinds(ds, sampled)
	nNum, nText := len(kinds.Numeric), len(kinds.Text)
	c := Classification{SampledRows: sampled}
	switch {
	case nNum >= 2 && nText == 1:
		c.Category, c.View, c.Confidence = Ranking, ViewRankedInsight, 0.90
		c.Reason = fmt.Sprintf("one label column (%s) with %d numeric measures suits a ranking", kinds.Text[0], nNum)
	case nText >= 2 && nNum >= 1:
		c.Category, c.View, c.Confidence = Comparison, ViewDetailCard, 0.85
		c.Reason = fmt.Sprintf("%d text columns and %d numeric columns suit side-by-side comparison", nText, nNum)
	case nNum >= 3 && nText <= 1:
		c.Category, c.View, c.Confidence = CategoricalNumeric, ViewMultiSeriesChart, 0.75
		c.Reason = fmt.Sprintf("%d numeric columns (%s) suit a multi-series chart", nNum, quoteList(kinds.Numeric))
	default:
		c.Category, c.View, c.Confidence = Unclassified, ViewTable, 0.60
		c.Reason = fmt.Sprintf("no dominant structure (%d numeric, %d text columns); showing raw table", nNum, nText)
	}
	return c, nil
}

func quoteList(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = fmt.Sprintf("%q", c)
	}
	return strings.Join(q, ", ")
}
