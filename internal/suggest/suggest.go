// Package suggest proposes follow-up questions for a freshly loaded dataset.
package suggest

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

const maxSuggestions = 6

type Suggestion struct {
	Label string `json:"label"`
	Query string `json:"query"`
}

type Result struct {
	MainInsight string       `json:"mainInsight"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Generate describes ds and assembles canned suggestions in fixed rule order.
func Generate(ds *dataset.Dataset) (*Result, error) {
	if ds == nil {
		return nil, apperrors.ErrNoData
	}
	kinds := dataset.FirstRowKinds(ds)
	temporal := dataset.TemporalColumns(ds)

	res := &Result{MainInsight: describe(ds, kinds)}
	add := func(label, query string) {
		if len(res.Suggestions) < maxSuggestions {
			res.Suggestions = append(res.Suggestions, Suggestion{Label: label, Query: query})
		}
	}

	nums, texts := kinds.Numeric, kinds.Text
	if len(texts) > 0 && len(nums) > 0 {
		category := categoryColumn(texts, temporal)
		add("Compare by "+category, fmt.Sprintf("Compare %s by %s", nums[0], category))
	}
	if len(nums) > 0 {
		add("Find outliers", fmt.Sprintf("Find outliers in %s", nums[0]))
	}
	if len(temporal) > 0 && len(nums) > 0 {
		add("Trend over time", fmt.Sprintf("Show the trend of %s over %s", nums[0], temporal[0]))
	}
	if len(nums) >= 2 {
		add("Distribution analysis", fmt.Sprintf("Show the distribution of %s and %s", nums[0], nums[1]))
		add("Best performers", fmt.Sprintf("Show the top performers by %s", nums[0]))
	}
	if len(texts) >= 2 {
		add(fmt.Sprintf("Breakdown by %s vs %s", texts[0], texts[1]),
			fmt.Sprintf("Break down the data by %s and %s", texts[0], texts[1]))
	}
	if len(res.Suggestions) == 0 {
		add("Explore data", "Give me an overview of this dataset")
	}
	return res, nil
}

// categoryColumn prefers a text column that is not a time axis.
func categoryColumn(texts, temporal []string) string {
	for _, c := range texts {
		isTime := false
		for _, tc := range temporal {
			if c == tc {
				isTime = true
				break
			}
		}
		if !isTime {
			return c
		}
	}
	return texts[0]
}

func describe(ds *dataset.Dataset, kinds dataset.ColumnKinds) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This dataset has %d rows and %d columns.", ds.RowCount(), ds.ColumnCount())
	texts := kinds.Text
	if len(texts) > 2 {
		texts = texts[:2]
	}
	for _, c := range texts {
		fmt.Fprintf(&b, " %s has %d distinct values.", c, ds.Distinct(c))
	}
	if len(kinds.Numeric) > 0 {
		fmt.Fprintf(&b, " Numeric columns: %s.", strings.Join(kinds.Numeric, ", "))
	}
	return b.String()
}
