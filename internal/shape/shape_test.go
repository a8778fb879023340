package shape

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDataset(t *testing.T, cols []string, rows ...dataset.Row) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New(cols, rows, "test")
	require.NoError(t, err)
	return ds
}

func TestClassify_Cascade(t *testing.T) {
	s, n := dataset.Str, dataset.Num
	tests := []struct {
		name string
		ds   *dataset.Dataset
		want Category
		view View
		conf float64
	}{
		{
			name: "month column wins regardless of counts",
			ds: mustDataset(t, []string{"Month", "Revenue", "Region"},
				dataset.Row{"Month": s("Jan"), "Revenue": n(100), "Region": s("East")},
				dataset.Row{"Month": s("Feb"), "Revenue": n(150), "Region": s("West")}),
			want: TimeSeries, view: ViewChart, conf: 0.95,
		},
		{
			name: "one text two numeric is a ranking",
			ds: mustDataset(t, []string{"Product", "Units", "Revenue"},
				dataset.Row{"Product": s("Widget"), "Units": n(10), "Revenue": n(99.5)}),
			want: Ranking, view: ViewRankedInsight, conf: 0.90,
		},
		{
			name: "two text one numeric is a comparison",
			ds: mustDataset(t, []string{"Country", "Capital", "Population"},
				dataset.Row{"Country": s("France"), "Capital": s("Paris"), "Population": n(68)}),
			want: Comparison, view: ViewDetailCard, conf: 0.85,
		},
		{
			name: "numeric only is categorical-numeric",
			ds: mustDataset(t, []string{"a", "b", "c"},
				dataset.Row{"a": n(1), "b": n(2), "c": n(3)}),
			want: CategoricalNumeric, view: ViewMultiSeriesChart, conf: 0.75,
		},
		{
			name: "single text column is unclassified",
			ds: mustDataset(t, []string{"Name"},
				dataset.Row{"Name": s("x")}),
			want: Unclassified, view: ViewTable, conf: 0.60,
		},
		{
			name: "null first-row cells count as neither",
			ds: mustDataset(t, []string{"Name", "Score", "Other"},
				dataset.Row{"Name": s("x"), "Score": n(1)},
				dataset.Row{"Name": s("y"), "Score": n(2), "Other": n(5)}),
			want: Unclassified, view: ViewTable, conf: 0.60,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.ds)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Category)
			assert.Equal(t, tt.view, got.View)
			assert.InDelta(t, tt.conf, got.Confidence, 1e-9)
			assert.NotEmpty(t, got.Reason)
			assert.Equal(t, 1, got.SampledRows)
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	ds := mustDataset(t, []string{"Product", "Units", "Revenue"},
		dataset.Row{"Product": dataset.Str("A"), "Units": dataset.Num(1), "Revenue": dataset.Num(2)})
	a, err := Classify(ds)
	require.NoError(t, err)
	b, err := Classify(ds)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestClassify_FirstRowFragilityPreserved(t *testing.T) {
	// Units holds a number only in row 1; first-row typing still counts it numeric.
	ds := mustDataset(t, []string{"Product", "Units", "Revenue"},
		dataset.Row{"Product": dataset.Str("A"), "Units": dataset.Num(1), "Revenue": dataset.Num(2)},
		dataset.Row{"Product": dataset.Str("B"), "Units": dataset.Str("unknown"), "Revenue": dataset.Num(3)},
		dataset.Row{"Product": dataset.Str("C"), "Units": dataset.Str("unknown"), "Revenue": dataset.Num(4)})

	got, err := Classify(ds)
	require.NoError(t, err)
	assert.Equal(t, Ranking, got.Category)

	sampled, err := ClassifyWith(ds, Options{SampleRows: 3})
	require.NoError(t, err)
	assert.Equal(t, Comparison, sampled.Category)
	assert.Equal(t, 3, sampled.SampledRows)
}

func TestClassify_Errors(t *testing.T) {
	_, err := Classify(nil)
	assert.True(t, errors.Is(err, apperrors.ErrNoData))

	empty := mustDataset(t, []string{"a"})
	_, err = Classify(empty)
	assert.True(t, errors.Is(err, apperrors.ErrMalformedSource))
}
