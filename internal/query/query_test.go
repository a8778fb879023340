package query

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
)

func salesDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	s, n := dataset.Str, dataset.Num
	ds, err := dataset.New([]string{"Month", "Revenue", "Region"}, []dataset.Row{
		{"Month": s("Jan"), "Revenue": n(100), "Region": s("East")},
		{"Month": s("Feb"), "Revenue": n(150), "Region": s("West")},
		{"Month": s("Mar"), "Revenue": n(100), "Region": s("Northeast")},
		{"Month": s("Apr"), "Revenue": n(90), "Region": s("south")},
	}, "sales.csv")
	require.NoError(t, err)
	return ds
}

func TestRun_RoundTrip(t *testing.T) {
	ds := salesDataset(t)
	res, err := Run(ds, Request{})
	require.NoError(t, err)

	want := [][]string{
		{"Jan", "100", "East"},
		{"Feb", "150", "West"},
		{"Mar", "100", "Northeast"},
		{"Apr", "90", "south"},
	}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"Month", "Revenue", "Region"}, res.Headers)
	assert.Equal(t, 4, res.TotalRows)
}

func TestRun_FilterCaseInsensitiveSubstring(t *testing.T) {
	ds, err := dataset.New([]string{"Month", "Revenue", "Region"}, []dataset.Row{
		{"Month": dataset.Str("Jan"), "Revenue": dataset.Num(100), "Region": dataset.Str("East")},
		{"Month": dataset.Str("Feb"), "Revenue": dataset.Num(150), "Region": dataset.Str("West")},
	}, "t")
	require.NoError(t, err)

	res, err := Run(ds, Request{FilterColumn: "Region", FilterValue: "east"})
	require.NoError(t, err)
	if diff := cmp.Diff([][]string{{"Jan", "100", "East"}}, res.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, res.TotalRows)
}

func TestRun_FilterNumericEquality(t *testing.T) {
	res, err := Run(salesDataset(t), Request{FilterColumn: "Revenue", FilterValue: "100"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalRows)

	res, err = Run(salesDataset(t), Request{FilterColumn: "Revenue", FilterValue: "10"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalRows, "numbers match by equality, not substring")
}

func TestRun_FilterNoMatchReportsFilteredTotal(t *testing.T) {
	res, err := Run(salesDataset(t), Request{FilterColumn: "Region", FilterValue: "atlantis"})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Equal(t, 0, res.TotalRows)
	assert.Equal(t, []Stat{{Label: "Total Rows", Value: "0"}}, res.Summary)
}

func TestRun_SortNumericAndStable(t *testing.T) {
	ds := salesDataset(t)
	res, err := Run(ds, Request{SortColumn: "Revenue", SortDirection: "desc"})
	require.NoError(t, err)
	got := make([]string, len(res.Rows))
	for i, r := range res.Rows {
		got[i] = r[0]
	}
	// Jan and Mar tie at 100 and keep their original order.
	assert.Equal(t, []string{"Feb", "Jan", "Mar", "Apr"}, got)

	again, err := Run(ds, Request{SortColumn: "Revenue", SortDirection: "desc"})
	require.NoError(t, err)
	assert.Equal(t, res.Rows, again.Rows)
}

func TestRun_SortTreatsNaNTextAsText(t *testing.T) {
	s, n := dataset.Str, dataset.Num
	ds, err := dataset.New([]string{"Name", "Score"}, []dataset.Row{
		{"Name": s("A"), "Score": n(30)},
		{"Name": s("B"), "Score": s("NaN")},
		{"Name": s("C"), "Score": n(10)},
		{"Name": s("D"), "Score": s("Inf")},
	}, "scores.csv")
	require.NoError(t, err)

	res, err := Run(ds, Request{SortColumn: "Score", SortDirection: "asc"})
	require.NoError(t, err)
	want := [][]string{{"C", "10"}, {"A", "30"}, {"D", "Inf"}, {"B", "NaN"}}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Fatalf("ascending sort (-want +got):\n%s", diff)
	}
}

func TestSort_Idempotent(t *testing.T) {
	ds := salesDataset(t)
	once := Sort(ds.Rows, "Revenue", false)
	twice := Sort(once, "Revenue", false)
	assert.Equal(t, once, twice)
}

func TestRun_SortTextIsCaseInsensitive(t *testing.T) {
	res, err := Run(salesDataset(t), Request{SortColumn: "region"})
	require.NoError(t, err)
	got := make([]string, len(res.Rows))
	for i, r := range res.Rows {
		got[i] = r[2]
	}
	assert.Equal(t, []string{"East", "Northeast", "south", "West"}, got)
}

func TestRun_LimitAfterSort(t *testing.T) {
	ds := salesDataset(t)
	sorted, err := Run(ds, Request{SortColumn: "Revenue", SortDirection: "asc"})
	require.NoError(t, err)

	limited, err := Run(ds, Request{SortColumn: "Revenue", SortDirection: "asc"}.WithLimit(2))
	require.NoError(t, err)
	assert.Equal(t, sorted.Rows[:2], limited.Rows)
	assert.Equal(t, 4, limited.TotalRows)

	big, err := Run(ds, Request{}.WithLimit(100))
	require.NoError(t, err)
	assert.Len(t, big.Rows, 4)
}

func TestRun_Averages(t *testing.T) {
	res, err := Run(salesDataset(t), Request{FilterColumn: "Region", FilterValue: "east"})
	require.NoError(t, err)
	want := []Stat{
		{Label: "Total Rows", Value: "2"},
		{Label: "Avg Revenue", Value: "100.00"},
	}
	if diff := cmp.Diff(want, res.Summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_CapsAtThreeColumns(t *testing.T) {
	n := dataset.Num
	ds, err := dataset.New([]string{"a", "b", "c", "d"}, []dataset.Row{
		{"a": n(1), "b": n(2), "c": n(3), "d": n(4)},
		{"a": n(2), "b": n(3), "c": n(4), "d": n(5)},
	}, "t")
	require.NoError(t, err)
	stats := Aggregate(ds, ds.Rows)
	require.Len(t, stats, 4)
	assert.Equal(t, Stat{Label: "Avg a", Value: "1.50"}, stats[1])
	assert.Equal(t, Stat{Label: "Avg c", Value: "3.50"}, stats[3])
}

func TestRun_Rejections(t *testing.T) {
	ds := salesDataset(t)

	_, err := Run(nil, Request{})
	assert.True(t, errors.Is(err, apperrors.ErrNoData))

	_, err = Run(ds, Request{SortColumn: "Profit"})
	var colErr *apperrors.ColumnError
	require.True(t, errors.As(err, &colErr))
	assert.Equal(t, "Profit", colErr.Column)
	assert.Equal(t, "sort", colErr.Op)

	_, err = Run(ds, Request{FilterColumn: "Country", FilterValue: "x"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidReference))

	_, err = Run(ds, Request{FilterColumn: "Country"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidReference), "column is validated even without a value")

	_, err = Run(ds, Request{}.WithLimit(0))
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))

	_, err = Run(ds, Request{SortColumn: "Revenue", SortDirection: "up"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestRun_RejectsHalfSpecifiedRequests(t *testing.T) {
	ds := salesDataset(t)
	for name, req := range map[string]Request{
		"value without column":     {FilterValue: "east"},
		"column without value":     {FilterColumn: "Region"},
		"blank value":              {FilterColumn: "Region", FilterValue: "  "},
		"direction without column": {SortDirection: "desc"},
	} {
		_, err := Run(ds, req)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument, name)
	}
}
