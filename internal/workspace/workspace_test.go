package workspace_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/query"
	"github.com/KaramelBytes/tabula-cli/internal/workspace"
)

func sample(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New([]string{"Month", "Revenue"}, []dataset.Row{
		{"Month": dataset.Str("Jan"), "Revenue": dataset.Num(100)},
		{"Month": dataset.Str("Feb")},
	}, "sales.csv")
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestDatasetPersistsAcrossOpens(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "session")
	ws := workspace.Open(dir)
	if _, err := ws.LoadDataset(); !errors.Is(err, apperrors.ErrNoData) {
		t.Fatalf("expected no data before save, got %v", err)
	}
	ds := sample(t)
	if err := ws.SaveDataset(ds); err != nil {
		t.Fatalf("save: %v", err)
	}

	back, err := workspace.Open(dir).LoadDataset()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if back.ID != ds.ID || !back.LoadedAt.Equal(ds.LoadedAt) || back.Source != "sales.csv" {
		t.Fatalf("metadata not preserved: %+v", back)
	}
	if v, ok := back.Rows[0].Get("Revenue").Number(); !ok || v != 100 {
		t.Fatalf("revenue = %v %v", v, ok)
	}
	if !back.Rows[1].Get("Revenue").IsNull() {
		t.Fatalf("missing cell should stay missing")
	}
}

func TestViewLifecycle(t *testing.T) {
	ws := workspace.Open(t.TempDir())
	ds := sample(t)
	if err := ws.SaveDataset(ds); err != nil {
		t.Fatal(err)
	}
	req := query.Request{SortColumn: "Revenue", SortDirection: "desc"}.WithLimit(3)
	if err := ws.SaveView(&workspace.View{Kind: workspace.ViewQuery, DatasetID: ds.ID, Columns: ds.Columns, Request: &req}); err != nil {
		t.Fatalf("save view: %v", err)
	}
	v, err := ws.ViewFor(ds)
	if err != nil || v == nil {
		t.Fatalf("view = %v, err = %v", v, err)
	}
	if v.Request == nil || *v.Request.Limit != 3 || v.Refinable().Columns[1] != "Revenue" {
		t.Fatalf("unexpected view: %+v", v)
	}

	// A new dataset invalidates the old view.
	other := sample(t)
	if err := ws.SaveDataset(other); err != nil {
		t.Fatal(err)
	}
	if v, _ := ws.LoadView(); v != nil {
		t.Fatalf("view should be dropped on new dataset")
	}

	if err := ws.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := ws.LoadDataset(); !errors.Is(err, apperrors.ErrNoData) {
		t.Fatalf("expected no data after clear, got %v", err)
	}
	if err := ws.Clear(); err != nil {
		t.Fatalf("clear twice: %v", err)
	}
}
