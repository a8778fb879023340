// Package workspace persists the current dataset and the current view between
// CLI invocations.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/query"
	"github.com/KaramelBytes/tabula-cli/internal/refine"
	"github.com/KaramelBytes/tabula-cli/internal/utils"
)

const (
	datasetFileName = "current.json"
	viewFileName    = "view.json"
)

// View kinds.
const (
	ViewQuery          = "query"
	ViewInsight        = "insight"
	ViewClassification = "classification"
)

// View records what was last shown for the current dataset.
type View struct {
	Kind         string         `json:"kind"`
	DatasetID    string         `json:"dataset_id"`
	Columns      []string       `json:"columns"`
	Request      *query.Request `json:"request,omitempty"`
	AnalysisType string         `json:"analysis_type,omitempty"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Refinable returns the detector's view of v.
func (v *View) Refinable() *refine.View {
	if v == nil {
		return nil
	}
	return &refine.View{Kind: v.Kind, Columns: v.Columns}
}

// Workspace is a session directory on disk.
type Workspace struct {
	dir string
}

// Open returns a workspace rooted at dir. The directory is created on first save.
func Open(dir string) *Workspace {
	return &Workspace{dir: dir}
}

// Dir returns the on-disk session directory.
func (w *Workspace) Dir() string { return w.dir }

// SaveDataset writes ds as the current dataset and drops any view of the
// previous one.
func (w *Workspace) SaveDataset(ds *dataset.Dataset) error {
	if err := w.writeJSON(datasetFileName, ds); err != nil {
		return err
	}
	return w.removeFile(viewFileName)
}

// LoadDataset reads the current dataset, or ErrNoData if none is saved.
func (w *Workspace) LoadDataset() (*dataset.Dataset, error) {
	b, err := os.ReadFile(filepath.Join(w.dir, datasetFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.ErrNoData
		}
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var raw dataset.Dataset
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	ds, err := dataset.New(raw.Columns, raw.Rows, raw.Source)
	if err != nil {
		return nil, fmt.Errorf("saved dataset is invalid: %w", err)
	}
	ds.ID, ds.LoadedAt = raw.ID, raw.LoadedAt
	return ds, nil
}

// SaveView records the view currently on screen.
func (w *Workspace) SaveView(v *View) error {
	v.UpdatedAt = time.Now().UTC()
	return w.writeJSON(viewFileName, v)
}

// LoadView returns the saved view, or nil if there is none.
func (w *Workspace) LoadView() (*View, error) {
	b, err := os.ReadFile(filepath.Join(w.dir, viewFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read view: %w", err)
	}
	var v View
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("parse view: %w", err)
	}
	return &v, nil
}

// ViewFor returns the saved view only if it belongs to ds.
func (w *Workspace) ViewFor(ds *dataset.Dataset) (*View, error) {
	v, err := w.LoadView()
	if err != nil || v == nil || ds == nil || v.DatasetID != ds.ID {
		return nil, err
	}
	return v, nil
}

// Clear removes the saved dataset and view.
func (w *Workspace) Clear() error {
	if err := w.removeFile(viewFileName); err != nil {
		return err
	}
	return w.removeFile(datasetFileName)
}

func (w *Workspace) writeJSON(name string, v any) error {
	if w.dir == "" {
		return errors.New("workspace directory not set")
	}
	if err := utils.EnsureDir(w.dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	data, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(w.dir, name), data)
}

func (w *Workspace) removeFile(name string) error {
	if err := os.Remove(filepath.Join(w.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
