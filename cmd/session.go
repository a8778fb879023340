package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	cfgpkg "github.com/KaramelBytes/tabula-cli/internal/config"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/datasource"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
	"github.com/KaramelBytes/tabula-cli/internal/render"
	"github.com/KaramelBytes/tabula-cli/internal/utils"
	"github.com/KaramelBytes/tabula-cli/internal/workspace"
)

func openWorkspace() *workspace.Workspace {
	return workspace.Open(cfg.SessionDir)
}

// currentDataset loads the dataset saved by the last `tabula load`.
func currentDataset(ws *workspace.Workspace) (*dataset.Dataset, error) {
	ds, err := ws.LoadDataset()
	if errors.Is(err, apperrors.ErrNoData) {
		return nil, fmt.Errorf("%w: run 'tabula load <file>' first", err)
	}
	return ds, err
}

func ingestOptions() ingest.Options {
	opt := ingest.DefaultOptions()
	if cfg.MaxUploadBytes > 0 {
		opt.MaxBytes = cfg.MaxUploadBytes
	}
	if len(cfg.AllowedExtensions) > 0 {
		opt.AllowedExtensions = cfg.AllowedExtensions
	}
	opt.Locale = dataset.Locale{
		Decimal:   cfgpkg.Rune(cfg.DecimalSeparator),
		Thousands: cfgpkg.Rune(cfg.ThousandsSep),
	}
	return opt
}

func newPopulation() *datasource.Population {
	p := datasource.NewPopulation(cfg.PopulationCountry, time.Duration(cfg.FetchTimeoutMs)*time.Millisecond, logger)
	if cfg.WorldBankURL != "" {
		p.BaseURL = cfg.WorldBankURL
	}
	return p
}

func newRenderer() *render.Renderer {
	return render.New(plain, 0)
}

// printJSON writes v as indented JSON when --json is set and reports whether it did.
func printJSON(w io.Writer, v any) (bool, error) {
	if !jsonOutput {
		return false, nil
	}
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return true, err
	}
	_, err = fmt.Fprintln(w, string(b))
	return true, err
}
