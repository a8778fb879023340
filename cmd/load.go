package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/datasource"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
	"github.com/KaramelBytes/tabula-cli/internal/suggest"
	"github.com/KaramelBytes/tabula-cli/internal/tools"
)

var (
	loadSource    string
	loadSheet     string
	loadDelimiter string
)

var loadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Load a table as the current dataset",
	Long: `Load a CSV, TSV, TXT, XLSX or HTML table, or a built-in source, as the current dataset.
Later commands (classify, query, insight, suggest, ask) work on it until the next load or clear.`,
	Example: `  tabula load sales.csv
  tabula load report.xlsx --sheet Q3
  tabula load --source population`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (len(args) == 1) == (loadSource != "") {
			return fmt.Errorf("give either a file or --source (%s|%s)", tools.SourcePopulation, tools.SourceStocks)
		}
		var ds *dataset.Dataset
		var note string
		if len(args) == 1 {
			opt := ingestOptions()
			opt.Sheet = loadSheet
			d, err := parseDelimiter(loadDelimiter)
			if err != nil {
				return err
			}
			opt.Delimiter = d
			ds, err = ingest.LoadFile(args[0], opt)
			if err != nil {
				return err
			}
		} else {
			var out datasource.Outcome
			switch strings.ToLower(loadSource) {
			case tools.SourcePopulation:
				out = newPopulation().Load(cmd.Context())
			case tools.SourceStocks:
				out = datasource.Stocks()
			default:
				return fmt.Errorf("unknown --source %q (use %s or %s)", loadSource, tools.SourcePopulation, tools.SourceStocks)
			}
			ds, note = out.Dataset, out.Note
		}

		if err := openWorkspace().SaveDataset(ds); err != nil {
			return fmt.Errorf("save dataset: %w", err)
		}
		sg, err := suggest.Generate(ds)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if ok, err := printJSON(w, map[string]any{
			"datasetId": ds.ID, "source": ds.Source, "rowCount": ds.RowCount(),
			"columns": ds.Columns, "note": note, "suggestions": sg,
		}); ok {
			return err
		}
		fmt.Fprintf(w, "✓ Loaded %s: %d rows, %d columns\n", ds.Source, ds.RowCount(), ds.ColumnCount())
		if note != "" {
			fmt.Fprintf(w, "⚠ Warning: %s\n", note)
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, newRenderer().Suggestions(sg))
		return nil
	},
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported --delimiter: %s", s)
	}
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringVar(&loadSource, "source", "", "built-in source instead of a file: population | stocks")
	loadCmd.Flags().StringVar(&loadSheet, "sheet", "", "XLSX: sheet name (default: first sheet)")
	loadCmd.Flags().StringVar(&loadDelimiter, "delimiter", "", "delimiter: ',' | ';' | 'tab' | 'pipe' (auto-detect if omitted)")
}
