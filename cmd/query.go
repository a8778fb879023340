package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/export"
	"github.com/KaramelBytes/tabula-cli/internal/query"
	"github.com/KaramelBytes/tabula-cli/internal/workspace"
)

var (
	qFilterColumn string
	qFilterValue  string
	qSortColumn   string
	qDirection    string
	qLimit        int
	qExport       string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Filter, sort and limit rows of the current dataset",
	Long: `Filter rows whose column contains a value (case-insensitive), sort by a column, and keep
the first N rows. Column names must exist; an unknown column is an error, never ignored.`,
	Example: `  tabula query --filter-column Region --filter-value east
  tabula query --sort Revenue --direction desc --limit 5
  tabula query --sort Revenue --export top.db`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := openWorkspace()
		ds, err := currentDataset(ws)
		if err != nil {
			return err
		}
		req := query.Request{
			FilterColumn:  qFilterColumn,
			FilterValue:   qFilterValue,
			SortColumn:    qSortColumn,
			SortDirection: qDirection,
		}
		if cmd.Flags().Changed("limit") {
			req = req.WithLimit(qLimit)
		}
		return runQuery(cmd, ws, ds, req)
	},
}

// runQuery executes req, records it as the current view and prints or exports the result.
func runQuery(cmd *cobra.Command, ws *workspace.Workspace, ds *dataset.Dataset, req query.Request) error {
	res, err := query.Run(ds, req)
	if err != nil {
		return err
	}
	view := &workspace.View{Kind: workspace.ViewQuery, DatasetID: ds.ID, Columns: res.Headers, Request: &req}
	if err := ws.SaveView(view); err != nil {
		return fmt.Errorf("save view: %w", err)
	}
	w := cmd.OutOrStdout()
	if qExport != "" {
		if err := export.Write(cmd.Context(), qExport, res); err != nil {
			return err
		}
		fmt.Fprintf(w, "✓ Exported %d rows to %s\n", len(res.Rows), qExport)
		return nil
	}
	if ok, err := printJSON(w, res); ok {
		return err
	}
	fmt.Fprint(w, newRenderer().QueryResult(res))
	return nil
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVar(&qFilterColumn, "filter-column", "", "column to filter on")
	queryCmd.Flags().StringVar(&qFilterValue, "filter-value", "", "text the filter column must contain")
	queryCmd.Flags().StringVar(&qSortColumn, "sort", "", "column to sort by")
	queryCmd.Flags().StringVar(&qDirection, "direction", "", "sort direction: asc | desc (default asc)")
	queryCmd.Flags().IntVar(&qLimit, "limit", 0, "maximum rows to return (positive)")
	queryCmd.Flags().StringVar(&qExport, "export", "", "write the result to a .csv, .json, .db or .sqlite file instead of printing")
}
