package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/insight"
	"github.com/KaramelBytes/tabula-cli/internal/workspace"
)

var (
	insColumn string
	insLimit  int
)

var insightCmd = &cobra.Command{
	Use:   "insight [type]",
	Short: "Summarize the current dataset",
	Long: fmt.Sprintf(`Generate an insight over the current dataset. Types: %s.
Unknown types fall back to summary.`, strings.Join(insight.Types, ", ")),
	Example: `  tabula insight
  tabula insight top_performers --column Revenue --limit 3
  tabula insight trends`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: insight.Types,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := openWorkspace()
		ds, err := currentDataset(ws)
		if err != nil {
			return err
		}
		typ := insight.Summary
		if len(args) == 1 {
			typ = args[0]
		}
		if cmd.Flags().Changed("limit") && insLimit <= 0 {
			return fmt.Errorf("%w: --limit must be positive", apperrors.ErrInvalidArgument)
		}
		in, err := insight.Generate(ds, typ, insight.Options{Column: insColumn, Limit: insLimit})
		if err != nil {
			return err
		}
		view := &workspace.View{Kind: workspace.ViewInsight, DatasetID: ds.ID, Columns: ds.Columns, AnalysisType: in.Type}
		if err := ws.SaveView(view); err != nil {
			return fmt.Errorf("save view: %w", err)
		}
		w := cmd.OutOrStdout()
		if ok, err := printJSON(w, in); ok {
			return err
		}
		fmt.Fprint(w, newRenderer().Insight(in))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insightCmd)
	insightCmd.Flags().StringVar(&insColumn, "column", "", "numeric column to rank by (top_performers)")
	insightCmd.Flags().IntVar(&insLimit, "limit", 0, "number of top performers (default 5)")
}
