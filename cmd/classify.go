package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabula-cli/internal/shape"
	"github.com/KaramelBytes/tabula-cli/internal/workspace"
)

var clsSampleRows int

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the current dataset's shape and recommend a view",
	Long: `Classify the current dataset as time-series, ranking, comparison or categorical-numeric.
Column types come from the first data row unless --sample-rows asks for a majority vote over
more rows, which can change the result for columns with mixed values.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := openWorkspace()
		ds, err := currentDataset(ws)
		if err != nil {
			return err
		}
		n := cfg.ClassifySampleRows
		if cmd.Flags().Changed("sample-rows") {
			n = clsSampleRows
		}
		c, err := shape.ClassifyWith(ds, shape.Options{SampleRows: n})
		if err != nil {
			return err
		}
		if err := ws.SaveView(&workspace.View{Kind: workspace.ViewClassification, DatasetID: ds.ID, Columns: ds.Columns}); err != nil {
			return fmt.Errorf("save view: %w", err)
		}
		w := cmd.OutOrStdout()
		if ok, err := printJSON(w, c); ok {
			return err
		}
		fmt.Fprint(w, newRenderer().Classification(c))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().IntVar(&clsSampleRows, "sample-rows", 1, "rows used to type columns (1 = first row only)")
}
