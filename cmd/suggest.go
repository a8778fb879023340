package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabula-cli/internal/suggest"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Describe the current dataset and suggest questions to ask",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := currentDataset(openWorkspace())
		if err != nil {
			return err
		}
		res, err := suggest.Generate(ds)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if ok, err := printJSON(w, res); ok {
			return err
		}
		fmt.Fprint(w, newRenderer().Suggestions(res))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)
}
