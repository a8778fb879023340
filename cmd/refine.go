package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabula-cli/internal/apperrors"
	"github.com/KaramelBytes/tabula-cli/internal/query"
	"github.com/KaramelBytes/tabula-cli/internal/refine"
	"github.com/KaramelBytes/tabula-cli/internal/workspace"
)

var (
	refApply     bool
	refThreshold float64
)

var refineCmd = &cobra.Command{
	Use:   "refine <message>",
	Short: "Decide whether a message refines the last result or starts over",
	Long: `Score a chat message against the last shown result. Messages like "sort it by revenue"
or "only the top 3" refine it; "load a new file" starts over. With --apply, a refinement of a
query result is merged into the previous query and run.`,
	Example: `  tabula refine "sort that by Revenue descending" --apply`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg := strings.Join(args, " ")
		ws := openWorkspace()
		ds, err := ws.LoadDataset()
		if err != nil && !errors.Is(err, apperrors.ErrNoData) {
			return err
		}
		view, err := ws.ViewFor(ds)
		if err != nil {
			return err
		}
		threshold := cfg.RefineThreshold
		if cmd.Flags().Changed("threshold") {
			threshold = refThreshold
		}
		dec := refine.NewDetector(threshold).Detect(msg, view.Refinable())

		if refApply && dec.Refinement && dec.Request != nil && view.Kind == workspace.ViewQuery {
			return runQuery(cmd, ws, ds, merge(view.Request, dec.Request))
		}
		w := cmd.OutOrStdout()
		if ok, err := printJSON(w, dec); ok {
			return err
		}
		fmt.Fprint(w, newRenderer().Decision(dec))
		if refApply && !dec.Refinement {
			fmt.Fprintln(w, "⚠ Warning: not a refinement; nothing applied")
		}
		return nil
	},
}

// merge overlays the sort and limit derived from a message onto the previous request.
func merge(prev, next *query.Request) query.Request {
	var out query.Request
	if prev != nil {
		out = *prev
	}
	if next.SortColumn != "" {
		out.SortColumn, out.SortDirection = next.SortColumn, next.SortDirection
	}
	if next.Limit != nil {
		out = out.WithLimit(*next.Limit)
	}
	return out
}

func init() {
	rootCmd.AddCommand(refineCmd)
	refineCmd.Flags().BoolVar(&refApply, "apply", false, "run the refined query when the message refines a query result")
	refineCmd.Flags().Float64Var(&refThreshold, "threshold", 0, "score needed to count as a refinement (overrides config)")
}
