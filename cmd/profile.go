package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabula-cli/internal/analysis"
	"github.com/KaramelBytes/tabula-cli/internal/dataset"
	"github.com/KaramelBytes/tabula-cli/internal/ingest"
)

var (
	proOutputPath string
	proDelimiter  string
	proSampleRows int
	proMaxRows    int
	proCorr       bool
	proSheetName  string
	proDecimal    string
	proThousands  string
	proOutliers   bool
	proOutlierThr float64
	proUnits      bool
)

var profileCmd = &cobra.Command{
	Use:   "profile [file]",
	Short: "Profile a table column by column (types, stats, outliers, correlations)",
	Long: `Profile the given file, or the current dataset when no file is given, and print a
Markdown report with per-column kinds, missing counts, statistics, robust outliers and the
strongest correlations.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := analysis.DefaultOptions()
		if proSampleRows > 0 {
			opt.SampleRows = proSampleRows
		}
		if cmd.Flags().Changed("max-rows") {
			opt.MaxRows = proMaxRows
		}
		loc, err := parseLocale(proDecimal, proThousands)
		if err != nil {
			return err
		}
		opt.Locale = loc
		opt.Correlations = proCorr
		opt.Outliers = proOutliers
		opt.UnitNormalize = proUnits
		if proOutlierThr > 0 {
			opt.OutlierThreshold = proOutlierThr
		}

		var ds *dataset.Dataset
		if len(args) == 1 {
			iopt := ingestOptions()
			iopt.Sheet = proSheetName
			if loc != (dataset.Locale{}) {
				iopt.Locale = loc
			}
			if iopt.Delimiter, err = parseDelimiter(proDelimiter); err != nil {
				return err
			}
			if ds, err = ingest.LoadFile(args[0], iopt); err != nil {
				return err
			}
		} else if ds, err = currentDataset(openWorkspace()); err != nil {
			return err
		}

		rep := analysis.Profile(ds, opt)
		w := cmd.OutOrStdout()
		if ok, err := printJSON(w, rep); ok {
			return err
		}
		md := rep.Markdown()
		if proOutputPath != "" {
			if err := os.WriteFile(proOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(w, "✓ Wrote profile to %s\n", proOutputPath)
			return nil
		}
		out, err := newRenderer().Markdown(md)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)
		return nil
	},
}

// parseLocale reads --decimal/--thousands. Empty values auto-detect.
func parseLocale(decimal, thousands string) (dataset.Locale, error) {
	var loc dataset.Locale
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case ",", "comma":
		loc.Decimal = ','
	case ".", "dot":
		loc.Decimal = '.'
	case "":
	default:
		return loc, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", decimal)
	}
	switch strings.ToLower(thousands) {
	case ",", "comma":
		loc.Thousands = ','
	case ".", "dot":
		loc.Thousands = '.'
	case "space", " ":
		loc.Thousands = ' '
	case "":
	default:
		return loc, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", thousands)
	}
	return loc, nil
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&proOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	profileCmd.Flags().StringVar(&proDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe'")
	profileCmd.Flags().StringVar(&proDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	profileCmd.Flags().StringVar(&proThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	profileCmd.Flags().IntVar(&proSampleRows, "sample-rows", 5, "number of sample rows to include")
	profileCmd.Flags().IntVar(&proMaxRows, "max-rows", 100000, "maximum rows to process (0 = unlimited)")
	profileCmd.Flags().BoolVar(&proCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	profileCmd.Flags().BoolVar(&proOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	profileCmd.Flags().Float64Var(&proOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	profileCmd.Flags().BoolVar(&proUnits, "normalize-units", false, "convert unit-tagged columns (g/L to mg/L, °F to °C) before computing stats")
	profileCmd.Flags().StringVar(&proSheetName, "sheet", "", "XLSX: sheet name to profile")
}
