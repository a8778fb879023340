package analysis

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Markdown renders the report as a Markdown document suitable for a terminal
// renderer or an LLM prompt.
func (r *Report) Markdown() string {
	var b strings.Builder
	name := r.Name
	if name == "" {
		name = "dataset"
	}
	fmt.Fprintf(&b, "# Profile: %s\n\n", safeVal(name))
	if r.Processed > 0 && r.Processed < r.Rows {
		fmt.Fprintf(&b, "**Rows:** ~%s (processed %s) · **Columns:** %d\n\n", humanize.Comma(int64(r.Rows)), humanize.Comma(int64(r.Processed)), len(r.Cols))
	} else {
		fmt.Fprintf(&b, "**Rows:** %s · **Columns:** %d\n\n", humanize.Comma(int64(r.Rows)), len(r.Cols))
	}

	b.WriteString("## Columns\n\n")
	b.WriteString("| Column | Kind | Non-null | Missing | Details |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, c := range r.Cols {
		label := safeName(c.Label)
		if c.Unit != "" {
			label = fmt.Sprintf("%s [%s]", label, c.Unit)
		}
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		fmt.Fprintf(&b, "| %s | %s | %d | %.1f%% | %s |\n", safeVal(label), c.Kind, c.NonNull, missPct, safeVal(details(c)))
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n## Correlations\n\n")
		for _, p := range r.Corr.TopPairs(10) {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n## Sample rows\n\n|")
		for _, c := range r.Cols {
			fmt.Fprintf(&b, " %s |", safeVal(safeName(c.Name)))
		}
		b.WriteString("\n|")
		for range r.Cols {
			b.WriteString("---|")
		}
		b.WriteString("\n")
		for _, row := range r.Samples {
			b.WriteString("|")
			for i := range r.Cols {
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				fmt.Fprintf(&b, " %s |", safeVal(val))
			}
			b.WriteString("\n")
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func details(c ColumnSummary) string {
	switch c.Kind {
	case KindNumeric:
		s := fmt.Sprintf("min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std)
		if c.OutlierThreshold > 0 {
			s += fmt.Sprintf("; outliers: %d above robust z %.1f", c.OutliersCount, c.OutlierThreshold)
			if c.OutliersMaxAbsZ > 0 {
				s += fmt.Sprintf(" (max %.2f)", c.OutliersMaxAbsZ)
			}
		}
		return s
	case KindCategorical:
		parts := make([]string, len(c.TopValues))
		for i, kv := range c.TopValues {
			parts[i] = fmt.Sprintf("%s(%d)", kv.Value, kv.Count)
		}
		s := "top: " + strings.Join(parts, ", ")
		if c.Unique > len(c.TopValues) {
			s += fmt.Sprintf("; unique=%d", c.Unique)
		}
		return s
	case KindText:
		return "e.g. " + strings.Join(c.ExampleTexts, " / ")
	default:
		return ""
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
