// Package render formats tool results for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/KaramelBytes/tabula-cli/internal/insight"
	"github.com/KaramelBytes/tabula-cli/internal/query"
	"github.com/KaramelBytes/tabula-cli/internal/refine"
	"github.com/KaramelBytes/tabula-cli/internal/shape"
	"github.com/KaramelBytes/tabula-cli/internal/suggest"
)

var (
	accent  = lipgloss.Color("#8BC34A")
	border  = lipgloss.Color("#2a3850")
	warning = lipgloss.Color("#FFC107")
	muted   = lipgloss.Color("#909aa8")
)

// Renderer turns results into terminal text. Plain output has no color, an
// ASCII border and unrendered Markdown.
type Renderer struct {
	Plain bool
	Width int

	title   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	dim     lipgloss.Style
	classes map[string]lipgloss.Style
}

// New returns a renderer. Width <= 0 means 80 columns.
func New(plain bool, width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	r := &Renderer{Plain: plain, Width: width}
	base := lipgloss.NewStyle()
	r.cell = base.Padding(0, 1)
	r.header = r.cell
	r.title, r.dim = base, base
	r.classes = map[string]lipgloss.Style{}
	if !plain {
		r.title = base.Bold(true).Foreground(accent)
		r.header = r.cell.Bold(true).Foreground(accent)
		r.dim = base.Foreground(muted)
		r.classes[insight.ClassPositive] = base.Foreground(accent)
		r.classes[insight.ClassWarning] = base.Foreground(warning)
	}
	return r
}

func (r *Renderer) table(headers []string, rows [][]string) string {
	t := table.New().
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.header
			}
			return r.cell
		})
	if r.Plain {
		t = t.Border(lipgloss.ASCIIBorder())
	} else {
		t = t.Border(lipgloss.RoundedBorder()).BorderStyle(lipgloss.NewStyle().Foreground(border))
	}
	return t.String()
}

// QueryResult renders the visible rows followed by the summary stats.
func (r *Renderer) QueryResult(res *query.Result) string {
	var b strings.Builder
	if len(res.Rows) == 0 {
		b.WriteString(r.dim.Render("(no matching rows)"))
	} else {
		b.WriteString(r.table(res.Headers, res.Rows))
	}
	b.WriteString("\n")
	for _, s := range res.Summary {
		fmt.Fprintf(&b, "%s %s\n", r.dim.Render(s.Label+":"), s.Value)
	}
	return b.String()
}

// Insight renders the title, metrics, ranking and recommendations.
func (r *Renderer) Insight(in *insight.Insight) string {
	var b strings.Builder
	b.WriteString(r.title.Render(in.Title))
	b.WriteString("\n")
	if in.Description != "" {
		b.WriteString(lipgloss.NewStyle().Width(r.Width).Render(in.Description))
		b.WriteString("\n")
	}
	if len(in.Metrics) > 0 {
		b.WriteString("\n")
		for _, m := range in.Metrics {
			style, ok := r.classes[m.Class]
			if !ok {
				style = lipgloss.NewStyle()
			}
			fmt.Fprintf(&b, "  %s %s\n", r.dim.Render(m.Label+":"), style.Render(m.Value))
		}
	}
	if len(in.TopPerformers) > 0 {
		rows := make([][]string, 0, len(in.TopPerformers))
		for _, p := range in.TopPerformers {
			rows = append(rows, []string{fmt.Sprintf("%d", p.Rank), p.Name, p.Value, p.Detail})
		}
		b.WriteString("\n")
		b.WriteString(r.table([]string{"#", "Name", "Value", "Share"}, rows))
		b.WriteString("\n")
	}
	if len(in.Recommendations) > 0 {
		b.WriteString("\n")
		for _, rec := range in.Recommendations {
			fmt.Fprintf(&b, "  • %s\n", rec)
		}
	}
	return b.String()
}

// Classification renders the category, recommended view and reason.
func (r *Renderer) Classification(c shape.Classification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", r.dim.Render("Category:"), r.title.Render(string(c.Category)))
	fmt.Fprintf(&b, "%s %s\n", r.dim.Render("View:"), c.View)
	fmt.Fprintf(&b, "%s %.0f%%\n", r.dim.Render("Confidence:"), c.Confidence*100)
	fmt.Fprintf(&b, "%s %s\n", r.dim.Render("Reason:"), c.Reason)
	return b.String()
}

// Suggestions renders the dataset description and numbered follow-ups.
func (r *Renderer) Suggestions(s *suggest.Result) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Width(r.Width).Render(s.MainInsight))
	b.WriteString("\n\n")
	for i, sg := range s.Suggestions {
		fmt.Fprintf(&b, "%d. %s %s\n", i+1, r.title.Render(sg.Label), r.dim.Render("("+sg.Query+")"))
	}
	return b.String()
}

// Decision renders a refinement verdict.
func (r *Renderer) Decision(d refine.Decision) string {
	verdict := "new request"
	if d.Refinement {
		verdict = "refinement"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (score %.2f, threshold %.2f)\n", r.dim.Render("Verdict:"), r.title.Render(verdict), d.Score, d.Threshold)
	if len(d.Cues) > 0 {
		fmt.Fprintf(&b, "%s %s\n", r.dim.Render("Cues:"), strings.Join(d.Cues, ", "))
	}
	return b.String()
}

// Markdown renders md with glamour, or returns it unchanged in plain mode.
func (r *Renderer) Markdown(md string) (string, error) {
	if r.Plain {
		return md, nil
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(r.Width),
	)
	if err != nil {
		return "", fmt.Errorf("init markdown renderer: %w", err)
	}
	out, err := tr.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
