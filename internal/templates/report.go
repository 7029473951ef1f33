package templates

import (
	"encoding/json"
	"fmt"
	"strings"

	"docgen-api/internal/models"
)

// ReportGenerator renders tabular reports for the PDF output path (the
// Excel path bypasses markup and writes the workbook directly).
type ReportGenerator struct{}

func (g *ReportGenerator) TemplateID() string { return "report" }

func (g *ReportGenerator) Validate(data json.RawMessage) error {
	var rep models.ReportData
	if err := json.Unmarshal(data, &rep); err != nil {
		return fmt.Errorf("invalid report payload: %w", err)
	}
	if rep.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(rep.Columns) == 0 {
		return fmt.Errorf("columns are required")
	}
	return nil
}

func (g *ReportGenerator) Generate(data json.RawMessage) (string, error) {
	if err := g.Validate(data); err != nil {
		return "", err
	}
	var rep models.ReportData
	if err := json.Unmarshal(data, &rep); err != nil {
		return "", fmt.Errorf("invalid report payload: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#align(center)[#text(size: 16pt, weight: \"bold\")[%s]]\n", escapeTypst(rep.Title))
	if rep.PeriodStart != "" || rep.PeriodEnd != "" {
		fmt.Fprintf(&b, "#align(center)[#text(size: 10pt)[Period: %s to %s]]\n",
			escapeTypst(rep.PeriodStart), escapeTypst(rep.PeriodEnd))
	}
	b.WriteString("#v(15pt)\n")

	fmt.Fprintf(&b, "#table(\n  columns: %d,\n  stroke: 0.5pt + gray,\n  inset: 6pt,\n", len(rep.Columns))
	for _, col := range rep.Columns {
		fmt.Fprintf(&b, "  [*%s*],", escapeTypst(col))
	}
	b.WriteString("\n")
	for _, row := range rep.Rows {
		b.WriteString(" ")
		for _, col := range rep.Columns {
			val, ok := row[col]
			if !ok {
				val = "-"
			}
			fmt.Fprintf(&b, " [%s],", escapeTypst(val))
		}
		b.WriteString("\n")
	}
	b.WriteString(")\n")

	if len(rep.Summary) > 0 {
		b.WriteString("#v(15pt)\n#text(weight: \"bold\")[Summary]\n#table(\n  columns: 2,\n  stroke: none,\n  inset: 4pt,\n")
		for k, v := range rep.Summary {
			fmt.Fprintf(&b, "  [*%s:*], [%s],\n", escapeTypst(k), escapeTypst(v))
		}
		b.WriteString(")\n")
	}

	return b.String(), nil
}
