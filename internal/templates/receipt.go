package templates

import (
	"encoding/json"
	"fmt"
	"strings"

	"docgen-api/internal/models"
)

// ReceiptGenerator renders the compact payment receipt layout.
type ReceiptGenerator struct{}

func (g *ReceiptGenerator) TemplateID() string { return "receipt" }

func (g *ReceiptGenerator) Validate(data json.RawMessage) error {
	var rec models.InvoiceData
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("invalid receipt payload: %w", err)
	}
	if rec.InvoiceNumber == "" {
		return fmt.Errorf("invoice_number is required")
	}
	if rec.Company.Name == "" {
		return fmt.Errorf("company.name is required")
	}
	if len(rec.Items) == 0 {
		return fmt.Errorf("at least one line item is required")
	}
	return nil
}

func (g *ReceiptGenerator) Generate(data json.RawMessage) (string, error) {
	if err := g.Validate(data); err != nil {
		return "", err
	}
	var rec models.InvoiceData
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", fmt.Errorf("invalid receipt payload: %w", err)
	}

	totals := rec.EffectiveTotals()

	var b strings.Builder
	fmt.Fprintf(&b, "#align(center)[#text(size: 16pt, weight: \"bold\")[%s]]\n", escapeTypst(rec.Company.Name))
	if rec.Company.Phone != "" {
		fmt.Fprintf(&b, "#align(center)[#text(size: 9pt)[Tel: %s]]\n", escapeTypst(rec.Company.Phone))
	}
	b.WriteString("#v(10pt)\n#align(center)[#rect(stroke: 2pt + black, inset: 5pt)[#text(size: 12pt, weight: \"bold\")[PAYMENT RECEIPT]]]\n#v(10pt)\n")

	fmt.Fprintf(&b, "#grid(columns: (1fr, 1fr),\n  [#text(weight: \"bold\")[Receipt No:] %s],\n  [#align(right)[#text(weight: \"bold\")[Date:] %s]]\n)\n",
		escapeTypst(rec.InvoiceNumber), escapeTypst(rec.IssueDate))
	b.WriteString("#v(10pt)\n#line(length: 100%, stroke: 0.5pt)\n#v(10pt)\n")

	b.WriteString("#table(\n  columns: (1fr, 50pt, 70pt, 70pt),\n  stroke: none,\n  inset: 5pt,\n  [*Item*], [*Qty*], [*Price*], [*Total*],\n")
	for _, it := range rec.Items {
		fmt.Fprintf(&b, "  [%s], [%g], [%.2f], [%.2f],\n",
			escapeTypst(it.Description), it.Quantity, it.UnitPrice, it.LineTotal())
	}
	b.WriteString(")\n#line(length: 100%, stroke: 0.5pt)\n")

	fmt.Fprintf(&b, "#align(right)[#text(size: 12pt, weight: \"bold\")[Total Paid: %s]]\n", money(totals.GrandTotal, rec.Currency))

	return b.String(), nil
}
