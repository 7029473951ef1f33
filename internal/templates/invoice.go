package templates

import (
	"encoding/json"
	"fmt"
	"strings"

	"docgen-api/internal/models"
)

// InvoiceGenerator renders the simple invoice layout.
type InvoiceGenerator struct{}

func (g *InvoiceGenerator) TemplateID() string { return "simple_invoice" }

func (g *InvoiceGenerator) Validate(data json.RawMessage) error {
	var inv models.InvoiceData
	if err := json.Unmarshal(data, &inv); err != nil {
		return fmt.Errorf("invalid invoice payload: %w", err)
	}
	if inv.InvoiceNumber == "" {
		return fmt.Errorf("invoice_number is required")
	}
	if inv.Company.Name == "" {
		return fmt.Errorf("company.name is required")
	}
	if inv.Client.Name == "" {
		return fmt.Errorf("client.name is required")
	}
	if len(inv.Items) == 0 {
		return fmt.Errorf("at least one line item is required")
	}
	return nil
}

func (g *InvoiceGenerator) Generate(data json.RawMessage) (string, error) {
	if err := g.Validate(data); err != nil {
		return "", err
	}
	var inv models.InvoiceData
	if err := json.Unmarshal(data, &inv); err != nil {
		return "", fmt.Errorf("invalid invoice payload: %w", err)
	}

	totals := inv.EffectiveTotals()

	var b strings.Builder
	fmt.Fprintf(&b, "#align(center)[#text(size: 18pt, weight: \"bold\")[%s]]\n", escapeTypst(inv.Company.Name))
	if inv.Company.Address != "" {
		fmt.Fprintf(&b, "#align(center)[#text(size: 10pt)[%s]]\n", escapeTypst(inv.Company.Address))
	}
	b.WriteString("#v(10pt)\n#align(center)[#text(size: 14pt, weight: \"bold\")[INVOICE]]\n#v(15pt)\n")

	fmt.Fprintf(&b, "#grid(columns: (1fr, 1fr),\n  [#text(weight: \"bold\")[Invoice No:] %s \\ #text(weight: \"bold\")[Date:] %s],\n",
		escapeTypst(inv.InvoiceNumber), escapeTypst(inv.IssueDate))
	fmt.Fprintf(&b, "  [#align(right)[#text(weight: \"bold\")[Due:] %s]]\n)\n#v(15pt)\n", escapeTypst(inv.DueDate))

	fmt.Fprintf(&b, "#rect(width: 100%%, fill: rgb(245, 245, 245), stroke: 0.5pt + gray, inset: 10pt)[\n  #text(weight: \"bold\")[Bill To:] %s", escapeTypst(inv.Client.Name))
	if inv.Client.TaxID != "" {
		fmt.Fprintf(&b, " \\ #text(weight: \"bold\")[Tax ID:] %s", escapeTypst(inv.Client.TaxID))
	}
	if inv.Client.Address != "" {
		fmt.Fprintf(&b, " \\ %s", escapeTypst(inv.Client.Address))
	}
	b.WriteString("\n]\n#v(15pt)\n")

	b.WriteString("#table(\n  columns: (1fr, 60pt, 80pt, 80pt),\n  stroke: 0.5pt + gray,\n  inset: 8pt,\n  [*Description*], [*Qty*], [*Price*], [*Total*],\n")
	for _, it := range inv.Items {
		fmt.Fprintf(&b, "  [%s], [%g], [%.2f], [%.2f],\n",
			escapeTypst(it.Description), it.Quantity, it.UnitPrice, it.LineTotal())
	}
	b.WriteString(")\n#v(15pt)\n")

	b.WriteString("#align(right)[\n")
	fmt.Fprintf(&b, "  Subtotal: %s \\\n", money(totals.Subtotal, inv.Currency))
	if totals.DiscountAmount > 0 {
		fmt.Fprintf(&b, "  Discount: -%s \\\n", money(totals.DiscountAmount, inv.Currency))
	}
	fmt.Fprintf(&b, "  Tax: %s \\\n", money(totals.TaxAmount, inv.Currency))
	fmt.Fprintf(&b, "  #text(size: 13pt, weight: \"bold\")[Grand Total: %s]\n]\n", money(totals.GrandTotal, inv.Currency))

	if inv.Notes != "" {
		fmt.Fprintf(&b, "#v(15pt)\n#text(size: 9pt, style: \"italic\")[%s]\n", escapeTypst(inv.Notes))
	}

	return b.String(), nil
}
