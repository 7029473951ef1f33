package templates

import (
	"encoding/json"
	"fmt"
	"strings"

	"docgen-api/internal/models"
)

// StatementGenerator renders account statements.
type StatementGenerator struct{}

func (g *StatementGenerator) TemplateID() string { return "statement" }

func (g *StatementGenerator) Validate(data json.RawMessage) error {
	var st models.StatementData
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("invalid statement payload: %w", err)
	}
	if st.AccountHolder == "" {
		return fmt.Errorf("account_holder is required")
	}
	if st.AccountNumber == "" {
		return fmt.Errorf("account_number is required")
	}
	return nil
}

func (g *StatementGenerator) Generate(data json.RawMessage) (string, error) {
	if err := g.Validate(data); err != nil {
		return "", err
	}
	var st models.StatementData
	if err := json.Unmarshal(data, &st); err != nil {
		return "", fmt.Errorf("invalid statement payload: %w", err)
	}

	var b strings.Builder
	b.WriteString("#align(center)[#text(size: 16pt, weight: \"bold\")[ACCOUNT STATEMENT]]\n#v(10pt)\n")
	fmt.Fprintf(&b, "#text(weight: \"bold\")[Account Holder:] %s \\\n", escapeTypst(st.AccountHolder))
	fmt.Fprintf(&b, "#text(weight: \"bold\")[Account No:] %s \\\n", escapeTypst(st.AccountNumber))
	fmt.Fprintf(&b, "#text(weight: \"bold\")[Period:] %s to %s\n#v(10pt)\n",
		escapeTypst(st.PeriodStart), escapeTypst(st.PeriodEnd))

	fmt.Fprintf(&b, "Opening balance: %s\n#v(5pt)\n", money(st.OpeningBalance, st.Currency))

	b.WriteString("#table(\n  columns: (80pt, 1fr, 80pt, 80pt),\n  stroke: 0.5pt + gray,\n  inset: 6pt,\n  [*Date*], [*Description*], [*Amount*], [*Balance*],\n")
	for _, e := range st.Entries {
		fmt.Fprintf(&b, "  [%s], [%s], [%.2f], [%.2f],\n",
			escapeTypst(e.Date), escapeTypst(e.Description), e.Amount, e.Balance)
	}
	b.WriteString(")\n#v(10pt)\n")

	fmt.Fprintf(&b, "#align(right)[#text(weight: \"bold\")[Closing balance: %s]]\n", money(st.ClosingBalance, st.Currency))

	return b.String(), nil
}
