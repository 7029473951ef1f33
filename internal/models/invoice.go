package models

// InvoiceData is the payload for invoice and receipt generation.
type InvoiceData struct {
	InvoiceNumber string            `json:"invoice_number"`
	IssueDate     string            `json:"issue_date"`
	DueDate       string            `json:"due_date,omitempty"`
	Company       CompanyInfo       `json:"company"`
	Client        ClientInfo        `json:"client"`
	Items         []InvoiceItem     `json:"items"`
	Totals        *InvoiceTotals    `json:"totals,omitempty"` // computed when absent
	Currency      string            `json:"currency,omitempty"`
	PaymentTerms  string            `json:"payment_terms,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	CustomFields  map[string]string `json:"custom_fields,omitempty"`
}

type CompanyInfo struct {
	Name    string `json:"name"`
	TaxID   string `json:"tax_id,omitempty"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

type ClientInfo struct {
	Name    string `json:"name"`
	TaxID   string `json:"tax_id,omitempty"`
	Address string `json:"address,omitempty"`
	Email   string `json:"email,omitempty"`
}

type InvoiceItem struct {
	Description     string  `json:"description"`
	Quantity        float64 `json:"quantity"`
	Unit            string  `json:"unit,omitempty"`
	UnitPrice       float64 `json:"unit_price"`
	DiscountPercent float64 `json:"discount_percent,omitempty"`
	TaxRate         float64 `json:"tax_rate,omitempty"`
}

type InvoiceTotals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	GrandTotal     float64 `json:"grand_total"`
}

// LineTotal is the item amount after its own discount, before tax.
func (it InvoiceItem) LineTotal() float64 {
	gross := it.Quantity * it.UnitPrice
	return gross - gross*(it.DiscountPercent/100)
}

// CalculateTotals derives invoice totals from the line items:
// grand total = subtotal - discount + tax.
func (d *InvoiceData) CalculateTotals() InvoiceTotals {
	var subtotal, discount, tax float64
	for _, it := range d.Items {
		gross := it.Quantity * it.UnitPrice
		itemDiscount := gross * (it.DiscountPercent / 100)
		subtotal += gross
		discount += itemDiscount
		tax += (gross - itemDiscount) * (it.TaxRate / 100)
	}
	return InvoiceTotals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		GrandTotal:     subtotal - discount + tax,
	}
}

// EffectiveTotals returns the client-provided totals when present,
// otherwise the computed ones.
func (d *InvoiceData) EffectiveTotals() InvoiceTotals {
	if d.Totals != nil {
		return *d.Totals
	}
	return d.CalculateTotals()
}
