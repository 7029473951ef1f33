package templates

import (
	"encoding/json"
	"fmt"
	"strings"

	"docgen-api/internal/models"
)

// Generator turns a request payload into compiler markup for one
// document variant. The set of variants is closed and resolved through
// a lookup table built once at startup.
type Generator interface {
	TemplateID() string
	Validate(data json.RawMessage) error
	Generate(data json.RawMessage) (string, error)
}

// Registry maps template ids and document types to their generators.
type Registry struct {
	generators map[string]Generator
	byType     map[models.DocumentType]Generator
}

// NewRegistry builds the lookup table of all built-in generators.
func NewRegistry() *Registry {
	r := &Registry{
		generators: make(map[string]Generator),
		byType:     make(map[models.DocumentType]Generator),
	}

	invoice := &InvoiceGenerator{}
	receipt := &ReceiptGenerator{}
	report := &ReportGenerator{}
	statement := &StatementGenerator{}

	for _, g := range []Generator{invoice, receipt, report, statement} {
		r.generators[g.TemplateID()] = g
	}

	r.byType[models.DocumentTypeInvoice] = invoice
	r.byType[models.DocumentTypeReceipt] = receipt
	r.byType[models.DocumentTypeReport] = report
	r.byType[models.DocumentTypeStatement] = statement
	// Certificates share the statement layout until they get their own.
	r.byType[models.DocumentTypeCertificate] = statement

	return r
}

// Get resolves a generator by template id.
func (r *Registry) Get(templateID string) (Generator, bool) {
	g, ok := r.generators[templateID]
	return g, ok
}

// ForType resolves the default generator for a document type.
func (r *Registry) ForType(t models.DocumentType) (Generator, bool) {
	g, ok := r.byType[t]
	return g, ok
}

// List returns the registered template ids.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.generators))
	for id := range r.generators {
		ids = append(ids, id)
	}
	return ids
}

// escapeTypst neutralizes markup-significant characters in user data.
func escapeTypst(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`#`, `\#`,
		`$`, `\$`,
		`*`, `\*`,
		`_`, `\_`,
		`[`, `\[`,
		`]`, `\]`,
		`@`, `\@`,
	)
	return replacer.Replace(s)
}

func money(amount float64, currency string) string {
	if currency == "" {
		currency = "USD"
	}
	return fmt.Sprintf("%s %.2f", currency, amount)
}
