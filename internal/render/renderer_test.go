package render

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"docgen-api/internal/models"
	"docgen-api/internal/templates"
)

type memStore struct {
	data map[string]string
}

func (m *memStore) Load(_ context.Context, id string) (string, error) {
	v, ok := m.data[id]
	if !ok {
		return "", errors.New("no such template")
	}
	return v, nil
}

func (m *memStore) Save(_ context.Context, id, content string) error {
	m.data[id] = content
	return nil
}

func newTestRenderer(stored map[string]string) *Renderer {
	if stored == nil {
		stored = make(map[string]string)
	}
	cache := templates.NewCache(10, time.Minute, nil, &memStore{data: stored})
	return NewRenderer(templates.NewRegistry(), cache, nil)
}

func validInvoicePayload() json.RawMessage {
	return json.RawMessage(`{
		"invoice_number": "INV-1",
		"company": {"name": "Acme"},
		"client": {"name": "Globex"},
		"items": [{"description": "Work", "quantity": 1, "unit_price": 100}]
	}`)
}

func TestBuildMarkupUsesDefaultPrelude(t *testing.T) {
	r := newTestRenderer(nil)
	req := &models.DocumentRequest{
		DocumentType: models.DocumentTypeInvoice,
		Format:       models.FormatPDF,
		Data:         validInvoicePayload(),
	}

	markup, err := r.buildMarkup(context.Background(), req)
	if err != nil {
		t.Fatalf("buildMarkup: %v", err)
	}
	if !strings.Contains(markup, "#set page(margin: 2cm)") {
		t.Error("default prelude missing")
	}
	if !strings.Contains(markup, "INV-1") {
		t.Error("generated body missing")
	}
	if strings.Contains(markup, bodyPlaceholder) {
		t.Error("body placeholder not spliced")
	}
}

func TestBuildMarkupUsesStoredPrelude(t *testing.T) {
	r := newTestRenderer(map[string]string{
		"simple_invoice": "#set text(font: \"Inter\")\n{{body}}\n",
	})
	req := &models.DocumentRequest{
		DocumentType: models.DocumentTypeInvoice,
		Format:       models.FormatPDF,
		Data:         validInvoicePayload(),
	}

	markup, err := r.buildMarkup(context.Background(), req)
	if err != nil {
		t.Fatalf("buildMarkup: %v", err)
	}
	if !strings.Contains(markup, "font: \"Inter\"") {
		t.Error("stored prelude was not used")
	}
	if strings.Contains(markup, "#set page(margin: 2cm)") {
		t.Error("default prelude used despite a stored one")
	}
}

func TestBuildMarkupCustomType(t *testing.T) {
	r := newTestRenderer(map[string]string{
		"contract": "Agreement between {{party_a}} and {{party_b}}.",
	})
	req := &models.DocumentRequest{
		DocumentType: models.CustomDocumentType("contract"),
		Format:       models.FormatPDF,
		Data:         json.RawMessage(`{"party_a": "Acme", "party_b": "Globex"}`),
	}

	markup, err := r.buildMarkup(context.Background(), req)
	if err != nil {
		t.Fatalf("buildMarkup: %v", err)
	}
	if markup != "Agreement between Acme and Globex." {
		t.Errorf("markup = %q", markup)
	}
}

func TestBuildMarkupCustomTypeMissingTemplate(t *testing.T) {
	r := newTestRenderer(nil)
	req := &models.DocumentRequest{
		DocumentType: models.CustomDocumentType("contract"),
		Format:       models.FormatPDF,
		Data:         json.RawMessage(`{}`),
	}

	if _, err := r.buildMarkup(context.Background(), req); err == nil {
		t.Fatal("expected missing custom template to fail")
	}
}

func TestRenderExcelReport(t *testing.T) {
	r := newTestRenderer(nil)
	req := &models.DocumentRequest{
		DocumentType: models.DocumentTypeReport,
		Format:       models.FormatExcel,
		Data:         json.RawMessage(`{"title": "T", "columns": ["a"], "rows": [{"a": "1"}]}`),
	}

	out, contentType, err := r.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(out) == 0 {
		t.Error("no workbook bytes")
	}
	if contentType != models.FormatExcel.ContentType() {
		t.Errorf("contentType = %q", contentType)
	}
}

func TestRenderCSVReport(t *testing.T) {
	r := newTestRenderer(nil)
	req := &models.DocumentRequest{
		DocumentType: models.DocumentTypeReport,
		Format:       models.FormatCSV,
		Data:         json.RawMessage(`{"columns": ["a", "b"], "rows": [{"a": "1", "b": "2"}]}`),
	}

	out, contentType, err := r.Render(context.Background(), req)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := string(out); !strings.HasPrefix(got, "a,b\n1,2\n") {
		t.Errorf("csv = %q", got)
	}
	if contentType != "text/csv" {
		t.Errorf("contentType = %q", contentType)
	}
}

func TestRenderCSVRejectsNonReport(t *testing.T) {
	r := newTestRenderer(nil)
	req := &models.DocumentRequest{
		DocumentType: models.DocumentTypeInvoice,
		Format:       models.FormatCSV,
		Data:         validInvoicePayload(),
	}

	if _, _, err := r.Render(context.Background(), req); err == nil {
		t.Fatal("expected csv invoice to be rejected")
	}
}

func TestRenderExcelRejectsNonReport(t *testing.T) {
	r := newTestRenderer(nil)
	req := &models.DocumentRequest{
		DocumentType: models.DocumentTypeInvoice,
		Format:       models.FormatExcel,
		Data:         validInvoicePayload(),
	}

	if _, _, err := r.Render(context.Background(), req); err == nil {
		t.Fatal("expected excel invoice to be rejected")
	}
}
