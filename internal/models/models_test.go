package models

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestLaneForPriority(t *testing.T) {
	cases := []struct {
		priority Priority
		want     Lane
	}{
		{PriorityHigh, LanePriority},
		{PriorityNormal, LaneBulk},
		{PriorityLow, LaneBulk},
	}
	for _, c := range cases {
		if got := LaneForPriority(c.priority); got != c.want {
			t.Errorf("LaneForPriority(%q) = %q, want %q", c.priority, got, c.want)
		}
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	req := DocumentRequest{
		DocumentType: DocumentTypeInvoice,
		Data:         json.RawMessage(`{}`),
	}
	req.Normalize()

	if req.ID == uuid.Nil {
		t.Error("Normalize did not assign an id")
	}
	if req.Priority != PriorityNormal {
		t.Errorf("Priority = %q, want %q", req.Priority, PriorityNormal)
	}
	if req.Format != FormatPDF {
		t.Errorf("Format = %q, want %q", req.Format, FormatPDF)
	}
	if req.Metadata.RequestTime.IsZero() {
		t.Error("Normalize did not stamp request time")
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		req  DocumentRequest
	}{
		{"unknown type", DocumentRequest{DocumentType: "poster", Priority: PriorityNormal, Format: FormatPDF, Data: json.RawMessage(`{}`)}},
		{"unknown priority", DocumentRequest{DocumentType: DocumentTypeInvoice, Priority: "urgent", Format: FormatPDF, Data: json.RawMessage(`{}`)}},
		{"unknown format", DocumentRequest{DocumentType: DocumentTypeInvoice, Priority: PriorityNormal, Format: "docx", Data: json.RawMessage(`{}`)}},
		{"html format", DocumentRequest{DocumentType: DocumentTypeReport, Priority: PriorityNormal, Format: "html", Data: json.RawMessage(`{}`)}},
		{"empty data", DocumentRequest{DocumentType: DocumentTypeInvoice, Priority: PriorityNormal, Format: FormatPDF}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.req.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateAcceptsAllFormats(t *testing.T) {
	for _, f := range []OutputFormat{FormatPDF, FormatExcel, FormatCSV} {
		req := DocumentRequest{DocumentType: DocumentTypeReport, Priority: PriorityNormal, Format: f, Data: json.RawMessage(`{}`)}
		if err := req.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v", f, err)
		}
	}
}

func TestCustomDocumentType(t *testing.T) {
	ct := CustomDocumentType("contract")
	if !ct.IsCustom() {
		t.Error("IsCustom() = false for custom type")
	}
	if ct.CustomName() != "contract" {
		t.Errorf("CustomName() = %q, want %q", ct.CustomName(), "contract")
	}
	if !ct.Valid() {
		t.Error("named custom type should be valid")
	}
	if DocumentType("custom:").Valid() {
		t.Error("unnamed custom type should be invalid")
	}
}

func TestStorageKeyIsDeterministic(t *testing.T) {
	id := uuid.MustParse("a2f1b8f0-0000-4000-8000-000000000001")
	req := DocumentRequest{
		ID:           id,
		DocumentType: DocumentTypeInvoice,
		Format:       FormatPDF,
		Metadata:     RequestMetadata{TenantID: "acme"},
	}

	want := "invoices/acme/" + id.String() + ".pdf"
	if got := req.StorageKey(); got != want {
		t.Errorf("StorageKey() = %q, want %q", got, want)
	}
	if req.StorageKey() != req.StorageKey() {
		t.Error("StorageKey() is not stable across calls")
	}

	// Organization scope takes precedence over tenant when present.
	req.Metadata.OrganizationID = "acme-emea"
	want = "invoices/acme-emea/" + id.String() + ".pdf"
	if got := req.StorageKey(); got != want {
		t.Errorf("StorageKey() with org = %q, want %q", got, want)
	}
}

func TestJobEnvelopeRoundTrip(t *testing.T) {
	req := &DocumentRequest{
		ID:           uuid.New(),
		DocumentType: DocumentTypeReport,
		Priority:     PriorityHigh,
		Format:       FormatExcel,
		Data:         json.RawMessage(`{"title":"Q3"}`),
		Metadata:     RequestMetadata{TenantID: "acme", UserID: "u1"},
	}

	env, err := NewJobEnvelope(req)
	if err != nil {
		t.Fatalf("NewJobEnvelope: %v", err)
	}
	if env.Lane != LanePriority {
		t.Errorf("Lane = %q, want %q", env.Lane, LanePriority)
	}
	if env.RequestID != req.ID {
		t.Errorf("RequestID = %s, want %s", env.RequestID, req.ID)
	}

	decoded, err := env.DecodeRequest()
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if decoded.ID != req.ID || decoded.DocumentType != req.DocumentType || decoded.Metadata.TenantID != "acme" {
		t.Errorf("decoded request differs: %+v", decoded)
	}
}
