package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentType identifies which generation routine handles a request.
// Custom types are carried as "custom:<name>".
type DocumentType string

const (
	DocumentTypeInvoice     DocumentType = "invoice"
	DocumentTypeReport      DocumentType = "report"
	DocumentTypeCertificate DocumentType = "certificate"
	DocumentTypeStatement   DocumentType = "statement"
	DocumentTypeReceipt     DocumentType = "receipt"
)

const customTypePrefix = "custom:"

// CustomDocumentType builds the wire form of a named custom type.
func CustomDocumentType(name string) DocumentType {
	return DocumentType(customTypePrefix + name)
}

// IsCustom reports whether the type is a named custom type.
func (t DocumentType) IsCustom() bool {
	return strings.HasPrefix(string(t), customTypePrefix)
}

// CustomName returns the name of a custom type, or "" for built-in types.
func (t DocumentType) CustomName() string {
	if !t.IsCustom() {
		return ""
	}
	return strings.TrimPrefix(string(t), customTypePrefix)
}

// Valid reports whether the type is one of the known variants.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentTypeInvoice, DocumentTypeReport, DocumentTypeCertificate,
		DocumentTypeStatement, DocumentTypeReceipt:
		return true
	}
	return t.IsCustom() && t.CustomName() != ""
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

type OutputFormat string

const (
	FormatPDF   OutputFormat = "pdf"
	FormatExcel OutputFormat = "excel"
	FormatCSV   OutputFormat = "csv"
)

// Extension returns the artifact file extension for the format.
func (f OutputFormat) Extension() string {
	switch f {
	case FormatExcel:
		return "xlsx"
	case FormatCSV:
		return "csv"
	default:
		return "pdf"
	}
}

// ContentType returns the MIME type for the format.
func (f OutputFormat) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv"
	default:
		return "application/pdf"
	}
}

// DocumentStatus is the lifecycle state of a request. Queued and
// Processing are transient; the rest are terminal.
type DocumentStatus string

const (
	StatusQueued     DocumentStatus = "queued"
	StatusProcessing DocumentStatus = "processing"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
	StatusCancelled  DocumentStatus = "cancelled"
)

// Terminal reports whether no further transition occurs from s.
func (s DocumentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// RequestMetadata carries tenant scoping and advisory expiry for a request.
type RequestMetadata struct {
	TenantID       string            `json:"tenant_id"`
	UserID         string            `json:"user_id"`
	OrganizationID string            `json:"organization_id,omitempty"`
	RequestTime    time.Time         `json:"request_time"`
	TTLSeconds     *int64            `json:"ttl_seconds,omitempty"`
	Tags           map[string]string `json:"tags,omitempty"`
}

// DocumentRequest is a client request for document generation. It is
// immutable once enqueued; workers operate on their own decoded copy.
type DocumentRequest struct {
	ID           uuid.UUID       `json:"id"`
	TemplateID   string          `json:"template_id"`
	DocumentType DocumentType    `json:"document_type" binding:"required"`
	Data         json.RawMessage `json:"data" binding:"required"`
	Priority     Priority        `json:"priority"`
	Format       OutputFormat    `json:"format"`
	CallbackURL  *string         `json:"callback_url,omitempty"`
	Metadata     RequestMetadata `json:"metadata"`
}

// Normalize fills server-assigned defaults on an incoming request.
func (r *DocumentRequest) Normalize() {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Priority == "" {
		r.Priority = PriorityNormal
	}
	if r.Format == "" {
		r.Format = FormatPDF
	}
	if r.Metadata.RequestTime.IsZero() {
		r.Metadata.RequestTime = time.Now().UTC()
	}
}

// Validate checks the request shape before admission.
func (r *DocumentRequest) Validate() error {
	if !r.DocumentType.Valid() {
		return fmt.Errorf("unknown document type %q", r.DocumentType)
	}
	switch r.Priority {
	case PriorityHigh, PriorityNormal, PriorityLow:
	default:
		return fmt.Errorf("unknown priority %q", r.Priority)
	}
	switch r.Format {
	case FormatPDF, FormatExcel, FormatCSV:
	default:
		return fmt.Errorf("unknown output format %q", r.Format)
	}
	if len(r.Data) == 0 {
		return fmt.Errorf("data payload is required")
	}
	return nil
}

// RateLimitKey is the quota key for the request's tenant:user pair.
func (r *DocumentRequest) RateLimitKey() string {
	return r.Metadata.TenantID + ":" + r.Metadata.UserID
}

// StorageCategory is the first segment of the deterministic artifact key.
func (r *DocumentRequest) StorageCategory() string {
	switch r.DocumentType {
	case DocumentTypeInvoice:
		return "invoices"
	case DocumentTypeReport:
		return "reports"
	case DocumentTypeReceipt:
		return "receipts"
	case DocumentTypeStatement:
		return "statements"
	case DocumentTypeCertificate:
		return "certificates"
	default:
		return "documents"
	}
}

// StorageKey is the deterministic object key for the rendered artifact.
// Redelivery of the same request id always lands on the same key, which
// is what makes worker reprocessing idempotent at the storage layer.
func (r *DocumentRequest) StorageKey() string {
	tenant := r.Metadata.OrganizationID
	if tenant == "" {
		tenant = r.Metadata.TenantID
	}
	return fmt.Sprintf("%s/%s/%s.%s", r.StorageCategory(), tenant, r.ID, r.Format.Extension())
}

// DocumentResponse is the client-visible view of a request's record.
type DocumentResponse struct {
	ID               uuid.UUID      `json:"id"`
	Status           DocumentStatus `json:"status"`
	URL              *string        `json:"url,omitempty"`
	Error            *string        `json:"error,omitempty"`
	ProcessingTimeMS int64          `json:"processing_time_ms"`
	CreatedAt        time.Time      `json:"created_at"`
	ExpiresAt        *time.Time     `json:"expires_at,omitempty"`
}

// QueuedResponse is the acknowledgment returned for async admissions.
type QueuedResponse struct {
	ID                   uuid.UUID      `json:"id"`
	Status               DocumentStatus `json:"status"`
	EstimatedTimeSeconds int64          `json:"estimated_time_seconds"`
	StatusURL            string         `json:"status_url"`
}
