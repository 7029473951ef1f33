package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docgen-api/internal/models"
	"docgen-api/pkg/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DocumentRecord is the durable lifecycle record for a request, keyed
// by request id and scoped by tenant on reads. Records are upserted,
// never deleted; expires_at is advisory metadata only.
type DocumentRecord struct {
	ID               uuid.UUID             `json:"id"`
	TenantID         string                `json:"tenant_id"`
	Status           models.DocumentStatus `json:"status"`
	URL              *string               `json:"url,omitempty"`
	StorageKey       *string               `json:"storage_key,omitempty"`
	Error            *string               `json:"error,omitempty"`
	ProcessingTimeMS int64                 `json:"processing_time_ms"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	ExpiresAt        *time.Time            `json:"expires_at,omitempty"`
}

// ErrRecordNotFound is returned when no record exists for an id within
// the caller's tenant scope.
var ErrRecordNotFound = errors.New("document record not found")

// DocumentRepository handles document status records
type DocumentRepository struct {
	db *postgres.DB
}

func NewDocumentRepository(db *postgres.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// CreateSchema creates the documents table if it doesn't exist
func (r *DocumentRepository) CreateSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			tenant_id VARCHAR(128) NOT NULL,
			status VARCHAR(32) NOT NULL,
			url TEXT,
			storage_key TEXT,
			error TEXT,
			processing_time_ms BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ
		);

		CREATE INDEX IF NOT EXISTS idx_documents_tenant ON documents(tenant_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
	`

	_, err := r.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create documents schema: %w", err)
	}
	return nil
}

// Upsert writes a record with last-writer-wins semantics on status,
// url, error and timestamps. Safe to repeat on redelivery.
func (r *DocumentRepository) Upsert(ctx context.Context, rec *DocumentRecord) error {
	query := `
		INSERT INTO documents (id, tenant_id, status, url, storage_key, error, processing_time_ms, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW(), $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			url = COALESCE(EXCLUDED.url, documents.url),
			storage_key = COALESCE(EXCLUDED.storage_key, documents.storage_key),
			error = EXCLUDED.error,
			processing_time_ms = EXCLUDED.processing_time_ms,
			updated_at = NOW(),
			expires_at = COALESCE(EXCLUDED.expires_at, documents.expires_at)
	`

	_, err := r.db.Exec(ctx, query,
		rec.ID, rec.TenantID, rec.Status, rec.URL, rec.StorageKey, rec.Error, rec.ProcessingTimeMS, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", rec.ID, err)
	}
	return nil
}

// MarkCompleted records the terminal success state with the artifact
// reference and elapsed processing time.
func (r *DocumentRepository) MarkCompleted(ctx context.Context, id uuid.UUID, url, storageKey string, elapsed time.Duration) error {
	query := `
		UPDATE documents
		SET status = $1, url = $2, storage_key = $3, error = NULL, processing_time_ms = $4, updated_at = NOW()
		WHERE id = $5
	`

	_, err := r.db.Exec(ctx, query, models.StatusCompleted, url, storageKey, elapsed.Milliseconds(), id)
	if err != nil {
		return fmt.Errorf("failed to mark %s completed: %w", id, err)
	}
	return nil
}

// MarkFailed records the terminal failure state with a human-readable
// error string.
func (r *DocumentRepository) MarkFailed(ctx context.Context, id uuid.UUID, errText string) error {
	query := `
		UPDATE documents
		SET status = $1, error = $2, updated_at = NOW()
		WHERE id = $3
	`

	_, err := r.db.Exec(ctx, query, models.StatusFailed, errText, id)
	if err != nil {
		return fmt.Errorf("failed to mark %s failed: %w", id, err)
	}
	return nil
}

// GetByID reads a record scoped by tenant for multi-tenant isolation.
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID, tenantID string) (*DocumentRecord, error) {
	query := `
		SELECT id, tenant_id, status, url, storage_key, error, processing_time_ms, created_at, updated_at, expires_at
		FROM documents
		WHERE id = $1 AND tenant_id = $2
	`

	rec := &DocumentRecord{}
	err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&rec.ID, &rec.TenantID, &rec.Status, &rec.URL, &rec.StorageKey, &rec.Error,
		&rec.ProcessingTimeMS, &rec.CreatedAt, &rec.UpdatedAt, &rec.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return rec, nil
}
