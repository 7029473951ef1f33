package repositories

import (
	"context"
	"fmt"
	"time"

	"docgen-api/internal/models"
	"docgen-api/pkg/postgres"
)

// UsageRepository accumulates daily per-tenant generation counters.
type UsageRepository struct {
	db *postgres.DB
}

func NewUsageRepository(db *postgres.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) CreateSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS usage_statistics (
			tenant_id VARCHAR(128) NOT NULL,
			date DATE NOT NULL,
			document_type VARCHAR(64) NOT NULL,
			format VARCHAR(16) NOT NULL,
			count BIGINT NOT NULL DEFAULT 0,
			failed_count BIGINT NOT NULL DEFAULT 0,
			total_processing_time_ms BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (tenant_id, date, document_type, format)
		);
	`

	_, err := r.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create usage_statistics schema: %w", err)
	}
	return nil
}

// RecordSuccess increments the success counter and processing time for
// today's (tenant, type, format) bucket.
func (r *UsageRepository) RecordSuccess(ctx context.Context, tenantID string, docType models.DocumentType, format models.OutputFormat, elapsed time.Duration) error {
	query := `
		INSERT INTO usage_statistics (tenant_id, date, document_type, format, count, total_processing_time_ms)
		VALUES ($1, CURRENT_DATE, $2, $3, 1, $4)
		ON CONFLICT (tenant_id, date, document_type, format)
		DO UPDATE SET
			count = usage_statistics.count + 1,
			total_processing_time_ms = usage_statistics.total_processing_time_ms + $4
	`

	_, err := r.db.Exec(ctx, query, tenantID, docType, format, elapsed.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record usage for %s: %w", tenantID, err)
	}
	return nil
}

// UsageRow is one (date, type, format) bucket of a tenant's usage.
type UsageRow struct {
	Date                  time.Time           `json:"date"`
	DocumentType          models.DocumentType `json:"document_type"`
	Format                models.OutputFormat `json:"format"`
	Count                 int64               `json:"count"`
	FailedCount           int64               `json:"failed_count"`
	TotalProcessingTimeMS int64               `json:"total_processing_time_ms"`
}

// GetForTenant returns the tenant's buckets within [from, to], newest
// first.
func (r *UsageRepository) GetForTenant(ctx context.Context, tenantID string, from, to time.Time) ([]UsageRow, error) {
	query := `
		SELECT date, document_type, format, count, failed_count, total_processing_time_ms
		FROM usage_statistics
		WHERE tenant_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date DESC, document_type, format
	`

	rows, err := r.db.Query(ctx, query, tenantID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage for %s: %w", tenantID, err)
	}
	defer rows.Close()

	var out []UsageRow
	for rows.Next() {
		var u UsageRow
		if err := rows.Scan(&u.Date, &u.DocumentType, &u.Format, &u.Count, &u.FailedCount, &u.TotalProcessingTimeMS); err != nil {
			return nil, fmt.Errorf("failed to scan usage row: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// RecordFailure increments the failure counter for today's bucket.
func (r *UsageRepository) RecordFailure(ctx context.Context, tenantID string, docType models.DocumentType, format models.OutputFormat) error {
	query := `
		INSERT INTO usage_statistics (tenant_id, date, document_type, format, failed_count)
		VALUES ($1, CURRENT_DATE, $2, $3, 1)
		ON CONFLICT (tenant_id, date, document_type, format)
		DO UPDATE SET failed_count = usage_statistics.failed_count + 1
	`

	_, err := r.db.Exec(ctx, query, tenantID, docType, format)
	if err != nil {
		return fmt.Errorf("failed to record failed usage for %s: %w", tenantID, err)
	}
	return nil
}
