package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	fylogger "github.com/FyersDev/trading-logger-go"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"docgen-api/config"
	"docgen-api/internal/models"
	"docgen-api/internal/repositories"
	apperrors "docgen-api/pkg/errors"
)

var routedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docgen_requests_routed_total",
	Help: "Document requests by routing decision.",
}, []string{"route"})

// DocumentRenderer produces the artifact bytes for a request.
type DocumentRenderer interface {
	Render(ctx context.Context, req *models.DocumentRequest) ([]byte, string, error)
}

// JobPublisher hands an envelope to the queue.
type JobPublisher interface {
	Publish(ctx context.Context, env *models.JobEnvelope) error
}

// ArtifactStore persists rendered artifacts and serves download links.
type ArtifactStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
	Presign(ctx context.Context, bucket, key string, ttl time.Duration) (string, error)
	Stat(ctx context.Context, bucket, key string) (bool, error)
}

// StatusStore is the subset of the document repository the router needs.
type StatusStore interface {
	Upsert(ctx context.Context, rec *repositories.DocumentRecord) error
	GetByID(ctx context.Context, id uuid.UUID, tenantID string) (*repositories.DocumentRecord, error)
}

// RouterService is the admission point for document requests. It
// validates, applies per-user quotas and decides between rendering
// inline and enqueueing for the worker pool.
type RouterService struct {
	cfg       config.RouterConfig
	limiter   *RateLimiter
	renderer  DocumentRenderer
	publisher JobPublisher
	store     ArtifactStore
	repo      StatusStore

	documentsBucket string
	presignTTL      time.Duration
}

func NewRouterService(
	cfg *config.Config,
	limiter *RateLimiter,
	renderer DocumentRenderer,
	publisher JobPublisher,
	store ArtifactStore,
	repo StatusStore,
) *RouterService {
	return &RouterService{
		cfg:             cfg.Router,
		limiter:         limiter,
		renderer:        renderer,
		publisher:       publisher,
		store:           store,
		repo:            repo,
		documentsBucket: cfg.Storage.DocumentsBucket,
		presignTTL:      time.Duration(cfg.Storage.PresignTTL) * time.Second,
	}
}

// RouteResult is the outcome of one admission: exactly one of the two
// fields is set.
type RouteResult struct {
	Completed *models.DocumentResponse
	Queued    *models.QueuedResponse
}

// Generate admits a request. Small synchronous-eligible work renders
// inline within a fixed time budget; everything else, including inline
// work that blows the budget before its upload starts, goes to the
// queue.
func (s *RouterService) Generate(ctx context.Context, req *models.DocumentRequest) (*RouteResult, error) {
	if err := s.admit(req); err != nil {
		return nil, err
	}

	if s.eligibleForInline(req) {
		res, err := s.renderInline(ctx, req)
		if err == nil {
			routedTotal.WithLabelValues("inline").Inc()
			return &RouteResult{Completed: res}, nil
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		// The budget ran out before anything was stored. The request
		// is still unadmitted, so it can take the async path instead.
		fylogger.InfoLog(ctx, fmt.Sprintf("Inline budget exceeded for %s, falling back to queue", req.ID), nil)
	}

	queued, err := s.enqueue(ctx, req)
	if err != nil {
		return nil, err
	}
	routedTotal.WithLabelValues("queued").Inc()
	return &RouteResult{Queued: queued}, nil
}

// Enqueue admits a request straight onto the queue, skipping the
// inline path entirely.
func (s *RouterService) Enqueue(ctx context.Context, req *models.DocumentRequest) (*models.QueuedResponse, error) {
	if err := s.admit(req); err != nil {
		return nil, err
	}
	queued, err := s.enqueue(ctx, req)
	if err != nil {
		return nil, err
	}
	routedTotal.WithLabelValues("queued").Inc()
	return queued, nil
}

// admit runs the shared validation and quota gates.
func (s *RouterService) admit(req *models.DocumentRequest) error {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return apperrors.ErrValidation.WithError(err)
	}
	if !s.limiter.Allow(req.RateLimitKey()) {
		routedTotal.WithLabelValues("rejected").Inc()
		return apperrors.ErrRateLimited
	}
	return nil
}

// eligibleForInline applies the size and type gates for the sync path.
func (s *RouterService) eligibleForInline(req *models.DocumentRequest) bool {
	if len(req.Data) > s.cfg.MaxSyncSizeBytes {
		return false
	}
	if req.DocumentType == models.DocumentTypeReport && len(req.Data) > s.cfg.MaxSyncReportBytes {
		return false
	}
	if req.DocumentType.IsCustom() {
		return false
	}
	return true
}

// renderInline runs the full render under the sync deadline. Once the
// upload has begun the result is always persisted, so the client never
// pays for work that then gets thrown away.
func (s *RouterService) renderInline(ctx context.Context, req *models.DocumentRequest) (*models.DocumentResponse, error) {
	start := time.Now()

	rctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.SyncTimeoutMS)*time.Millisecond)
	defer cancel()

	data, contentType, err := s.renderer.Render(rctx, req)
	if err != nil {
		if rctx.Err() == context.DeadlineExceeded {
			return nil, context.DeadlineExceeded
		}
		return nil, err
	}

	// Upload and record with a fresh context: past this point the
	// artifact exists and abandoning it would leak storage.
	sctx, scancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer scancel()

	url, err := s.store.Put(sctx, s.documentsBucket, req.StorageKey(), data, contentType)
	if err != nil {
		return nil, apperrors.ErrStorageFailed.WithError(err)
	}

	elapsed := time.Since(start)
	key := req.StorageKey()
	rec := &repositories.DocumentRecord{
		ID:               req.ID,
		TenantID:         req.Metadata.TenantID,
		Status:           models.StatusCompleted,
		URL:              &url,
		StorageKey:       &key,
		ProcessingTimeMS: elapsed.Milliseconds(),
		ExpiresAt:        expiryFor(req),
	}
	if err := s.repo.Upsert(sctx, rec); err != nil {
		fylogger.ErrorLog(sctx, fmt.Sprintf("Failed to record inline completion for %s", req.ID), err, nil)
	}

	return &models.DocumentResponse{
		ID:               req.ID,
		Status:           models.StatusCompleted,
		URL:              &url,
		ProcessingTimeMS: elapsed.Milliseconds(),
		CreatedAt:        start.UTC(),
		ExpiresAt:        rec.ExpiresAt,
	}, nil
}

// enqueue publishes the envelope and records the queued status. A
// publish failure rejects the admission outright; a record write
// failure does not, since the worker upserts the same row anyway.
func (s *RouterService) enqueue(ctx context.Context, req *models.DocumentRequest) (*models.QueuedResponse, error) {
	env, err := models.NewJobEnvelope(req)
	if err != nil {
		return nil, apperrors.ErrInternalServer.WithError(err)
	}

	if err := s.publisher.Publish(ctx, env); err != nil {
		fylogger.ErrorLog(ctx, fmt.Sprintf("Failed to publish job %s", req.ID), err, nil)
		return nil, apperrors.ErrQueuePublish.WithError(err)
	}

	rec := &repositories.DocumentRecord{
		ID:        req.ID,
		TenantID:  req.Metadata.TenantID,
		Status:    models.StatusQueued,
		ExpiresAt: expiryFor(req),
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		fylogger.ErrorLog(ctx, fmt.Sprintf("Failed to record queued status for %s", req.ID), err, nil)
	}

	return &models.QueuedResponse{
		ID:                   req.ID,
		Status:               models.StatusQueued,
		EstimatedTimeSeconds: estimateSeconds(req.DocumentType, req.Priority),
		StatusURL:            fmt.Sprintf("/api/v1/documents/%s/status", req.ID),
	}, nil
}

// Status returns the tenant-scoped view of a request's record.
func (s *RouterService) Status(ctx context.Context, id uuid.UUID, tenantID string) (*models.DocumentResponse, error) {
	rec, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.ErrInternalServer.WithError(err)
	}
	return responseFromRecord(rec), nil
}

// DownloadURL returns a short-lived presigned link for a completed
// document's artifact.
func (s *RouterService) DownloadURL(ctx context.Context, id uuid.UUID, tenantID string) (string, error) {
	rec, err := s.repo.GetByID(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return "", apperrors.ErrNotFound
		}
		return "", apperrors.ErrInternalServer.WithError(err)
	}
	if rec.Status != models.StatusCompleted || rec.StorageKey == nil {
		return "", apperrors.ErrBadRequest.WithMessage(
			fmt.Sprintf("document %s is %s, not completed", id, rec.Status))
	}
	// Presigning does not touch the object, so check it still exists.
	// Bucket lifecycle rules may have expired the artifact after the
	// record was written.
	exists, err := s.store.Stat(ctx, s.documentsBucket, *rec.StorageKey)
	if err != nil {
		return "", apperrors.ErrStorageFailed.WithError(err)
	}
	if !exists {
		return "", apperrors.ErrNotFound.WithMessage(
			fmt.Sprintf("artifact for document %s is no longer available", id))
	}
	url, err := s.store.Presign(ctx, s.documentsBucket, *rec.StorageKey, s.presignTTL)
	if err != nil {
		return "", apperrors.ErrStorageFailed.WithError(err)
	}
	return url, nil
}

func responseFromRecord(rec *repositories.DocumentRecord) *models.DocumentResponse {
	return &models.DocumentResponse{
		ID:               rec.ID,
		Status:           rec.Status,
		URL:              rec.URL,
		Error:            rec.Error,
		ProcessingTimeMS: rec.ProcessingTimeMS,
		CreatedAt:        rec.CreatedAt,
		ExpiresAt:        rec.ExpiresAt,
	}
}

func expiryFor(req *models.DocumentRequest) *time.Time {
	if req.Metadata.TTLSeconds == nil || *req.Metadata.TTLSeconds <= 0 {
		return nil
	}
	t := time.Now().UTC().Add(time.Duration(*req.Metadata.TTLSeconds) * time.Second)
	return &t
}

// estimateSeconds mirrors the published processing time expectations
// per document type and priority.
func estimateSeconds(t models.DocumentType, p models.Priority) int64 {
	switch t {
	case models.DocumentTypeInvoice:
		if p == models.PriorityHigh {
			return 30
		}
		return 60
	case models.DocumentTypeReport:
		if p == models.PriorityHigh {
			return 120
		}
		return 300
	default:
		return 180
	}
}
