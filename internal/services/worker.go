package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	fylogger "github.com/FyersDev/trading-logger-go"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/semaphore"

	"docgen-api/config"
	"docgen-api/internal/models"
	"docgen-api/internal/queue"
	"docgen-api/internal/repositories"
)

var (
	jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docgen_jobs_processed_total",
		Help: "Queue jobs by terminal outcome.",
	}, []string{"outcome"})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docgen_job_duration_seconds",
		Help:    "Wall time spent rendering one queued job.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

// jobTimeout bounds one delivery end to end, render and upload
// included. QUEUE_CLAIM_MIN_IDLE must stay above this or the reclaimer
// will steal entries that are still being worked.
const jobTimeout = 10 * time.Minute

// JobConsumer is the queue-facing surface of the worker pool.
type JobConsumer interface {
	EnsureGroup(ctx context.Context) error
	Fetch(ctx context.Context, count int64) ([]queue.Delivery, error)
	Claim(ctx context.Context) ([]queue.Delivery, error)
	Ack(ctx context.Context, d queue.Delivery) error
}

// WorkerStatusStore is the repository surface the workers write to.
type WorkerStatusStore interface {
	Upsert(ctx context.Context, rec *repositories.DocumentRecord) error
	MarkCompleted(ctx context.Context, id uuid.UUID, url, storageKey string, elapsed time.Duration) error
	MarkFailed(ctx context.Context, id uuid.UUID, errText string) error
}

// UsageRecorder accumulates per-tenant generation statistics.
type UsageRecorder interface {
	RecordSuccess(ctx context.Context, tenantID string, docType models.DocumentType, format models.OutputFormat, elapsed time.Duration) error
	RecordFailure(ctx context.Context, tenantID string, docType models.DocumentType, format models.OutputFormat) error
}

// WorkerPool consumes queued jobs and renders them. A fixed set of
// reader goroutines pulls from the consumer group while a weighted
// semaphore caps renders actually in flight, so a burst of cheap
// fetches cannot oversubscribe the compiler.
type WorkerPool struct {
	cfg      config.WorkerConfig
	consumer JobConsumer
	renderer DocumentRenderer
	store    ArtifactStore
	repo     WorkerStatusStore
	usage    UsageRecorder
	notifier *Notifier

	documentsBucket string

	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewWorkerPool(
	cfg *config.Config,
	consumer JobConsumer,
	renderer DocumentRenderer,
	store ArtifactStore,
	repo WorkerStatusStore,
	usage UsageRecorder,
	notifier *Notifier,
) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		cfg:             cfg.Worker,
		consumer:        consumer,
		renderer:        renderer,
		store:           store,
		repo:            repo,
		usage:           usage,
		notifier:        notifier,
		documentsBucket: cfg.Storage.DocumentsBucket,
		sem:             semaphore.NewWeighted(int64(cfg.Worker.MaxConcurrent)),
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Start creates the consumer group and launches the reader loops plus
// the pending-entry reclaimer.
func (p *WorkerPool) Start() error {
	if err := p.consumer.EnsureGroup(p.ctx); err != nil {
		return fmt.Errorf("failed to initialize consumer group: %w", err)
	}

	for i := 0; i < p.cfg.Readers; i++ {
		p.wg.Add(1)
		go p.readLoop(i)
	}
	p.wg.Add(1)
	go p.claimLoop()

	fylogger.InfoLog(p.ctx, fmt.Sprintf("Started %d queue readers, %d max concurrent renders", p.cfg.Readers, p.cfg.MaxConcurrent), nil)
	return nil
}

// Stop cancels the readers and waits for in-flight jobs to finish.
// Unacked entries are redelivered to the next consumer, so stopping
// mid-render loses nothing.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	fylogger.InfoLog(context.Background(), "Worker pool stopped", nil)
}

func (p *WorkerPool) readLoop(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			fylogger.InfoLog(context.Background(), fmt.Sprintf("Reader %d shutting down", id), nil)
			return
		default:
		}

		deliveries, err := p.consumer.Fetch(p.ctx, int64(p.cfg.MaxConcurrent))
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			fylogger.ErrorLog(p.ctx, fmt.Sprintf("Reader %d fetch failed", id), err, nil)
			time.Sleep(time.Second)
			continue
		}
		p.dispatch(deliveries)
	}
}

// claimLoop periodically re-delivers entries stranded by crashed
// consumers.
func (p *WorkerPool) claimLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			deliveries, err := p.consumer.Claim(p.ctx)
			if err != nil {
				if p.ctx.Err() != nil {
					return
				}
				fylogger.ErrorLog(p.ctx, "Failed to claim stranded entries", err, nil)
				continue
			}
			if len(deliveries) > 0 {
				fylogger.InfoLog(p.ctx, fmt.Sprintf("Reclaimed %d stranded entries", len(deliveries)), nil)
				p.dispatch(deliveries)
			}
		}
	}
}

func (p *WorkerPool) dispatch(deliveries []queue.Delivery) {
	for _, d := range deliveries {
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			return
		}
		p.wg.Add(1)
		go func(d queue.Delivery) {
			defer p.wg.Done()
			defer p.sem.Release(1)
			p.process(d)
		}(d)
	}
}

// process handles one delivery end to end. The entry is acked only
// after the terminal outcome is durably recorded; the one exception is
// a poison payload, which is acked without any record because it can
// never succeed and retrying it would jam the lane.
func (p *WorkerPool) process(d queue.Delivery) {
	var env models.JobEnvelope
	if err := json.Unmarshal(d.Payload, &env); err != nil {
		fylogger.ErrorLog(p.ctx, fmt.Sprintf("Dropping undecodable entry %s on %s", d.EntryID, d.Stream), err, nil)
		jobsProcessed.WithLabelValues("poison").Inc()
		p.ack(d)
		return
	}
	req, err := env.DecodeRequest()
	if err != nil {
		fylogger.ErrorLog(p.ctx, fmt.Sprintf("Dropping entry %s with malformed request", d.EntryID), err, nil)
		jobsProcessed.WithLabelValues("poison").Inc()
		p.ack(d)
		return
	}

	// Job contexts outlive pool shutdown so an in-flight render can
	// still commit its outcome.
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	// Upsert rather than update: the router's queued record write is
	// best-effort, so the row may not exist yet.
	if err := p.repo.Upsert(ctx, &repositories.DocumentRecord{
		ID:       req.ID,
		TenantID: req.Metadata.TenantID,
		Status:   models.StatusProcessing,
	}); err != nil {
		fylogger.ErrorLog(ctx, fmt.Sprintf("Failed to mark %s processing", req.ID), err, nil)
	}

	start := time.Now()
	data, contentType, err := p.renderer.Render(ctx, req)
	if err != nil {
		p.fail(ctx, d, req, err)
		return
	}

	url, err := p.store.Put(ctx, p.documentsBucket, req.StorageKey(), data, contentType)
	if err != nil {
		p.fail(ctx, d, req, err)
		return
	}

	elapsed := time.Since(start)
	if err := p.repo.MarkCompleted(ctx, req.ID, url, req.StorageKey(), elapsed); err != nil {
		// Without the durable record the job is not done. Leaving the
		// entry unacked hands it to another consumer; the storage key
		// is deterministic so the rewrite is harmless.
		fylogger.ErrorLog(ctx, fmt.Sprintf("Failed to record completion for %s, leaving unacked", req.ID), err, nil)
		return
	}

	if err := p.usage.RecordSuccess(ctx, req.Metadata.TenantID, req.DocumentType, req.Format, elapsed); err != nil {
		fylogger.ErrorLog(ctx, fmt.Sprintf("Failed to record usage for %s", req.ID), err, nil)
	}

	jobsProcessed.WithLabelValues("completed").Inc()
	jobDuration.Observe(elapsed.Seconds())
	p.ack(d)

	if req.CallbackURL != nil {
		p.notifier.Notify(*req.CallbackURL, &models.DocumentResponse{
			ID:               req.ID,
			Status:           models.StatusCompleted,
			URL:              &url,
			ProcessingTimeMS: elapsed.Milliseconds(),
		})
	}
	fylogger.InfoLog(ctx, fmt.Sprintf("Completed %s in %s", req.ID, elapsed.Round(time.Millisecond)), nil)
}

// fail records the terminal failure and acks. Render errors are
// deterministic for a given payload, so redelivery would only repeat
// the failure.
func (p *WorkerPool) fail(ctx context.Context, d queue.Delivery, req *models.DocumentRequest, cause error) {
	fylogger.ErrorLog(ctx, fmt.Sprintf("Job %s failed", req.ID), cause, nil)

	// The cause may be the job context itself expiring. The terminal
	// write gets its own deadline so the record still lands and the
	// entry does not loop through redelivery.
	wctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := p.repo.MarkFailed(wctx, req.ID, cause.Error()); err != nil {
		fylogger.ErrorLog(wctx, fmt.Sprintf("Failed to record failure for %s, leaving unacked", req.ID), err, nil)
		return
	}
	if err := p.usage.RecordFailure(wctx, req.Metadata.TenantID, req.DocumentType, req.Format); err != nil {
		fylogger.ErrorLog(wctx, fmt.Sprintf("Failed to record usage for %s", req.ID), err, nil)
	}

	jobsProcessed.WithLabelValues("failed").Inc()
	p.ack(d)

	if req.CallbackURL != nil {
		errText := cause.Error()
		p.notifier.Notify(*req.CallbackURL, &models.DocumentResponse{
			ID:     req.ID,
			Status: models.StatusFailed,
			Error:  &errText,
		})
	}
}

func (p *WorkerPool) ack(d queue.Delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.consumer.Ack(ctx, d); err != nil {
		fylogger.ErrorLog(ctx, fmt.Sprintf("Failed to ack entry %s", d.EntryID), err, nil)
	}
}
