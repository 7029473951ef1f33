package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"docgen-api/config"
	"docgen-api/internal/models"
	"docgen-api/internal/queue"
	"docgen-api/internal/repositories"
)

type fakeConsumer struct {
	mu    sync.Mutex
	acked []string
}

func (f *fakeConsumer) EnsureGroup(context.Context) error { return nil }

func (f *fakeConsumer) Fetch(context.Context, int64) ([]queue.Delivery, error) {
	return nil, nil
}

func (f *fakeConsumer) Claim(context.Context) ([]queue.Delivery, error) {
	return nil, nil
}

func (f *fakeConsumer) Ack(_ context.Context, d queue.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, d.EntryID)
	return nil
}

func (f *fakeConsumer) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

type fakeWorkerRepo struct {
	mu             sync.Mutex
	upserts        []models.DocumentStatus
	completed      map[uuid.UUID]string
	failed         map[uuid.UUID]string
	failedDeadline time.Time
	completedErr   error
}

func newFakeWorkerRepo() *fakeWorkerRepo {
	return &fakeWorkerRepo{
		completed: make(map[uuid.UUID]string),
		failed:    make(map[uuid.UUID]string),
	}
}

func (f *fakeWorkerRepo) Upsert(_ context.Context, rec *repositories.DocumentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, rec.Status)
	return nil
}

func (f *fakeWorkerRepo) MarkCompleted(_ context.Context, id uuid.UUID, _, storageKey string, _ time.Duration) error {
	if f.completedErr != nil {
		return f.completedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[id] = storageKey
	return nil
}

func (f *fakeWorkerRepo) MarkFailed(ctx context.Context, id uuid.UUID, errText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if deadline, ok := ctx.Deadline(); ok {
		f.failedDeadline = deadline
	}
	f.failed[id] = errText
	return nil
}

type fakeUsage struct {
	mu        sync.Mutex
	successes int
	failures  int
}

func (f *fakeUsage) RecordSuccess(context.Context, string, models.DocumentType, models.OutputFormat, time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.successes++
	return nil
}

func (f *fakeUsage) RecordFailure(context.Context, string, models.DocumentType, models.OutputFormat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures++
	return nil
}

func workerConfig() *config.Config {
	cfg := testConfig()
	cfg.Worker = config.WorkerConfig{Readers: 1, MaxConcurrent: 2}
	return cfg
}

func newTestPool(consumer *fakeConsumer, renderer DocumentRenderer, store ArtifactStore, repo *fakeWorkerRepo, usage *fakeUsage) *WorkerPool {
	return NewWorkerPool(workerConfig(), consumer, renderer, store, repo, usage, NewNotifier())
}

func deliveryFor(t *testing.T, req *models.DocumentRequest) queue.Delivery {
	t.Helper()
	env, err := models.NewJobEnvelope(req)
	if err != nil {
		t.Fatalf("NewJobEnvelope: %v", err)
	}
	payload, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return queue.Delivery{Stream: "docgen:jobs:bulk", EntryID: "1-0", Payload: payload}
}

func TestProcessCompletesJob(t *testing.T) {
	consumer := &fakeConsumer{}
	store := newFakeArtifactStore()
	repo := newFakeWorkerRepo()
	usage := &fakeUsage{}
	pool := newTestPool(consumer, &fakeRenderer{data: []byte("%PDF")}, store, repo, usage)

	req := invoiceRequest()
	req.Normalize()
	pool.process(deliveryFor(t, req))

	if key, ok := repo.completed[req.ID]; !ok || key != req.StorageKey() {
		t.Errorf("completed key = %q, want %q", key, req.StorageKey())
	}
	if _, ok := store.puts[req.StorageKey()]; !ok {
		t.Error("artifact was not uploaded")
	}
	if usage.successes != 1 {
		t.Errorf("usage successes = %d, want 1", usage.successes)
	}
	if got := consumer.ackedIDs(); len(got) != 1 {
		t.Errorf("acked %d entries, want 1", len(got))
	}
	if len(repo.upserts) != 1 || repo.upserts[0] != models.StatusProcessing {
		t.Errorf("upserts = %v, want one processing write", repo.upserts)
	}
}

func TestProcessPoisonPayloadIsAckedAndDropped(t *testing.T) {
	consumer := &fakeConsumer{}
	repo := newFakeWorkerRepo()
	usage := &fakeUsage{}
	pool := newTestPool(consumer, &fakeRenderer{data: []byte("%PDF")}, newFakeArtifactStore(), repo, usage)

	pool.process(queue.Delivery{Stream: "docgen:jobs:bulk", EntryID: "7-0", Payload: []byte("not json")})

	if got := consumer.ackedIDs(); len(got) != 1 || got[0] != "7-0" {
		t.Errorf("acked = %v, want the poison entry committed", got)
	}
	if len(repo.upserts) != 0 || len(repo.completed) != 0 || len(repo.failed) != 0 {
		t.Error("poison payload must not touch the status store")
	}
	if usage.successes+usage.failures != 0 {
		t.Error("poison payload must not count as usage")
	}
}

func TestProcessRenderFailureMarksFailed(t *testing.T) {
	consumer := &fakeConsumer{}
	repo := newFakeWorkerRepo()
	usage := &fakeUsage{}
	pool := newTestPool(consumer, &fakeRenderer{err: errors.New("bad template")}, newFakeArtifactStore(), repo, usage)

	req := invoiceRequest()
	req.Normalize()
	pool.process(deliveryFor(t, req))

	if errText, ok := repo.failed[req.ID]; !ok || errText == "" {
		t.Error("failure was not recorded")
	}
	if usage.failures != 1 {
		t.Errorf("usage failures = %d, want 1", usage.failures)
	}
	// Failed terminal state is still committed, the entry must not loop.
	if got := consumer.ackedIDs(); len(got) != 1 {
		t.Errorf("acked %d entries, want 1", len(got))
	}
}

func TestProcessFailureWriteHasOwnDeadline(t *testing.T) {
	consumer := &fakeConsumer{}
	repo := newFakeWorkerRepo()
	pool := newTestPool(consumer, &fakeRenderer{err: context.DeadlineExceeded}, newFakeArtifactStore(), repo, &fakeUsage{})

	req := invoiceRequest()
	req.Normalize()
	pool.process(deliveryFor(t, req))

	// When the render dies of the job deadline, the failure record must
	// be written under a fresh short deadline, not the job's. Otherwise
	// the write inherits a dead context and the entry loops through
	// redelivery forever.
	if repo.failedDeadline.IsZero() {
		t.Fatal("failure write carried no deadline")
	}
	if remaining := time.Until(repo.failedDeadline); remaining > time.Minute {
		t.Errorf("failure write deadline %s out, want a short write budget", remaining.Round(time.Second))
	}
	if got := consumer.ackedIDs(); len(got) != 1 {
		t.Errorf("acked %d entries, want 1", len(got))
	}
}

func TestProcessLeavesEntryUnackedWhenRecordWriteFails(t *testing.T) {
	consumer := &fakeConsumer{}
	repo := newFakeWorkerRepo()
	repo.completedErr = errors.New("db down")
	pool := newTestPool(consumer, &fakeRenderer{data: []byte("%PDF")}, newFakeArtifactStore(), repo, &fakeUsage{})

	req := invoiceRequest()
	req.Normalize()
	pool.process(deliveryFor(t, req))

	if got := consumer.ackedIDs(); len(got) != 0 {
		t.Errorf("acked = %v, want none when the terminal record was not written", got)
	}
}

func TestProcessIsIdempotentOnRedelivery(t *testing.T) {
	consumer := &fakeConsumer{}
	store := newFakeArtifactStore()
	repo := newFakeWorkerRepo()
	pool := newTestPool(consumer, &fakeRenderer{data: []byte("%PDF")}, store, repo, &fakeUsage{})

	req := invoiceRequest()
	req.Normalize()
	d := deliveryFor(t, req)

	pool.process(d)
	pool.process(d)

	// Redelivery overwrites the same key and re-commits the same record.
	if len(store.puts) != 1 {
		t.Errorf("stored %d distinct keys, want 1", len(store.puts))
	}
	if key := repo.completed[req.ID]; key != req.StorageKey() {
		t.Errorf("completed key = %q, want %q", key, req.StorageKey())
	}
}
