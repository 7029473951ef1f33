package services

import (
	"context"
	"time"

	"docgen-api/pkg/memorydb"
	"docgen-api/pkg/postgres"
)

// HealthStatus is the probe result for one dependency.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// HealthService probes the datastores the pipeline depends on.
type HealthService struct {
	db    *postgres.DB
	redis *memorydb.RedisClient
}

func NewHealthService(db *postgres.DB, redis *memorydb.RedisClient) *HealthService {
	return &HealthService{db: db, redis: redis}
}

// Check pings every dependency and reports per-dependency status.
func (s *HealthService) Check(ctx context.Context) (bool, map[string]HealthStatus) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := make(map[string]HealthStatus)
	healthy := true

	if err := s.db.Ping(ctx); err != nil {
		healthy = false
		status["postgres"] = HealthStatus{Status: "error", Timestamp: time.Now(), Details: err.Error()}
	} else {
		status["postgres"] = HealthStatus{Status: "ok", Timestamp: time.Now()}
	}

	if err := s.redis.Ping(ctx); err != nil {
		healthy = false
		status["redis"] = HealthStatus{Status: "error", Timestamp: time.Now(), Details: err.Error()}
	} else {
		status["redis"] = HealthStatus{Status: "ok", Timestamp: time.Now()}
	}

	return healthy, status
}
