package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lane is one of the two queue priority classes.
type Lane string

const (
	LanePriority Lane = "priority"
	LaneBulk     Lane = "bulk"
)

// LaneForPriority maps request priority onto a queue lane. Only high
// priority work rides the priority lane; normal and low share bulk.
func LaneForPriority(p Priority) Lane {
	if p == PriorityHigh {
		return LanePriority
	}
	return LaneBulk
}

// JobEnvelope is the wire representation of a DocumentRequest on the
// queue. RequestID doubles as the partition/ordering key so redelivery
// of the same request lands with the same key.
type JobEnvelope struct {
	RequestID  uuid.UUID       `json:"request_id"`
	TenantID   string          `json:"tenant_id"`
	Lane       Lane            `json:"lane"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Request    json.RawMessage `json:"request"`
}

// NewJobEnvelope wraps a request for publishing.
func NewJobEnvelope(req *DocumentRequest) (*JobEnvelope, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %w", err)
	}
	return &JobEnvelope{
		RequestID:  req.ID,
		TenantID:   req.Metadata.TenantID,
		Lane:       LaneForPriority(req.Priority),
		EnqueuedAt: time.Now().UTC(),
		Request:    raw,
	}, nil
}

// DecodeRequest unpacks the carried DocumentRequest.
func (e *JobEnvelope) DecodeRequest() (*DocumentRequest, error) {
	var req DocumentRequest
	if err := json.Unmarshal(e.Request, &req); err != nil {
		return nil, fmt.Errorf("failed to decode request %s: %w", e.RequestID, err)
	}
	return &req, nil
}
