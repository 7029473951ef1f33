package queue

import (
	"testing"

	"github.com/redis/go-redis/v9"

	"docgen-api/config"
	"docgen-api/internal/models"
)

func testQueueConfig() config.QueueConfig {
	return config.QueueConfig{
		PriorityStream: "docgen:jobs:priority",
		BulkStream:     "docgen:jobs:bulk",
		ConsumerGroup:  "doc-workers",
		PublishTimeout: 5,
	}
}

func TestStreamForLane(t *testing.T) {
	p := NewPublisher(nil, testQueueConfig())

	if got := p.streamFor(models.LanePriority); got != "docgen:jobs:priority" {
		t.Errorf("streamFor(priority) = %q", got)
	}
	if got := p.streamFor(models.LaneBulk); got != "docgen:jobs:bulk" {
		t.Errorf("streamFor(bulk) = %q", got)
	}
}

func TestFlattenKeepsStreamOrder(t *testing.T) {
	res := []redis.XStream{
		{
			Stream: "docgen:jobs:priority",
			Messages: []redis.XMessage{
				{ID: "1-0", Values: map[string]interface{}{payloadField: `{"a":1}`}},
			},
		},
		{
			Stream: "docgen:jobs:bulk",
			Messages: []redis.XMessage{
				{ID: "2-0", Values: map[string]interface{}{payloadField: `{"b":2}`}},
				{ID: "2-1", Values: map[string]interface{}{"other": "x"}},
			},
		},
	}

	out := flatten(res)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if out[0].Stream != "docgen:jobs:priority" || out[0].EntryID != "1-0" {
		t.Errorf("priority entry not first: %+v", out[0])
	}
	if string(out[0].Payload) != `{"a":1}` {
		t.Errorf("payload = %q", out[0].Payload)
	}
	// An entry without a payload field still carries stream and id so
	// the worker can ack it away.
	if out[2].Payload != nil {
		t.Errorf("missing payload should be nil, got %q", out[2].Payload)
	}
	if out[2].EntryID != "2-1" {
		t.Errorf("EntryID = %q", out[2].EntryID)
	}
}
