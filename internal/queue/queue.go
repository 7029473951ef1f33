package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"docgen-api/config"
	"docgen-api/internal/models"

	"github.com/redis/go-redis/v9"
)

// The two lanes ride two Redis Streams consumed by one shared consumer
// group. Delivery is at-least-once: entries stay pending until XACKed,
// and a consumer crash between read and ack leaves the entry claimable
// by another consumer.

const payloadField = "payload"

// Delivery is one queue entry handed to a worker. Payload is the raw
// envelope JSON; decoding is the worker's job so that poison messages
// are its decision to drop.
type Delivery struct {
	Stream  string
	EntryID string
	Payload []byte
}

// Publisher is the producer side of the job queue, used by the router.
type Publisher struct {
	client redis.UniversalClient
	cfg    config.QueueConfig
}

func NewPublisher(client redis.UniversalClient, cfg config.QueueConfig) *Publisher {
	return &Publisher{client: client, cfg: cfg}
}

func (p *Publisher) streamFor(lane models.Lane) string {
	if lane == models.LanePriority {
		return p.cfg.PriorityStream
	}
	return p.cfg.BulkStream
}

// Publish appends the envelope to its lane's stream and waits for the
// broker acknowledgment within the configured timeout. A timeout or
// broker error is returned to the caller; nothing is retried here.
func (p *Publisher) Publish(ctx context.Context, env *models.JobEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to serialize job envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.PublishTimeout)*time.Second)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: p.streamFor(env.Lane),
		Values: map[string]interface{}{
			payloadField: data,
			"request_id": env.RequestID.String(),
		},
	}
	if p.cfg.MaxStreamLength > 0 {
		args.MaxLen = int64(p.cfg.MaxStreamLength)
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("broker did not acknowledge publish: %w", err)
	}
	return nil
}

// Consumer is the worker side of the job queue: a named member of the
// shared consumer group reading both lanes, priority lane first.
type Consumer struct {
	client  redis.UniversalClient
	cfg     config.QueueConfig
	name    string
	streams []string
}

func NewConsumer(client redis.UniversalClient, cfg config.QueueConfig, consumerName string) *Consumer {
	return &Consumer{
		client:  client,
		cfg:     cfg,
		name:    consumerName,
		streams: []string{cfg.PriorityStream, cfg.BulkStream},
	}
}

// EnsureGroup creates the consumer group on both streams, creating the
// streams themselves if needed. Safe to call from every worker process.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	for _, stream := range c.streams {
		err := c.client.XGroupCreateMkStream(ctx, stream, c.cfg.ConsumerGroup, "0").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			return fmt.Errorf("failed to create consumer group on %s: %w", stream, err)
		}
	}
	return nil
}

// Fetch blocks up to the configured interval for new entries. Streams
// are listed priority-first, so the priority lane drains ahead of bulk.
func (c *Consumer) Fetch(ctx context.Context, count int64) ([]Delivery, error) {
	res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.ConsumerGroup,
		Consumer: c.name,
		Streams:  []string{c.streams[0], c.streams[1], ">", ">"},
		Count:    count,
		Block:    time.Duration(c.cfg.BlockInterval) * time.Second,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	return flatten(res), nil
}

// Claim re-delivers entries another consumer read but never acked
// (crashed mid-render). MinIdle keeps healthy in-flight work untouched.
func (c *Consumer) Claim(ctx context.Context) ([]Delivery, error) {
	minIdle := time.Duration(c.cfg.ClaimMinIdle) * time.Second

	var out []Delivery
	for _, stream := range c.streams {
		msgs, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   stream,
			Group:    c.cfg.ConsumerGroup,
			Consumer: c.name,
			MinIdle:  minIdle,
			Start:    "0-0",
			Count:    16,
		}).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("failed to claim pending entries on %s: %w", stream, err)
		}
		for _, m := range msgs {
			out = append(out, toDelivery(stream, m))
		}
	}
	return out, nil
}

// Ack commits an entry. Called only after the terminal outcome is
// durably recorded, so a crash before Ack means redelivery, never loss.
func (c *Consumer) Ack(ctx context.Context, d Delivery) error {
	if err := c.client.XAck(ctx, d.Stream, c.cfg.ConsumerGroup, d.EntryID).Err(); err != nil {
		return fmt.Errorf("failed to ack %s on %s: %w", d.EntryID, d.Stream, err)
	}
	return nil
}

func flatten(res []redis.XStream) []Delivery {
	var out []Delivery
	for _, xs := range res {
		for _, m := range xs.Messages {
			out = append(out, toDelivery(xs.Stream, m))
		}
	}
	return out
}

func toDelivery(stream string, m redis.XMessage) Delivery {
	d := Delivery{Stream: stream, EntryID: m.ID}
	if raw, ok := m.Values[payloadField]; ok {
		if s, ok := raw.(string); ok {
			d.Payload = []byte(s)
		}
	}
	return d
}
