package templates

import (
	"errors"
	"time"
)

// ErrTemplateNotFound means all three cache tiers missed.
var ErrTemplateNotFound = errors.New("template not found")

// CachedTemplate is one cache entry. The in-process and distributed
// tiers both carry this shape; the distributed copy is authoritative
// and the in-process copy is always a read-through replica of it.
type CachedTemplate struct {
	Content    string    `json:"content"`
	CompiledAt time.Time `json:"compiled_at"`
	TTLSeconds int64     `json:"ttl_seconds"`
	Version    string    `json:"version"`
}

// Expired reports whether the entry is past its TTL. An expired entry
// must never be served without revalidation against a lower tier.
func (t CachedTemplate) Expired() bool {
	return time.Now().After(t.CompiledAt.Add(time.Duration(t.TTLSeconds) * time.Second))
}
