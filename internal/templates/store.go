package templates

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DurableStore is tier 3 of the template cache: the source of truth.
type DurableStore interface {
	Load(ctx context.Context, id string) (string, error)
	Save(ctx context.Context, id, content string) error
}

// FilesystemStore keeps templates as files under a local directory.
type FilesystemStore struct {
	dir string
}

func NewFilesystemStore(dir string) *FilesystemStore {
	return &FilesystemStore{dir: dir}
}

var templateExtensions = []string{"typ", "jinja", "html"}

func (s *FilesystemStore) Load(_ context.Context, id string) (string, error) {
	for _, ext := range templateExtensions {
		path := filepath.Join(s.dir, fmt.Sprintf("%s.%s", id, ext))
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
	}
	return "", fmt.Errorf("no template file for %q under %s", id, s.dir)
}

func (s *FilesystemStore) Save(_ context.Context, id, content string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create template directory: %w", err)
	}
	path := filepath.Join(s.dir, id+".typ")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write template %q: %w", id, err)
	}
	return nil
}

// ObjectBackend is the subset of the object storage client the bucket
// store needs.
type ObjectBackend interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
}

// BucketStore keeps templates in object storage under templates/<id>.typ.
type BucketStore struct {
	backend ObjectBackend
	bucket  string
}

func NewBucketStore(backend ObjectBackend, bucket string) *BucketStore {
	return &BucketStore{backend: backend, bucket: bucket}
}

func (s *BucketStore) Load(ctx context.Context, id string) (string, error) {
	data, err := s.backend.Get(ctx, s.bucket, bucketKey(id))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *BucketStore) Save(ctx context.Context, id, content string) error {
	_, err := s.backend.Put(ctx, s.bucket, bucketKey(id), []byte(content), "text/plain")
	return err
}

func bucketKey(id string) string {
	return "templates/" + id + ".typ"
}

// FallbackStore tries a primary store and falls back to a secondary on
// load misses. Saves go to both, primary first.
type FallbackStore struct {
	primary   DurableStore
	secondary DurableStore
}

func NewFallbackStore(primary, secondary DurableStore) *FallbackStore {
	return &FallbackStore{primary: primary, secondary: secondary}
}

func (s *FallbackStore) Load(ctx context.Context, id string) (string, error) {
	content, err := s.primary.Load(ctx, id)
	if err == nil {
		return content, nil
	}
	return s.secondary.Load(ctx, id)
}

func (s *FallbackStore) Save(ctx context.Context, id, content string) error {
	if err := s.primary.Save(ctx, id, content); err != nil {
		return err
	}
	return s.secondary.Save(ctx, id, content)
}
