package services

import (
	"context"
	"errors"
	"fmt"

	fylogger "github.com/FyersDev/trading-logger-go"

	"docgen-api/internal/templates"
	apperrors "docgen-api/pkg/errors"
)

// TemplateService exposes template management on top of the tiered
// cache and the generator registry.
type TemplateService struct {
	registry *templates.Registry
	cache    *templates.Cache
}

func NewTemplateService(registry *templates.Registry, cache *templates.Cache) *TemplateService {
	return &TemplateService{registry: registry, cache: cache}
}

// List returns the ids of the built-in generators.
func (s *TemplateService) List() []string {
	return s.registry.List()
}

// Get resolves a template's stored prelude through the cache tiers.
func (s *TemplateService) Get(ctx context.Context, id string) (templates.CachedTemplate, error) {
	tpl, err := s.cache.Get(ctx, id)
	if err != nil {
		if errors.Is(err, templates.ErrTemplateNotFound) {
			return templates.CachedTemplate{}, apperrors.ErrTemplateNotFound.WithMessage(
				fmt.Sprintf("template %q not found", id))
		}
		return templates.CachedTemplate{}, apperrors.ErrInternalServer.WithError(err)
	}
	return tpl, nil
}

// Update stores new template content. The durable store is written
// first, then the caches, so a crash mid-update never leaves cached
// content newer than what survives a restart.
func (s *TemplateService) Update(ctx context.Context, id, content, version string) error {
	if content == "" {
		return apperrors.ErrValidation.WithMessage("template content is required")
	}
	if err := s.cache.Set(ctx, id, content, version); err != nil {
		return apperrors.ErrInternalServer.WithError(err)
	}
	fylogger.InfoLog(ctx, fmt.Sprintf("Template %s updated to version %s", id, version), nil)
	return nil
}

// Reload invalidates the cache tiers for a template, forcing the next
// read to go to the durable store.
func (s *TemplateService) Reload(ctx context.Context, id string) error {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		return apperrors.ErrInternalServer.WithError(err)
	}
	fylogger.InfoLog(ctx, fmt.Sprintf("Template %s invalidated", id), nil)
	return nil
}
