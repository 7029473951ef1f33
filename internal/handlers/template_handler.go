package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docgen-api/internal/services"
	apperrors "docgen-api/pkg/errors"
)

type TemplateHandler struct {
	templates *services.TemplateService
}

func NewTemplateHandler(templates *services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// List handles GET /api/v1/templates.
func (h *TemplateHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"templates": h.templates.List()})
	}
}

// Get handles GET /api/v1/templates/:id.
func (h *TemplateHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		tpl, err := h.templates.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":          c.Param("id"),
			"content":     tpl.Content,
			"version":     tpl.Version,
			"compiled_at": tpl.CompiledAt,
		})
	}
}

type updateTemplateRequest struct {
	Content string `json:"content" binding:"required"`
	Version string `json:"version"`
}

// Update handles PUT /api/v1/templates/:id.
func (h *TemplateHandler) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateTemplateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperrors.ErrBadRequest.WithError(err))
			return
		}

		if err := h.templates.Update(c.Request.Context(), c.Param("id"), req.Content, req.Version); err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "version": req.Version})
	}
}

// Reload handles POST /api/v1/templates/:id/reload.
func (h *TemplateHandler) Reload() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.templates.Reload(c.Request.Context(), c.Param("id")); err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "reloaded": true})
	}
}
