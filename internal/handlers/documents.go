package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"docgen-api/internal/models"
	"docgen-api/internal/services"
	apperrors "docgen-api/pkg/errors"
)

type DocumentHandler struct {
	router *services.RouterService
}

func NewDocumentHandler(router *services.RouterService) *DocumentHandler {
	return &DocumentHandler{router: router}
}

// Generate handles POST /api/v1/documents/generate. Small requests
// come back 200 with the finished document; larger ones come back 202
// with a status URL.
func (h *DocumentHandler) Generate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperrors.ErrBadRequest.WithError(err))
			return
		}
		bindScope(c, &req)

		result, err := h.router.Generate(c.Request.Context(), &req)
		if err != nil {
			c.Error(err)
			return
		}

		if result.Completed != nil {
			c.JSON(http.StatusOK, result.Completed)
			return
		}
		c.JSON(http.StatusAccepted, result.Queued)
	}
}

// GenerateAsync handles POST /api/v1/documents/generate/async; it
// always takes the queue path regardless of size.
func (h *DocumentHandler) GenerateAsync() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperrors.ErrBadRequest.WithError(err))
			return
		}
		bindScope(c, &req)

		queued, err := h.router.Enqueue(c.Request.Context(), &req)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusAccepted, queued)
	}
}

// Status handles GET /api/v1/documents/:id/status.
func (h *DocumentHandler) Status() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.Error(apperrors.ErrBadRequest.WithMessage("invalid document id"))
			return
		}

		resp, err := h.router.Status(c.Request.Context(), id, c.GetString("tenant_id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Download handles GET /api/v1/documents/:id/download with a redirect
// to a short-lived presigned link.
func (h *DocumentHandler) Download() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.Error(apperrors.ErrBadRequest.WithMessage("invalid document id"))
			return
		}

		url, err := h.router.DownloadURL(c.Request.Context(), id, c.GetString("tenant_id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.Redirect(http.StatusFound, url)
	}
}

// bindScope overwrites client-supplied identity with the authenticated
// claims so a request can never write into another tenant.
func bindScope(c *gin.Context, req *models.DocumentRequest) {
	req.Metadata.TenantID = c.GetString("tenant_id")
	req.Metadata.UserID = c.GetString("user_id")
	req.Metadata.OrganizationID = c.GetString("organization_id")
}
