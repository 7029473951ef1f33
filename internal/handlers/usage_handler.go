package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docgen-api/internal/repositories"
	apperrors "docgen-api/pkg/errors"
)

type UsageHandler struct {
	usage *repositories.UsageRepository
}

func NewUsageHandler(usage *repositories.UsageRepository) *UsageHandler {
	return &UsageHandler{usage: usage}
}

// Stats handles GET /api/v1/usage. Optional from/to query parameters
// in YYYY-MM-DD form default to the last 30 days.
func (h *UsageHandler) Stats() gin.HandlerFunc {
	return func(c *gin.Context) {
		to := time.Now().UTC()
		from := to.AddDate(0, 0, -30)

		var err error
		if v := c.Query("from"); v != "" {
			if from, err = time.Parse("2006-01-02", v); err != nil {
				c.Error(apperrors.ErrBadRequest.WithMessage("invalid from date, expected YYYY-MM-DD"))
				return
			}
		}
		if v := c.Query("to"); v != "" {
			if to, err = time.Parse("2006-01-02", v); err != nil {
				c.Error(apperrors.ErrBadRequest.WithMessage("invalid to date, expected YYYY-MM-DD"))
				return
			}
		}

		rows, err := h.usage.GetForTenant(c.Request.Context(), c.GetString("tenant_id"), from, to)
		if err != nil {
			c.Error(apperrors.ErrInternalServer.WithError(err))
			return
		}
		if rows == nil {
			rows = []repositories.UsageRow{}
		}
		c.JSON(http.StatusOK, gin.H{"usage": rows})
	}
}
