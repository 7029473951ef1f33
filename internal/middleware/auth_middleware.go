package middleware

import (
	"net/http"

	"docgen-api/internal/auth"
	"docgen-api/pkg/errors"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	tokenService *auth.TokenService
}

func NewAuthMiddleware(tokenService *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenService: tokenService}
}

// RequireAuth validates the bearer token and stores tenant scoping in
// the gin context for the handlers and the router service.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, errors.ErrorResponse{
				Error:   errors.ErrUnauthorized.Code,
				Message: "Authorization header is required",
			})
			c.Abort()
			return
		}

		tokenString, err := m.tokenService.ExtractTokenFromHeader(authHeader)
		if err != nil {
			c.JSON(http.StatusUnauthorized, errors.ErrorResponse{
				Error:   errors.ErrUnauthorized.Code,
				Message: err.Error(),
			})
			c.Abort()
			return
		}

		claims, err := m.tokenService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, errors.ErrorResponse{
				Error:   errors.ErrUnauthorized.Code,
				Message: "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set("tenant_id", claims.TenantID)
		c.Set("user_id", claims.UserID)
		if claims.OrganizationID != "" {
			c.Set("organization_id", claims.OrganizationID)
		}

		c.Next()
	}
}
