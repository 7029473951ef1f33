package auth

import (
	"errors"
	"fmt"
	"time"

	"docgen-api/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the tenant scoping the pipeline needs. TenantID and
// UserID together form the rate-limit key for the request.
type Claims struct {
	TenantID       string `json:"tenant_id"`
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id,omitempty"`
	jwt.RegisteredClaims
}

type TokenService struct {
	config *config.Config
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{config: cfg}
}

func (ts *TokenService) GenerateToken(tenantID, userID, orgID string, ttl time.Duration) (string, error) {
	claims := &Claims{
		TenantID:       tenantID,
		UserID:         userID,
		OrganizationID: orgID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "docgen-api",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(ts.config.JWT.SecretKey))
}

func (ts *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(ts.config.JWT.SecretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if claims.TenantID == "" || claims.UserID == "" {
		return nil, errors.New("token missing tenant or user claim")
	}

	return claims, nil
}

func (ts *TokenService) ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is required")
	}

	const bearerPrefix = "Bearer "
	if len(authHeader) < len(bearerPrefix) || authHeader[:len(bearerPrefix)] != bearerPrefix {
		return "", errors.New("authorization header must start with Bearer")
	}

	return authHeader[len(bearerPrefix):], nil
}
