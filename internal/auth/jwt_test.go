package auth

import (
	"testing"
	"time"

	"docgen-api/config"
)

func testService() *TokenService {
	return NewTokenService(&config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret"},
	})
}

func TestTokenRoundTrip(t *testing.T) {
	ts := testService()

	token, err := ts.GenerateToken("acme", "alice", "acme-emea", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ts.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.TenantID != "acme" || claims.UserID != "alice" || claims.OrganizationID != "acme-emea" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	ts := testService()

	token, err := ts.GenerateToken("acme", "alice", "", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ts.ValidateToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	other := NewTokenService(&config.Config{
		JWT: config.JWTConfig{SecretKey: "different-secret"},
	})
	token, err := other.GenerateToken("acme", "alice", "", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := testService().ValidateToken(token); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
}

func TestValidateRejectsMissingScope(t *testing.T) {
	ts := testService()
	token, err := ts.GenerateToken("", "alice", "", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ts.ValidateToken(token); err == nil {
		t.Error("expected token without tenant claim to be rejected")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	ts := testService()

	if _, err := ts.ExtractTokenFromHeader(""); err == nil {
		t.Error("empty header accepted")
	}
	if _, err := ts.ExtractTokenFromHeader("Basic abc"); err == nil {
		t.Error("non-bearer header accepted")
	}
	got, err := ts.ExtractTokenFromHeader("Bearer abc.def.ghi")
	if err != nil {
		t.Fatalf("ExtractTokenFromHeader: %v", err)
	}
	if got != "abc.def.ghi" {
		t.Errorf("token = %q", got)
	}
}
