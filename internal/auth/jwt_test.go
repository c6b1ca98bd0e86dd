package auth

import (
	"testing"
	"time"

	"brightsteps/portal/internal/role"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Minute, Claims{
		UserID: "user-1",
		Email:  "parent@example.com",
		Role:   "parent",
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	claims, err := ParseToken("secret", "issuer", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if claims.UserID != "user-1" || claims.Email != "parent@example.com" || claims.Role != "parent" {
		t.Fatalf("unexpected claims")
	}
	if claims.PortalRole() != role.Parent {
		t.Fatalf("expected parent role, got %s", claims.PortalRole())
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Minute, Claims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("other-secret", "issuer", token); err == nil {
		t.Fatalf("expected signature error")
	}
}

func TestParseTokenRejectsWrongIssuer(t *testing.T) {
	token, err := NewAccessToken("secret", "issuer", time.Minute, Claims{UserID: "user-1"})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if _, err := ParseToken("secret", "someone-else", token); err == nil {
		t.Fatalf("expected issuer error")
	}
}

func TestPortalRoleSanitizesRawClaim(t *testing.T) {
	claims := Claims{UserID: "user-1", Role: "root"}
	if claims.PortalRole() != role.Unknown {
		t.Fatalf("expected unknown role, got %s", claims.PortalRole())
	}
}
