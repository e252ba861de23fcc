package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shehrozeikram/erp-audit-engine/internal/models"
)

func TestJWTRoundTrip(t *testing.T) {
	secret := "test-secret"
	actor := models.Actor{
		UserID:     uuid.New(),
		Email:      "auditor@example.com",
		Role:       "auditor",
		Department: "Finance",
	}

	tokenStr, err := GenerateJWT(secret, actor, "sess-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(secret, tokenStr)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}

	if claims.UserID != actor.UserID {
		t.Errorf("UserID = %s, want %s", claims.UserID, actor.UserID)
	}
	if claims.Email != actor.Email {
		t.Errorf("Email = %q, want %q", claims.Email, actor.Email)
	}
	if claims.Role != actor.Role {
		t.Errorf("Role = %q, want %q", claims.Role, actor.Role)
	}
	if claims.Department != actor.Department {
		t.Errorf("Department = %q, want %q", claims.Department, actor.Department)
	}
	if claims.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want %q", claims.SessionID, "sess-1")
	}
	if got := claims.Actor(); got != actor {
		t.Errorf("Actor() = %+v, want %+v", got, actor)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	tokenStr, err := GenerateJWT("secret-a", models.Actor{UserID: uuid.New(), Email: "a@b.c"}, "", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := ParseJWT("secret-b", tokenStr); err == nil {
		t.Error("ParseJWT accepted a token signed with a different secret")
	}
}

func TestParseJWTExpired(t *testing.T) {
	claims := Claims{
		UserID: uuid.New(),
		Email:  "a@b.c",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseJWT("secret", tokenStr); err == nil {
		t.Error("ParseJWT accepted an expired token")
	}
}

func TestParseJWTGarbage(t *testing.T) {
	if _, err := ParseJWT("secret", "not-a-token"); err == nil {
		t.Error("ParseJWT accepted a malformed token")
	}
}
