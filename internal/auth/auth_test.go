package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Spok95/atk-inventory/internal/auth"
	"github.com/Spok95/atk-inventory/internal/domain/users"
	"github.com/Spok95/atk-inventory/internal/storage/memory"
)

const testSecret = "test-secret"

func TestRegisterAndLogin(t *testing.T) {
	svc := auth.New(memory.New(), testSecret)
	ctx := context.Background()

	u, err := svc.Register(ctx, "  Admin ", "admin123", "Administrator")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Username != "admin" {
		t.Fatalf("username = %q, want lowercased trimmed %q", u.Username, "admin")
	}
	if u.Role != users.RoleAdmin {
		t.Fatalf("role = %s, want admin", u.Role)
	}
	if u.PasswordHash == "admin123" || u.PasswordHash == "" {
		t.Fatal("password stored unprotected")
	}

	if _, err := svc.Register(ctx, "admin", "other", "Dup"); err == nil {
		t.Fatal("duplicate username accepted")
	}

	token, logged, err := svc.Login(ctx, "ADMIN", "admin123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.ID != u.ID {
		t.Fatalf("logged id = %d, want %d", logged.ID, u.ID)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	if _, _, err := svc.Login(ctx, "admin", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody", "admin123"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v, want ErrInvalidCredentials", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	u := &users.User{ID: 42, Username: "admin", Role: users.RoleAdmin}
	token, err := auth.GenerateToken(testSecret, u)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	parsed, err := jwt.ParseWithClaims(token, &auth.Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("parse: %v, valid=%v", err, parsed != nil && parsed.Valid)
	}
	claims := parsed.Claims.(*auth.Claims)
	if claims.UserID != 42 || claims.Username != "admin" || claims.Role != users.RoleAdmin {
		t.Fatalf("claims = %+v", claims)
	}

	// a token signed with another key must be refused
	if _, err := jwt.ParseWithClaims(token, &auth.Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	}); err == nil {
		t.Fatal("token verified with wrong secret")
	}
}
