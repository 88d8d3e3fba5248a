package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewServiceRejectsShortSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewService("too-short"); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	t.Parallel()

	svc, err := NewService(testSecret)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	token, err := svc.IssueToken("user-1", "admin@emara.cl", "admin")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-1")
	}
	if claims.Email != "admin@emara.cl" {
		t.Errorf("Email = %q, want %q", claims.Email, "admin@emara.cl")
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want %q", claims.Role, "admin")
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	svc, err := NewService(testSecret)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	issued := time.Now().Add(-48 * time.Hour)
	svc.now = func() time.Time { return issued }

	token, err := svc.IssueToken("user-1", "admin@emara.cl", "admin")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	svc.now = time.Now
	if _, err := svc.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyToken = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	issuer, err := NewService(testSecret)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	verifier, err := NewService(strings.Repeat("x", 32))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	token, err := issuer.IssueToken("user-1", "admin@emara.cl", "admin")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := verifier.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyToken = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	t.Parallel()

	svc, err := NewService(testSecret)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := svc.VerifyToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("VerifyToken = %v, want ErrInvalidToken", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := CheckPassword(hash, "hunter2hunter2"); err != nil {
		t.Errorf("CheckPassword with correct password: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword with wrong password = %v, want ErrInvalidCredentials", err)
	}
}
