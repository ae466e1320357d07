package services

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterLoginRoundTrip(t *testing.T) {
	s := newTestStack(t)
	auth := NewAuthService(s.db)
	ctx := context.Background()

	user, err := auth.Register(ctx, "dana@example.com", "hunter2hunter2", "Dana")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Password == "hunter2hunter2" {
		t.Fatal("password stored in plain text")
	}

	token, err := auth.Login(ctx, "dana@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatal("login returned empty token")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	s := newTestStack(t)
	auth := NewAuthService(s.db)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "dana@example.com", "hunter2hunter2", "Dana"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := auth.Register(ctx, "dana@example.com", "otherpassword", "Dana II"); !IsValidation(err) {
		t.Fatalf("duplicate register: %v, want ValidationError", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestStack(t)
	auth := NewAuthService(s.db)
	ctx := context.Background()

	if _, err := auth.Register(ctx, "dana@example.com", "hunter2hunter2", "Dana"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := auth.Login(ctx, "dana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v, want ErrInvalidCredentials", err)
	}
	// unknown email fails the same way as a wrong password
	if _, err := auth.Login(ctx, "nobody@example.com", "hunter2hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: %v, want ErrInvalidCredentials", err)
	}
}
