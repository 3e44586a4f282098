package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(f.users, "secret", time.Hour)
	ctx := context.Background()

	chat := int64(42)
	user, err := svc.Register(ctx, " Ann@Example.com ", "hunter2", &chat)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "ann@example.com" || user.PasswordHash == "hunter2" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.TelegramChatID == nil || *user.TelegramChatID != 42 {
		t.Fatalf("chat id not stored")
	}

	if _, err := svc.Register(ctx, "ann@example.com", "other", nil); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate email, got %v", err)
	}

	session, err := svc.Login(ctx, "ann@example.com", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token == "" || session.User.ID != user.ID {
		t.Fatalf("unexpected session: %+v", session)
	}
	subject, err := svc.ParseToken(session.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if subject != user.ID {
		t.Fatalf("expected subject %s, got %s", user.ID, subject)
	}
}

func TestLoginFailures(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(f.users, "secret", time.Hour)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "ann@example.com", "hunter2", nil); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "ann@example.com", "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for bad password, got %v", err)
	}
	if _, err := svc.Login(ctx, "bob@example.com", "hunter2"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown user, got %v", err)
	}
	if _, err := svc.Login(ctx, "", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestParseTokenRejectsExpiredAndForeign(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(f.users, "secret", time.Hour)
	ctx := context.Background()
	if _, err := svc.Register(ctx, "ann@example.com", "hunter2", nil); err != nil {
		t.Fatalf("register: %v", err)
	}
	session, err := svc.Login(ctx, "ann@example.com", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	other := NewAuthService(f.users, "another-secret", time.Hour)
	if _, err := other.ParseToken(session.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected foreign token to be rejected, got %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.ParseToken(session.Token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
	if _, err := svc.ParseToken("garbage"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected garbage to be rejected, got %v", err)
	}
}

func TestUpdateContact(t *testing.T) {
	f := newFixture(t)
	svc := NewAuthService(f.users, "secret", time.Hour)
	ctx := context.Background()
	user, err := svc.Register(ctx, "ann@example.com", "hunter2", nil)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	chat := int64(777)
	updated, err := svc.UpdateContact(ctx, user.ID, &chat)
	if err != nil {
		t.Fatalf("update contact: %v", err)
	}
	if updated.TelegramChatID == nil || *updated.TelegramChatID != 777 {
		t.Fatalf("chat id not updated: %+v", updated)
	}

	byChat, err := f.users.FindByTelegramChatID(ctx, 777)
	if err != nil || byChat.ID != user.ID {
		t.Fatalf("lookup by chat id: %v %+v", err, byChat)
	}

	if _, err := svc.UpdateContact(ctx, "ghost", &chat); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
