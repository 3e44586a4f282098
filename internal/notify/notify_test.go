package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"gopkg.in/gomail.v2"

	"habit-planner/internal/config"
	"habit-planner/internal/logging"
	"habit-planner/internal/model"
)

type fakeChannel struct {
	name  string
	reach bool
	sent  []Message
}

func (f *fakeChannel) Name() string             { return f.name }
func (f *fakeChannel) CanReach(model.User) bool { return f.reach }
func (f *fakeChannel) Send(_ context.Context, _ model.User, msg Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func TestRouterUsesFirstReachableChannel(t *testing.T) {
	telegram := &fakeChannel{name: "telegram", reach: false}
	email := &fakeChannel{name: "email", reach: true}
	r := NewRouter(telegram, nil, email)

	if err := r.Notify(context.Background(), model.User{}, Message{Text: "hi"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(telegram.sent) != 0 || len(email.sent) != 1 {
		t.Fatalf("expected email only, got telegram=%d email=%d", len(telegram.sent), len(email.sent))
	}
}

func TestRouterWithoutChannels(t *testing.T) {
	r := NewRouter()
	err := r.Notify(context.Background(), model.User{}, Message{})
	if !errors.Is(err, ErrNoChannel) {
		t.Fatalf("expected ErrNoChannel, got %v", err)
	}
}

type fakeSender struct {
	messages []*gomail.Message
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	f.messages = append(f.messages, m...)
	return nil
}

func TestNewEmailChannelDisabled(t *testing.T) {
	if ch := NewEmailChannel(config.EmailConfig{}, logging.Nop()); ch != nil {
		t.Fatalf("expected nil channel without SMTP settings")
	}
}

func TestEmailChannelSend(t *testing.T) {
	cfg := config.EmailConfig{SMTPHost: "smtp.example.com", SMTPPort: 587, FromEmail: "planner@example.com"}
	ch := NewEmailChannel(cfg, logging.Nop())
	sender := &fakeSender{}
	ch.sender = sender

	user := model.User{Email: "ann@example.com"}
	if !ch.CanReach(user) {
		t.Fatalf("expected user with email to be reachable")
	}
	if err := ch.Send(context.Background(), user, Message{Subject: "Today's Plan", Text: "- Morning Cardio"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sender.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.messages))
	}

	m := sender.messages[0]
	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "ann@example.com" {
		t.Fatalf("unexpected To header: %v", got)
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("render message: %v", err)
	}
	if !strings.Contains(buf.String(), "Morning Cardio") {
		t.Fatalf("body missing task title: %s", buf.String())
	}
}

func TestRouterAddKeepsPriority(t *testing.T) {
	first := &fakeChannel{name: "telegram", reach: true}
	second := &fakeChannel{name: "email", reach: true}
	r := NewRouter()
	r.Add(first)
	r.Add(second)

	if err := r.Notify(context.Background(), model.User{}, Message{Text: "hi"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(first.sent) != 1 || len(second.sent) != 0 {
		t.Fatalf("expected first added channel to win, got %d/%d", len(first.sent), len(second.sent))
	}
}
