package notify

import (
	"context"
	"errors"

	"habit-planner/internal/model"
)

// ErrNoChannel is returned when no configured channel can reach the user.
var ErrNoChannel = errors.New("no notification channel for user")

// Message is a plain-text notification.
type Message struct {
	Subject string
	Text    string
}

// Notifier delivers a message to a user.
type Notifier interface {
	Notify(ctx context.Context, user model.User, msg Message) error
}

// Channel delivers messages over one medium (Telegram, email).
type Channel interface {
	Name() string
	CanReach(user model.User) bool
	Send(ctx context.Context, user model.User, msg Message) error
}

// Router sends each message through the first channel that can reach the user.
type Router struct {
	channels []Channel
}

// NewRouter builds a router; nil channels are dropped, order is priority.
func NewRouter(channels ...Channel) *Router {
	r := &Router{}
	for _, ch := range channels {
		if ch != nil {
			r.channels = append(r.channels, ch)
		}
	}
	return r
}

func (r *Router) Notify(ctx context.Context, user model.User, msg Message) error {
	for _, ch := range r.channels {
		if ch.CanReach(user) {
			return ch.Send(ctx, user, msg)
		}
	}
	return ErrNoChannel
}

// Add appends a lower-priority channel. It is not safe to call concurrently
// with Notify.
func (r *Router) Add(ch Channel) {
	if ch != nil {
		r.channels = append(r.channels, ch)
	}
}
