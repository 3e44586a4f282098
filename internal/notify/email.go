package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"habit-planner/internal/config"
	"habit-planner/internal/model"
)

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailChannel sends reminders over SMTP.
type EmailChannel struct {
	cfg    config.EmailConfig
	sender mailSender
	log    zerolog.Logger
}

// NewEmailChannel returns nil when SMTP is not configured.
func NewEmailChannel(cfg config.EmailConfig, log zerolog.Logger) *EmailChannel {
	if !cfg.Enabled() {
		return nil
	}
	return &EmailChannel{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		log:    log.With().Str("channel", "email").Logger(),
	}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) CanReach(user model.User) bool {
	return strings.TrimSpace(user.Email) != ""
}

func (c *EmailChannel) Send(ctx context.Context, user model.User, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", c.cfg.FromEmail)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)

	if err := c.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	c.log.Info().Str("to", user.Email).Str("subject", msg.Subject).Msg("email sent")
	return nil
}
