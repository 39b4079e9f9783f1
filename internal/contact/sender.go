package contact

import (
	"context"
	"net/smtp"

	"github.com/jordan-wright/email"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// Sender relays a composed message.
type Sender interface {
	Send(ctx context.Context, msg *email.Email) error
}

type smtpSender struct {
	addr string
	auth smtp.Auth
}

// NewSMTPSender returns a Sender that relays through the configured SMTP server, or
// nil when the configuration is incomplete.
func NewSMTPSender(cfg config.SMTPConfig) Sender {
	if !cfg.Configured() {
		return nil
	}
	return &smtpSender{
		addr: cfg.Addr(),
		auth: smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
	}
}

// Send ignores ctx; net/smtp has no cancellation hook.
func (s *smtpSender) Send(_ context.Context, msg *email.Email) error {
	return msg.Send(s.addr, s.auth)
}
