package notification

import (
	"context"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SenderConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Sender struct {
	dialer  Dialer
	from    string
	enabled bool
	logger  *slog.Logger
}

func NewSender(cfg SenderConfig, logger *slog.Logger) *Sender {
	return NewSenderWithDialer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg, logger)
}

func NewSenderWithDialer(dialer Dialer, cfg SenderConfig, logger *slog.Logger) *Sender {
	return &Sender{
		dialer:  dialer,
		from:    cfg.From,
		enabled: cfg.Enabled,
		logger:  logger,
	}
}

// Send renders and delivers one email. It reports whether the message was
// handed to the SMTP server and never returns an error.
func (s *Sender) Send(ctx context.Context, templateName, recipient string, data map[string]interface{}) bool {
	if recipient == "" {
		s.logger.Warn("email skipped, no recipient", "template", templateName)
		return false
	}
	if !s.enabled {
		s.logger.Info("email disabled, skipping", "template", templateName, "recipient", recipient)
		return false
	}
	if err := ctx.Err(); err != nil {
		s.logger.Warn("email skipped, context done", "template", templateName, "error", err)
		return false
	}

	subject, body, err := render(templateName, data)
	if err != nil {
		s.logger.Error("failed to render email", "template", templateName, "error", err)
		return false
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipient)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("failed to send email", "template", templateName, "recipient", recipient, "error", err)
		return false
	}

	s.logger.Info("email sent", "template", templateName, "recipient", recipient)
	return true
}
