package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"

	"homeloan/internal/platform/config"
)

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewSMTPSender(cfg config.NotificationConfig) *SMTPSender {
	s := &SMTPSender{
		addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		from: cfg.From,
		send: func(e *email.Email, addr string, auth smtp.Auth) error { return e.Send(addr, auth) },
	}
	if cfg.SMTPUsername != "" {
		s.auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return s
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := email.NewEmail()
	e.From = s.from
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)
	e.Headers.Set("X-Homeloan-Event", msg.EventID)
	if err := s.send(e, s.addr, s.auth); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Used when no
// SMTP relay is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "notification",
		"event_id", msg.EventID,
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
