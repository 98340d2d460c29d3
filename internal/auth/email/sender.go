// Package email delivers outgoing mail. The implementation is chosen by
// configuration; there is no silent no-op.
package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/campushub/campushub-backend/config"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the sender selected by cfg.Type.
func New(cfg config.EmailConfig, log *zap.Logger) (Sender, error) {
	switch cfg.Type {
	case config.EmailTypeDev:
		return NewDevSender(log), nil
	case config.EmailTypeSMTP:
		return NewSMTPSender(cfg)
	default:
		return nil, fmt.Errorf("unknown EMAIL_TYPE %q", cfg.Type)
	}
}

// DevSender writes messages to the log instead of delivering them.
type DevSender struct {
	log *zap.Logger
}

func NewDevSender(log *zap.Logger) *DevSender {
	return &DevSender{log: log}
}

func (s *DevSender) Send(_ context.Context, msg Message) error {
	s.log.Info("email (dev sender, not delivered)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// SMTPSender delivers through an SMTP relay with PLAIN auth.
type SMTPSender struct {
	addr string
	from string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(cfg config.EmailConfig) (*SMTPSender, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is required for EMAIL_TYPE=smtp")
	}
	var a smtp.Auth
	if cfg.SMTPUser != "" {
		a = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}
	return &SMTPSender{
		addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		from: cfg.From,
		auth: a,
		send: smtp.SendMail,
	}, nil
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	if err := s.send(s.addr, s.auth, s.from, []string{msg.To}, s.render(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) render(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
