// Package mailer sends transactional email over SMTP.
package mailer

import (
	"errors"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/learnathon-live/backend/config"
)

// ErrNotConfigured is returned when SMTP settings are absent.
var ErrNotConfigured = errors.New("mailer: smtp not configured")

// Mailer dispatches email via SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New creates a Mailer from email config. Returns a disabled mailer (Send
// fails with ErrNotConfigured) when no SMTP host is set.
func New(cfg config.EmailConfig) *Mailer {
	m := &Mailer{
		from: fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress),
	}
	if cfg.SMTPHost != "" {
		m.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	}
	return m
}

// Send delivers a single plain-text email.
func (m *Mailer) Send(to, subject, body string) error {
	if m.dialer == nil {
		return ErrNotConfigured
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}
