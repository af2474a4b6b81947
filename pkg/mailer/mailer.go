package mailer

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"unicode"
)

// Mailer delivers an HTML email to one or more recipients.
type Mailer interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NoOp discards every email. Used when SMTP is not configured.
type NoOp struct{}

func (NoOp) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

type smtpMailer struct {
	cfg  Config
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New returns an SMTP mailer, or NoOp when no host is configured.
func New(cfg Config) Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		return NoOp{}
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &smtpMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *smtpMailer) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	if len(to) == 0 {
		return errors.New("mailer: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	return m.send(addr, auth, m.cfg.From, to, buildMessage(m.cfg.From, to, subject, htmlBody))
}

func buildMessage(from string, to []string, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerValue(from))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(strings.Join(to, ", ")))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// headerValue folds line breaks and other control characters into spaces so
// a value can never start a new header.
func headerValue(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}
