package notifier

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"pubcheck/internal/check"
)

// SMTP sends plain text email to an SMTP relay.
type SMTP struct {
	cfg  SMTPConfig
	auth smtp.Auth
	now  func() time.Time
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	cfg.Host = strings.TrimSpace(cfg.Host)
	if cfg.Host == "" {
		return nil, errors.New("smtp: host is required")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "25"
	}
	s := &SMTP{cfg: cfg, now: time.Now}
	if cfg.User != "" && cfg.Password != "" {
		s.auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return s, nil
}

func (s *SMTP) Send(ctx context.Context, msg check.Message) (string, error) {
	to := recipients(msg.To)
	if len(to) == 0 {
		return "", ErrNoRecipients
	}
	// Bounces go to the return path when one is set.
	envelope := msg.From
	if rp := strings.TrimSpace(msg.ReturnPath); rp != "" {
		envelope = rp
	}
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.cfg.Host)
	body := s.render(msg, to, id)

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("smtp: dial %s: %w", addr, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return "", fmt.Errorf("smtp: handshake: %w", err)
	}
	defer func() { _ = c.Close() }()

	if s.cfg.StartTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				return "", fmt.Errorf("smtp: starttls: %w", err)
			}
		}
	}
	if s.auth != nil {
		if err := c.Auth(s.auth); err != nil {
			return "", fmt.Errorf("smtp: auth: %w", err)
		}
	}
	if err := c.Mail(envelope); err != nil {
		return "", fmt.Errorf("smtp: mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return "", fmt.Errorf("smtp: rcpt to %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return "", fmt.Errorf("smtp: data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return "", fmt.Errorf("smtp: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("smtp: close data: %w", err)
	}
	if err := c.Quit(); err != nil {
		return "", fmt.Errorf("smtp: quit: %w", err)
	}
	return id, nil
}

func (s *SMTP) render(msg check.Message, to []string, id string) []byte {
	from := msg.From
	if name := strings.TrimSpace(s.cfg.FromName); name != "" {
		from = fmt.Sprintf("%s <%s>", name, msg.From)
	}
	headers := []string{
		"From: " + sanitizeHeader(from),
		"To: " + sanitizeHeader(strings.Join(to, ", ")),
		"Subject: " + sanitizeHeader(msg.Subject),
		"Date: " + s.now().Format(time.RFC1123Z),
		"Message-ID: " + id,
	}
	if rp := strings.TrimSpace(msg.ReturnPath); rp != "" {
		headers = append(headers, "Return-Path: <"+sanitizeHeader(rp)+">")
	}
	headers = append(headers,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		strings.ReplaceAll(msg.Body, "\n", "\r\n"),
	)
	return []byte(strings.Join(headers, "\r\n"))
}

var _ check.Mailer = (*SMTP)(nil)
