package notifier

import (
	"context"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"pubcheck/internal/check"
	"pubcheck/internal/clients/awsclient"
	logx "pubcheck/pkg/logx"
)

// New builds the Mailer selected by cfg.Driver. An empty driver means ses.
func New(ctx context.Context, cfg Config, log logx.Logger) (check.Mailer, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverSES
	}
	log = log.With(logx.String("driver", driver))

	var m check.Mailer
	switch driver {
	case DriverSES:
		awsCfg, err := awsclient.Load(ctx, cfg.SES.AWS)
		if err != nil {
			return nil, err
		}
		m = NewSESFromConfig(awsCfg, cfg.SES)
	case DriverSMTP:
		s, err := NewSMTP(cfg.SMTP)
		if err != nil {
			return nil, err
		}
		m = s
	case DriverStdout:
		w := cfg.Output
		if w == nil {
			w = os.Stdout
		}
		m = NewStdout(w)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	return &logged{next: m, log: log, timeout: cfg.Timeout}, nil
}

// logged validates and records every delivery attempt.
type logged struct {
	next    check.Mailer
	log     logx.Logger
	timeout time.Duration
}

func (l *logged) Send(ctx context.Context, msg check.Message) (string, error) {
	if err := validate(msg); err != nil {
		return "", err
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	id, err := l.next.Send(ctx, msg)
	if err != nil {
		l.log.Warn("send failed", logx.String("subject", msg.Subject), logx.Int("recipients", len(msg.To)), logx.Err(err))
		return "", err
	}
	l.log.Debug("sent", logx.String("subject", msg.Subject), logx.String("message_id", id))
	return id, nil
}

func validate(msg check.Message) error {
	if strings.TrimSpace(msg.From) == "" {
		return ErrNoSender
	}
	n := 0
	for _, to := range msg.To {
		if strings.TrimSpace(to) == "" {
			continue
		}
		if _, err := mail.ParseAddress(to); err != nil {
			return fmt.Errorf("notifier: recipient %q: %w", to, err)
		}
		n++
	}
	if n == 0 {
		return ErrNoRecipients
	}
	return nil
}

func recipients(to []string) []string {
	out := make([]string, 0, len(to))
	for _, r := range to {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}
