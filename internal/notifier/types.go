package notifier

import (
	"errors"
	"io"
	"time"

	"pubcheck/internal/clients/awsclient"
)

const (
	DriverSES    = "ses"
	DriverSMTP   = "smtp"
	DriverStdout = "stdout"
)

var (
	ErrNoRecipients  = errors.New("notifier: message has no recipients")
	ErrNoSender      = errors.New("notifier: message has no sender")
	ErrUnknownDriver = errors.New("notifier: unknown driver")
)

// Config selects and configures the delivery driver.
type Config struct {
	Driver  string
	Timeout time.Duration
	SES     SESConfig
	SMTP    SMTPConfig
	// Output receives stdout driver messages. Nil means os.Stdout.
	Output io.Writer
}

type SESConfig struct {
	AWS awsclient.Config
	// ConfigurationSet is optional.
	ConfigurationSet string
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	// FromName is an optional display name for the From header.
	FromName string
	// StartTLS upgrades the connection when the server offers it.
	StartTLS bool
}
