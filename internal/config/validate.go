package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"pubcheck/internal/calendar"
	"pubcheck/internal/check"
	"pubcheck/internal/clients/awsclient"
	"pubcheck/internal/notifier"
)

var ErrInvalid = errors.New("invalid config")

const (
	DefaultCron          = "5 0,1 * * *"
	DefaultNotifyTimeout = 30 * time.Second
	logGroupPrefix       = "/aws/lambda/kindle-gen-"
)

// DefaultRunHours are the hours the publisher runs at.
var DefaultRunHours = []int{0, 1}

// ApplyDefaults fills derived and omitted fields in place.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Check.LogGroup) == "" && strings.TrimSpace(c.Check.Stage) != "" {
		c.Check.LogGroup = logGroupPrefix + strings.TrimSpace(c.Check.Stage)
	}
	if strings.TrimSpace(c.Check.Timezone) == "" {
		c.Check.Timezone = calendar.DefaultLocation
	}
	if len(c.Schedule.RunHours) == 0 {
		c.Schedule.RunHours = append([]int(nil), DefaultRunHours...)
	}
	if strings.TrimSpace(c.Schedule.Cron) == "" {
		c.Schedule.Cron = DefaultCron
	}
	if strings.TrimSpace(c.Notify.Driver) == "" {
		c.Notify.Driver = notifier.DriverSES
	}
	if strings.TrimSpace(c.AWS.Region) == "" {
		c.AWS.Region = awsclient.DefaultRegion
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = "info"
	}
}

// Validate reports the first invalid field by its config path.
func (c *Config) Validate() error {
	invalid := func(path, format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalid, path, fmt.Sprintf(format, args...))
	}

	ch := c.Check
	if strings.TrimSpace(ch.ManifestURL) == "" {
		return invalid("check.manifest_url", "required")
	}
	if u, err := url.Parse(ch.ManifestURL); err != nil || u.Scheme == "" || u.Host == "" {
		return invalid("check.manifest_url", "%q is not an absolute URL", ch.ManifestURL)
	}
	if strings.TrimSpace(ch.Bucket) == "" {
		return invalid("check.bucket", "required")
	}
	if strings.TrimSpace(ch.Stage) == "" {
		return invalid("check.stage", "required")
	}
	if ch.MinimumArticleCount < 0 {
		return invalid("check.minimum_article_count", "must be >= 0")
	}
	if strings.TrimSpace(ch.SourceAddress) == "" {
		return invalid("check.source_address", "required")
	}
	if len(ch.SuccessRecipients) == 0 {
		return invalid("check.success_recipients", "at least one address required")
	}
	if len(ch.FailureRecipients) == 0 {
		return invalid("check.failure_recipients", "at least one address required")
	}
	if _, err := calendar.LoadLocation(ch.Timezone); err != nil {
		return invalid("check.timezone", "%v", err)
	}
	if _, err := ParseDurationField("check.call_timeout", ch.CallTimeout); err != nil {
		return err
	}

	for _, h := range c.Schedule.RunHours {
		if h < 0 || h > 23 {
			return invalid("schedule.run_hours", "hour %d out of range 0-23", h)
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Notify.Driver)) {
	case "", notifier.DriverSES, notifier.DriverStdout:
	case notifier.DriverSMTP:
		if strings.TrimSpace(c.Notify.SMTP.Host) == "" {
			return invalid("notify.smtp.host", "required for the smtp driver")
		}
	default:
		return invalid("notify.driver", "unknown driver %q", c.Notify.Driver)
	}
	if _, err := ParseDurationField("notify.timeout", c.Notify.Timeout); err != nil {
		return err
	}

	if s := c.Storage; s != nil {
		switch strings.ToLower(strings.TrimSpace(s.Driver)) {
		case "", "none", "file", "sqlite":
		default:
			return invalid("storage.driver", "unknown driver %q", s.Driver)
		}
		if _, err := ParseDurationField("storage.busy_timeout", s.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}

// RunConfig builds the immutable input of one check. today overrides the
// date derived from now in the configured timezone.
func (c *Config) RunConfig(now time.Time, today string) (check.RunConfig, error) {
	loc, err := calendar.LoadLocation(c.Check.Timezone)
	if err != nil {
		return check.RunConfig{}, fmt.Errorf("%w: check.timezone: %v", ErrInvalid, err)
	}
	if strings.TrimSpace(today) == "" {
		today = calendar.Today(now.In(loc))
	} else if _, err := calendar.ParseDay(today, loc); err != nil {
		return check.RunConfig{}, fmt.Errorf("%w: date %q: want YYYY-MM-DD", ErrInvalid, today)
	}
	timeout, err := ParseDurationOrDefault("check.call_timeout", c.Check.CallTimeout, check.DefaultCallTimeout)
	if err != nil {
		return check.RunConfig{}, err
	}

	ch := c.Check
	return check.RunConfig{
		ManifestURL:         strings.TrimSpace(ch.ManifestURL),
		Bucket:              strings.TrimSpace(ch.Bucket),
		Stage:               strings.TrimSpace(ch.Stage),
		LogGroup:            strings.TrimSpace(ch.LogGroup),
		Today:               strings.TrimSpace(today),
		MinimumArticleCount: ch.MinimumArticleCount,
		SourceAddress:       strings.TrimSpace(ch.SourceAddress),
		ReturnPath:          strings.TrimSpace(ch.ReturnPath),
		SuccessRecipients:   append([]string(nil), ch.SuccessRecipients...),
		FailureRecipients:   append([]string(nil), ch.FailureRecipients...),
		EditionName:         ch.EditionName,
		ArticleSuffix:       ch.ArticleSuffix,
		ImageSuffix:         ch.ImageSuffix,
		Location:            loc,
		CallTimeout:         timeout,
	}, nil
}

// NotifierConfig maps the notify and aws sections for notifier.New.
func (c *Config) NotifierConfig() (notifier.Config, error) {
	timeout, err := ParseDurationOrDefault("notify.timeout", c.Notify.Timeout, DefaultNotifyTimeout)
	if err != nil {
		return notifier.Config{}, err
	}
	s := c.Notify.SMTP
	return notifier.Config{
		Driver:  c.Notify.Driver,
		Timeout: timeout,
		SES: notifier.SESConfig{
			AWS:              c.AWSClientConfig(),
			ConfigurationSet: c.Notify.SES.ConfigurationSet,
		},
		SMTP: notifier.SMTPConfig{
			Host:     s.Host,
			Port:     s.Port,
			User:     s.User,
			Password: s.Password,
			FromName: s.FromName,
			StartTLS: s.StartTLS,
		},
	}, nil
}

func (c *Config) AWSClientConfig() awsclient.Config {
	return awsclient.Config{
		Region:       c.AWS.Region,
		Endpoint:     c.AWS.Endpoint,
		AccessKey:    c.AWS.AccessKey,
		SecretKey:    c.AWS.SecretKey,
		SessionToken: c.AWS.SessionToken,
	}
}
