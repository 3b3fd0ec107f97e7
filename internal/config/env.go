package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment variables. The capitalised names are the ones the publisher's
// deployment already sets.
const (
	EnvManifestURL         = "ManifestURL"
	EnvBucket              = "KindleBucket"
	EnvStage               = "Stage"
	EnvSourceAddress       = "SourceAddress"
	EnvReturnPath          = "ReturnPath"
	EnvPassTargets         = "PassTargetAddresses"
	EnvFailureTargets      = "FailureTargetAddresses"
	EnvMinimumArticleCount = "MinimumArticleCount"
	EnvRunHours            = "RunHours"
	EnvLogGroup            = "LogGroup"

	EnvRegion       = "AWS_REGION"
	EnvLogLevel     = "PUBCHECK_LOG_LEVEL"
	EnvNotifyDriver = "PUBCHECK_NOTIFY_DRIVER"
	EnvTimezone     = "PUBCHECK_TIMEZONE"
	EnvSMTPHost     = "SMTP_HOST"
	EnvSMTPPort     = "SMTP_PORT"
	EnvSMTPUser     = "SMTP_USER"
	EnvSMTPPassword = "SMTP_PASSWORD"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overlays set, non-empty variables onto cfg. A nil lookup reads the
// process environment.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	c := &cfg.Check
	str(EnvManifestURL, &c.ManifestURL)
	str(EnvBucket, &c.Bucket)
	str(EnvStage, &c.Stage)
	str(EnvLogGroup, &c.LogGroup)
	str(EnvSourceAddress, &c.SourceAddress)
	str(EnvReturnPath, &c.ReturnPath)
	str(EnvTimezone, &c.Timezone)
	if v, ok := get(EnvPassTargets); ok {
		c.SuccessRecipients = SplitList(v)
	}
	if v, ok := get(EnvFailureTargets); ok {
		c.FailureRecipients = SplitList(v)
	}
	if v, ok := get(EnvMinimumArticleCount); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %q is not an integer", ErrInvalid, EnvMinimumArticleCount, v)
		}
		c.MinimumArticleCount = n
	}
	if v, ok := get(EnvRunHours); ok {
		hours, err := ParseHours(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRunHours, err)
		}
		cfg.Schedule.RunHours = hours
	}

	str(EnvRegion, &cfg.AWS.Region)
	str(EnvLogLevel, &cfg.Logging.Level)
	str(EnvNotifyDriver, &cfg.Notify.Driver)
	str(EnvSMTPHost, &cfg.Notify.SMTP.Host)
	str(EnvSMTPPort, &cfg.Notify.SMTP.Port)
	str(EnvSMTPUser, &cfg.Notify.SMTP.User)
	str(EnvSMTPPassword, &cfg.Notify.SMTP.Password)
	return nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseHours parses "0,1" into hours of the day.
func ParseHours(s string) ([]int, error) {
	var out []int
	for _, p := range SplitList(s) {
		h, err := strconv.Atoi(p)
		if err != nil || h < 0 || h > 23 {
			return nil, fmt.Errorf("%w: hour %q out of range 0-23", ErrInvalid, p)
		}
		out = append(out, h)
	}
	return out, nil
}
