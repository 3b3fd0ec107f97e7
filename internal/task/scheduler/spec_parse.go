package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

var reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

// NormalizeSpec turns a schedule string into a cron spec.
//
// Supported forms:
//   - Cron: "5 0,1 * * *", "0 5 0 * * *", "@daily", "@every 30m"
//   - Interval duration: "55m", "2h30m" (becomes "@every 55m")
//   - Interval HH:MM: "02:30" (every 2h30m)
//
// A "cron:" prefix forces cron parsing; "every:" or "interval:" force an
// interval.
func NormalizeSpec(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("schedule required")
	}

	low := strings.ToLower(s)
	switch {
	case strings.HasPrefix(low, "cron:"):
		return validCron(strings.TrimSpace(s[len("cron:"):]))
	case strings.HasPrefix(low, "every:"):
		return every(s[len("every:"):])
	case strings.HasPrefix(low, "interval:"):
		return every(s[len("interval:"):])
	case strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@"):
		return validCron(s)
	default:
		return every(s)
	}
}

func validCron(spec string) (string, error) {
	if spec == "" {
		return "", fmt.Errorf("cron schedule required")
	}
	if _, err := parser.Parse(spec); err != nil {
		return "", fmt.Errorf("invalid cron %q: %w", spec, err)
	}
	return spec, nil
}

func every(v string) (string, error) {
	v = strings.TrimSpace(v)
	var d time.Duration
	if m := reHHMM.FindStringSubmatch(v); m != nil {
		hh, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		if mm > 59 {
			return "", fmt.Errorf("invalid minutes in %q", v)
		}
		d = time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
	} else {
		var err error
		if d, err = time.ParseDuration(v); err != nil {
			return "", fmt.Errorf("invalid schedule %q (use cron like '5 0,1 * * *', HH:MM like '02:30', or duration like '55m')", v)
		}
	}
	if d <= 0 {
		return "", fmt.Errorf("interval must be > 0")
	}
	return "@every " + d.String(), nil
}
