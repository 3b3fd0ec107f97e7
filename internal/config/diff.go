package config

import (
	"reflect"
	"sort"
	"strings"

	logx "pubcheck/pkg/logx"
)

// SummarizeChange lists the sections that differ between two configs and
// returns log fields describing the new values. Secrets are never included.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 16)

	if !reflect.DeepEqual(oldCfg.Check, newCfg.Check) {
		changed = append(changed, "check")
		attrs = append(attrs,
			logx.String("check.stage", newCfg.Check.Stage),
			logx.String("check.bucket", newCfg.Check.Bucket),
			logx.Int("check.minimum_article_count", newCfg.Check.MinimumArticleCount),
			logx.Int("check.success_recipients", len(newCfg.Check.SuccessRecipients)),
			logx.Int("check.failure_recipients", len(newCfg.Check.FailureRecipients)),
			logx.String("check.timezone", newCfg.Check.Timezone),
		)
	}

	if !reflect.DeepEqual(oldCfg.Schedule, newCfg.Schedule) {
		changed = append(changed, "schedule")
		attrs = append(attrs,
			logx.String("schedule.cron", newCfg.Schedule.Cron),
			logx.Any("schedule.run_hours", newCfg.Schedule.RunHours),
		)
	}

	// Compare without the password, then flag whether it changed.
	oldN, newN := oldCfg.Notify, newCfg.Notify
	pwChanged := oldN.SMTP.Password != newN.SMTP.Password
	oldN.SMTP.Password, newN.SMTP.Password = "", ""
	if pwChanged || !reflect.DeepEqual(oldN, newN) {
		changed = append(changed, "notify")
		attrs = append(attrs,
			logx.String("notify.driver", newN.Driver),
			logx.String("notify.smtp.host", newN.SMTP.Host),
			logx.Bool("notify.smtp.password_changed", pwChanged),
		)
	}

	if oldCfg.AWS.Region != newCfg.AWS.Region ||
		oldCfg.AWS.Endpoint != newCfg.AWS.Endpoint ||
		oldCfg.AWS.AccessKey != newCfg.AWS.AccessKey ||
		oldCfg.AWS.SecretKey != newCfg.AWS.SecretKey ||
		oldCfg.AWS.SessionToken != newCfg.AWS.SessionToken {
		changed = append(changed, "aws")
		attrs = append(attrs,
			logx.String("aws.region", newCfg.AWS.Region),
			logx.Bool("aws.endpoint_set", strings.TrimSpace(newCfg.AWS.Endpoint) != ""),
			logx.Bool("aws.static_credentials", newCfg.AWS.AccessKey != ""),
		)
	}

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	// Nil means disabled.
	var oS, nS StorageConfig
	if oldCfg.Storage != nil {
		oS = *oldCfg.Storage
	}
	if newCfg.Storage != nil {
		nS = *newCfg.Storage
	}
	if oS != nS {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", strings.TrimSpace(nS.Driver)),
			logx.Bool("storage.path_set", strings.TrimSpace(nS.Path) != ""),
		)
	}

	sort.Strings(changed)
	return changed, attrs
}
