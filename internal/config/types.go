package config

// Config is the on-disk configuration. Every field can also be set from the
// environment (see ApplyEnv); the environment wins.
type Config struct {
	Check    CheckConfig    `json:"check"`
	Schedule ScheduleConfig `json:"schedule"`
	Notify   NotifyConfig   `json:"notify"`
	AWS      AWSConfig      `json:"aws"`
	Logging  LoggingConfig  `json:"logging"`

	// Storage enables the run audit. Nil means disabled.
	Storage *StorageConfig `json:"storage,omitempty"`
}

// CheckConfig describes the publication under test and who hears about it.
//
// Durations are Go duration strings (e.g. "10s", "1m").
type CheckConfig struct {
	ManifestURL string `json:"manifest_url"`
	Bucket      string `json:"bucket"`
	Stage       string `json:"stage"`
	// LogGroup defaults to /aws/lambda/kindle-gen-<stage>.
	LogGroup string `json:"log_group,omitempty"`

	MinimumArticleCount int `json:"minimum_article_count"`

	SourceAddress     string   `json:"source_address"`
	ReturnPath        string   `json:"return_path,omitempty"`
	SuccessRecipients []string `json:"success_recipients"`
	FailureRecipients []string `json:"failure_recipients"`

	EditionName   string `json:"edition_name,omitempty"`
	ArticleSuffix string `json:"article_suffix,omitempty"`
	ImageSuffix   string `json:"image_suffix,omitempty"`

	// Timezone is the publisher's wall clock (default Europe/London).
	Timezone    string `json:"timezone,omitempty"`
	CallTimeout string `json:"call_timeout,omitempty"`
}

// ScheduleConfig controls when a check runs.
type ScheduleConfig struct {
	// RunHours gates `run` and every daemon trigger. Empty means [0, 1].
	RunHours []int `json:"run_hours,omitempty"`
	// Cron is the daemon trigger, evaluated in check.timezone.
	Cron string `json:"cron,omitempty"`
}

type NotifyConfig struct {
	// Driver is ses, smtp or stdout.
	Driver  string     `json:"driver"`
	Timeout string     `json:"timeout,omitempty"`
	SES     SESConfig  `json:"ses"`
	SMTP    SMTPConfig `json:"smtp"`
}

type SESConfig struct {
	ConfigurationSet string `json:"configuration_set,omitempty"`
}

type SMTPConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"` // do not log
	FromName string `json:"from_name,omitempty"`
	StartTLS bool   `json:"starttls,omitempty"`
}

// AWSConfig is shared by S3, CloudWatch Logs and SES. Empty keys use the
// default credential chain.
type AWSConfig struct {
	Region       string `json:"region,omitempty"`
	Endpoint     string `json:"endpoint,omitempty"`
	AccessKey    string `json:"access_key,omitempty"`
	SecretKey    string `json:"secret_key,omitempty"`    // do not log
	SessionToken string `json:"session_token,omitempty"` // do not log
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the run audit.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./pubcheck.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}
