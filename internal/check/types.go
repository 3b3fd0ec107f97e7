package check

import (
	"context"
	"net/http"
	"time"
)

// RunConfig is the immutable input of a single check run.
type RunConfig struct {
	ManifestURL string
	Bucket      string
	Stage       string
	LogGroup    string
	// Today is the YYYY-MM-DD date of the edition being checked.
	Today string

	MinimumArticleCount int

	SourceAddress     string
	ReturnPath        string
	SuccessRecipients []string
	FailureRecipients []string

	EditionName   string
	ArticleSuffix string
	ImageSuffix   string

	// Location is the publisher's wall clock; run-hour and calendar rules use it.
	Location *time.Location
	// CallTimeout bounds every collaborator call. 0 disables the bound.
	CallTimeout time.Duration
}

const (
	DefaultEditionName   = "Kindle"
	DefaultArticleSuffix = ".nitf.xml"
	DefaultImageSuffix   = ".jpg"
	DefaultCallTimeout   = 30 * time.Second
)

func (c RunConfig) withDefaults() RunConfig {
	if c.EditionName == "" {
		c.EditionName = DefaultEditionName
	}
	if c.ArticleSuffix == "" {
		c.ArticleSuffix = DefaultArticleSuffix
	}
	if c.ImageSuffix == "" {
		c.ImageSuffix = DefaultImageSuffix
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.CallTimeout < 0 {
		c.CallTimeout = 0
	}
	return c
}

// LogEvent is a single line of the publisher's log output.
type LogEvent struct {
	Timestamp time.Time
	Message   string
}

// LogStream describes one stream of a log group.
type LogStream struct {
	Name          string
	LastEventTime time.Time
}

// PublicationInfo summarises the objects found for today's run.
type PublicationInfo struct {
	ArticleCount int
	ImageCount   int
}

// ProbeResponse is what the redirect verifier needs from a HEAD request.
type ProbeResponse struct {
	StatusCode int
	Header     http.Header
}

// Message is a composed email.
type Message struct {
	From       string
	ReturnPath string
	To         []string
	Subject    string
	Body       string
}

// ObjectLister lists the keys stored under a prefix.
type ObjectLister interface {
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
}

// LogReader reads the publisher's log streams.
type LogReader interface {
	// DescribeLogStreams returns up to limit streams, most recent event first.
	DescribeLogStreams(ctx context.Context, group string, limit int) ([]LogStream, error)
	// GetLogEvents returns every event of a stream, oldest first.
	GetLogEvents(ctx context.Context, group, stream string) ([]LogEvent, error)
}

// Prober issues HEAD requests without following redirects.
type Prober interface {
	Head(ctx context.Context, url string) (ProbeResponse, error)
}

// Mailer delivers a composed message and returns the provider's message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Outcome is the result of the verification stages: either a success carrying
// PublicationInfo or a failure carrying the StageError that stopped the run.
type Outcome struct {
	Info    PublicationInfo
	Failure *StageError
}

func Succeeded(info PublicationInfo) Outcome { return Outcome{Info: info} }
func Failed(err *StageError) Outcome         { return Outcome{Failure: err} }

// OK reports whether every stage passed.
func (o Outcome) OK() bool { return o.Failure == nil }

// Report is what a run hands back to its caller.
type Report struct {
	RunID     string
	Today     string
	Outcome   Outcome
	Message   Message
	MessageID string
	StartedAt time.Time
	Took      time.Duration
}
