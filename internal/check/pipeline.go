// Package check verifies that today's edition was published and reports the
// result by email.
//
// A run walks three stages in order: the log scan, the redirect check and the
// artifact count. The first failing stage stops the run; whatever happens,
// exactly one message is composed and handed to the Mailer.
package check

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	logx "pubcheck/pkg/logx"
)

// Deps are the collaborators a Checker calls. All are required.
type Deps struct {
	Objects ObjectLister
	Logs    LogReader
	Prober  Prober
	Mailer  Mailer
}

// Checker runs the publication check for one RunConfig.
type Checker struct {
	cfg     RunConfig
	objects ObjectLister
	logs    LogReader
	prober  Prober
	mailer  Mailer

	now   func() time.Time
	newID func() string
	log   logx.Logger
}

type Option func(*Checker)

// WithClock replaces time.Now. Calendar rules and the run-hour bucket read it.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRunID fixes the run id instead of generating a random one.
func WithRunID(id string) Option {
	return func(c *Checker) {
		if id != "" {
			c.newID = func() string { return id }
		}
	}
}

// New validates cfg and deps and returns a Checker.
func New(cfg RunConfig, deps Deps, log logx.Logger, opts ...Option) (*Checker, error) {
	switch {
	case deps.Objects == nil:
		return nil, errors.New("check: object lister is required")
	case deps.Logs == nil:
		return nil, errors.New("check: log reader is required")
	case deps.Prober == nil:
		return nil, errors.New("check: prober is required")
	case deps.Mailer == nil:
		return nil, errors.New("check: mailer is required")
	}
	if strings.TrimSpace(cfg.Today) == "" {
		return nil, errors.New("check: today is required")
	}
	if strings.TrimSpace(cfg.ManifestURL) == "" {
		return nil, errors.New("check: manifest url is required")
	}
	if cfg.MinimumArticleCount < 0 {
		return nil, fmt.Errorf("check: minimum article count must be >= 0, got %d", cfg.MinimumArticleCount)
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	c := &Checker{
		cfg:     cfg.withDefaults(),
		objects: deps.Objects,
		logs:    deps.Logs,
		prober:  deps.Prober,
		mailer:  deps.Mailer,
		now:     time.Now,
		newID:   uuid.NewString,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the effective run configuration.
func (c *Checker) Config() RunConfig { return c.cfg }

func (c *Checker) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.CallTimeout)
}

// Evaluate runs the stages and stops at the first failure. It sends nothing.
func (c *Checker) Evaluate(ctx context.Context) Outcome {
	c.log.Debug("stage started", logx.String("stage", string(StageLogs)))
	if se := c.scanLogs(ctx); se != nil {
		return c.fail(se)
	}

	c.log.Debug("stage started", logx.String("stage", string(StageRedirect)))
	target, se := c.resolveRedirect(ctx)
	if se != nil {
		return c.fail(se)
	}
	if se := c.probeTarget(ctx, target); se != nil {
		return c.fail(se)
	}

	c.log.Debug("stage started", logx.String("stage", string(StageArtifacts)), logx.String("target", target))
	info, se := c.countArtifacts(ctx)
	if se != nil {
		return c.fail(se)
	}

	c.log.Info("all stages passed", logx.Int("articles", info.ArticleCount), logx.Int("images", info.ImageCount))
	return Succeeded(info)
}

func (c *Checker) fail(se *StageError) Outcome {
	c.log.Warn("stage failed",
		logx.String("stage", string(se.Stage)),
		logx.String("kind", se.Kind.String()),
		logx.String("reason", se.Reason()),
		logx.Err(se.Err),
	)
	return Failed(se)
}

// Compose turns an outcome into the message for it.
func (c *Checker) Compose(o Outcome) Message {
	if o.OK() {
		return ComposeSuccess(c.cfg, o.Info)
	}
	return ComposeFailure(c.cfg, o.Failure, c.now())
}

// Run evaluates the stages, composes one message and sends it.
//
// The returned error is non-nil only when the message could not be sent; a
// failed check is reported through Report.Outcome.
func (c *Checker) Run(ctx context.Context) (Report, error) {
	startedAt := c.now()
	rep := Report{RunID: c.newID(), Today: c.cfg.Today, StartedAt: startedAt}

	run := *c
	run.log = c.log.With(logx.String("run_id", rep.RunID), logx.String("today", c.cfg.Today))
	run.log.Info("publication check started", logx.String("manifest", c.cfg.ManifestURL), logx.String("bucket", c.cfg.Bucket))

	rep.Outcome = run.Evaluate(ctx)
	rep.Message = run.Compose(rep.Outcome)

	cctx, cancel := run.callContext(ctx)
	id, err := run.mailer.Send(cctx, rep.Message)
	cancel()
	rep.MessageID = id
	rep.Took = c.now().Sub(startedAt)

	status := "success"
	if !rep.Outcome.OK() {
		status = "failure"
	}
	if err != nil {
		run.log.Error("report not sent", logx.String("status", status), logx.String("subject", rep.Message.Subject), logx.Err(err))
		return rep, fmt.Errorf("check: send %s report: %w", status, err)
	}
	run.log.Info("report sent",
		logx.String("status", status),
		logx.String("subject", rep.Message.Subject),
		logx.String("message_id", id),
		logx.Strings("to", rep.Message.To),
		logx.Duration("took", rep.Took),
	)
	return rep, nil
}
