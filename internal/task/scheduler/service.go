package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "pubcheck/pkg/logx"
)

// Job is what a trigger runs.
type Job func(ctx context.Context)

// Service fires one job on one cron schedule. A trigger that arrives while
// the previous run is still going is skipped.
type Service struct {
	mu sync.Mutex

	log  logx.Logger
	spec string
	loc  *time.Location
	job  Job

	c       *cron.Cron
	entry   cron.EntryID
	baseCtx context.Context
	cancel  context.CancelFunc
}

func New(log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{log: log, loc: time.Local}
}

// Set installs the schedule. When the service is running the cron is rebuilt
// in place; an in-flight run is not interrupted.
func (s *Service) Set(raw string, loc *time.Location, job Job) error {
	if job == nil {
		return errors.New("scheduler: job is required")
	}
	spec, err := NormalizeSpec(raw)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	changed := spec != s.spec || loc.String() != s.loc.String()
	s.spec, s.loc, s.job = spec, loc, job
	if s.c != nil && changed {
		s.restartLocked()
	}
	return nil
}

// Start begins triggering. Jobs receive a context derived from ctx that is
// cancelled by Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}
	if s.job == nil {
		return errors.New("scheduler: nothing scheduled")
	}
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.startLocked()
	return nil
}

func (s *Service) startLocked() {
	s.c = cron.New(
		cron.WithParser(parser),
		cron.WithLocation(s.loc),
		cron.WithChain(cron.Recover(cronLogger{s.log}), cron.SkipIfStillRunning(cronLogger{s.log})),
	)
	job := s.job
	ctx := s.baseCtx
	// The spec was validated by Set.
	s.entry, _ = s.c.AddFunc(s.spec, func() { job(ctx) })
	s.c.Start()
	s.log.Info("schedule started",
		logx.String("spec", s.spec),
		logx.String("tz", s.loc.String()),
		logx.Time("next", s.c.Entry(s.entry).Next),
	)
}

func (s *Service) restartLocked() {
	<-s.c.Stop().Done()
	s.startLocked()
}

// Next returns the next trigger time, or zero when not running.
func (s *Service) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return time.Time{}
	}
	return s.c.Entry(s.entry).Next
}

// Stop stops triggering, cancels the job context and waits for a running
// job until ctx ends.
func (s *Service) Stop(ctx context.Context) {
	start := time.Now()
	s.mu.Lock()
	c, cancel := s.c, s.cancel
	s.c, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return
	}

	done := c.Stop().Done()
	if cancel != nil {
		cancel()
	}
	select {
	case <-done:
	case <-ctx.Done():
		s.log.Warn("stop timed out waiting for running check")
	}
	s.log.Info("schedule stopped", logx.Duration("took", time.Since(start)))
}

// cronLogger adapts logx to cron.Logger.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kv(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(kv(keysAndValues), logx.Err(err))...)
}

func kv(keysAndValues []any) []logx.Field {
	out := make([]logx.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1]))
	}
	return out
}
