package app

import (
	"context"
	"fmt"

	"pubcheck/internal/calendar"
	"pubcheck/internal/check"
	"pubcheck/internal/storage"
	"pubcheck/internal/task/scheduler"
	logx "pubcheck/pkg/logx"
)

// RunOptions tune a single check.
type RunOptions struct {
	// Force skips the run-hour gate.
	Force bool
	// Date replaces today's date (YYYY-MM-DD). Setting it implies Force.
	Date string
	// DryRun prints the message instead of sending it.
	DryRun bool
}

// Result describes what a call to Run did.
type Result struct {
	Skipped    bool
	SkipReason string
	Report     check.Report
}

// Run gates, checks and reports once. A failed check is not an error; the
// error is non-nil when the run could not be set up or the message could not
// be sent.
func (a *App) Run(ctx context.Context, opts RunOptions) (Result, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	cfg := a.cfgm.Get()
	now := a.now()
	loc, err := calendar.LoadLocation(cfg.Check.Timezone)
	if err != nil {
		return Result{}, err
	}

	gate := scheduler.Gate{Hours: cfg.Schedule.RunHours, Location: loc}
	if ok, reason := gate.Allow(now, opts.Force || opts.Date != ""); !ok {
		a.log.Info(reason, logx.Any("run_hours", cfg.Schedule.RunHours), logx.String("tz", loc.String()))
		return Result{Skipped: true, SkipReason: reason}, nil
	}

	rc, err := cfg.RunConfig(now, opts.Date)
	if err != nil {
		return Result{}, err
	}
	deps, err := a.collaborators(ctx, cfg, rc.CallTimeout, opts.DryRun)
	if err != nil {
		return Result{}, fmt.Errorf("build collaborators: %w", err)
	}
	c, err := check.New(rc, deps, a.log.With(logx.String("comp", "check")), check.WithClock(a.now))
	if err != nil {
		return Result{}, err
	}

	rep, sendErr := c.Run(ctx)
	if !opts.DryRun {
		a.audit(ctx, rc, rep, sendErr)
	}
	return Result{Report: rep}, sendErr
}

// audit appends the run to the store. Failures are logged and otherwise
// ignored: the audit never changes a run's result.
func (a *App) audit(ctx context.Context, rc check.RunConfig, rep check.Report, sendErr error) {
	if a.store == nil {
		return
	}
	rec := runRecord(rep, sendErr)
	if err := a.store.AppendRun(context.WithoutCancel(ctx), rec); err != nil {
		a.log.Warn("audit append failed", logx.String("run_id", rec.ID), logx.String("stage", rc.Stage), logx.Err(err))
	}
}

func runRecord(rep check.Report, sendErr error) storage.RunRecord {
	rec := storage.RunRecord{
		ID:        rep.RunID,
		Today:     rep.Today,
		Status:    storage.StatusSuccess,
		Subject:   rep.Message.Subject,
		MessageID: rep.MessageID,
		Articles:  rep.Outcome.Info.ArticleCount,
		Images:    rep.Outcome.Info.ImageCount,
		StartedAt: rep.StartedAt,
		TookMS:    rep.Took.Milliseconds(),
	}
	if f := rep.Outcome.Failure; f != nil {
		rec.Status = storage.StatusFailure
		rec.Stage = string(f.Stage)
		rec.Reason = f.Reason()
	}
	if sendErr != nil {
		rec.SendError = sendErr.Error()
	}
	return rec
}
