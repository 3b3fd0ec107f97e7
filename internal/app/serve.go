package app

import (
	"context"
	"slices"
	"strings"
	"time"

	"pubcheck/internal/calendar"
	"pubcheck/internal/config"
	"pubcheck/internal/runtime/supervisor"
	"pubcheck/internal/task/scheduler"
	logx "pubcheck/pkg/logx"
	"pubcheck/pkg/systemd"
)

const stopTimeout = 30 * time.Second

// Serve triggers gated checks on the configured cron schedule until ctx ends.
// Config file changes are applied between checks.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.cfgm.Get()
	sched := scheduler.New(a.log.With(logx.String("comp", "scheduler")))
	if err := a.schedule(sched, cfg); err != nil {
		return err
	}

	sup := supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)
	if err := sched.Start(sup.Context()); err != nil {
		sup.Cancel()
		return err
	}

	updates := a.cfgm.Subscribe(8)
	sup.Go("config.watch", a.cfgm.Watch)
	sup.Go0("config.apply", func(c context.Context) {
		defer a.cfgm.Unsubscribe(updates)
		a.applyLoop(c, sched, cfg, updates)
	})
	if d := systemd.WatchdogInterval(); d > 0 {
		sup.Go0("systemd.watchdog", func(c context.Context) {
			t := time.NewTicker(d)
			defer t.Stop()
			for {
				select {
				case <-c.Done():
					return
				case <-t.C:
					a.notifySystem("watchdog", a.deps.System.Watchdog)
				}
			}
		})
	}

	a.notifySystem("ready", a.deps.System.Ready)
	a.status(sched)
	a.log.Info("serving", logx.String("cron", cfg.Schedule.Cron), logx.String("tz", cfg.Check.Timezone))

	<-sup.Context().Done()
	a.notifySystem("stopping", a.deps.System.Stopping)
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()
	sched.Stop(stopCtx)
	if err := sup.Stop(stopCtx); err != nil {
		return err
	}
	a.log.Info("stopped")
	return nil
}

// applyLoop makes published configs effective, coalescing bursts.
func (a *App) applyLoop(ctx context.Context, sched *scheduler.Service, lastApplied *config.Config, updates <-chan *config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-updates:
			if !ok {
				return
			}
			for drained := false; !drained; {
				select {
				case newer := <-updates:
					if newer != nil {
						newCfg = newer
					}
				default:
					drained = true
				}
			}
			a.notifySystem("reloading", a.deps.System.Reloading)
			if err := a.apply(sched, lastApplied, newCfg); err != nil {
				a.log.Warn("config not applied", logx.Err(err))
			} else {
				lastApplied = newCfg
			}
			a.notifySystem("ready", a.deps.System.Ready)
			a.status(sched)
		}
	}
}

func (a *App) schedule(sched *scheduler.Service, cfg *config.Config) error {
	loc, err := calendar.LoadLocation(cfg.Check.Timezone)
	if err != nil {
		return err
	}
	return sched.Set(cfg.Schedule.Cron, loc, a.scheduledRun)
}

// apply makes newCfg effective. Run reads the manager's current config, so
// only the logging sinks and the trigger need touching here.
func (a *App) apply(sched *scheduler.Service, oldCfg, newCfg *config.Config) error {
	sections, attrs := config.SummarizeChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return nil
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config change summary", fields...)

	if slices.Contains(sections, "storage") {
		a.log.Warn("storage config changed; restart required for changes to take effect")
	}
	if a.logs != nil && slices.Contains(sections, "logging") {
		a.logs.Apply(mapLogConfig(newCfg, a.logLevel))
	}
	if slices.Contains(sections, "schedule") || slices.Contains(sections, "check") {
		return a.schedule(sched, newCfg)
	}
	return nil
}

func (a *App) scheduledRun(ctx context.Context) {
	res, err := a.Run(ctx, RunOptions{})
	switch {
	case err != nil:
		a.log.Error("scheduled check failed", logx.Err(err))
	case res.Skipped:
		a.log.Debug("scheduled check skipped", logx.String("reason", res.SkipReason))
	}
}

func (a *App) status(sched *scheduler.Service) {
	next := sched.Next()
	if next.IsZero() {
		return
	}
	a.notifySystem("status", func() (bool, error) {
		return a.deps.System.Status("next check " + next.Format(time.RFC3339))
	})
}

func (a *App) notifySystem(state string, fn func() (bool, error)) {
	if _, err := fn(); err != nil {
		a.log.Debug("sd_notify failed", logx.String("state", state), logx.Err(err))
	}
}
