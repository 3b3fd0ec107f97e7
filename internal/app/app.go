// Package app wires configuration to the check pipeline. It runs a single
// check on demand or serves scheduled checks until stopped.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"pubcheck/internal/check"
	"pubcheck/internal/clients/awsclient"
	"pubcheck/internal/config"
	"pubcheck/internal/notifier"
	"pubcheck/internal/probe"
	"pubcheck/internal/storage"
	logx "pubcheck/pkg/logx"
	"pubcheck/pkg/systemd"
)

// SystemNotifier reports daemon state to a service manager.
type SystemNotifier interface {
	Ready() (bool, error)
	Reloading() (bool, error)
	Stopping() (bool, error)
	Status(s string) (bool, error)
	Watchdog() (bool, error)
}

// Deps replace collaborators that are otherwise built from config. Nil
// fields are built.
type Deps struct {
	Objects check.ObjectLister
	Logs    check.LogReader
	Prober  check.Prober
	Mailer  check.Mailer
	Store   storage.Store
	System  SystemNotifier
}

type App struct {
	cfgm *config.Manager

	log      logx.Logger
	logs     *logx.Service
	logLevel string

	store  storage.Store
	deps   Deps
	now    func() time.Time
	stdout io.Writer

	// runMu keeps checks from overlapping.
	runMu sync.Mutex
}

type Option func(*App)

func WithDeps(d Deps) Option { return func(a *App) { a.deps = d } }

// WithLogger uses log instead of a logging service built from config.
func WithLogger(log logx.Logger) Option { return func(a *App) { a.log = log } }

// WithLogLevel overrides logging.level.
func WithLogLevel(level string) Option { return func(a *App) { a.logLevel = level } }

func WithClock(now func() time.Time) Option {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// WithStdout sets where dry-run messages are printed.
func WithStdout(w io.Writer) Option {
	return func(a *App) {
		if w != nil {
			a.stdout = w
		}
	}
}

// New loads and validates the configuration at cfgPath, overlaid with the
// environment from lookup, and opens the run audit store when configured.
func New(cfgPath string, lookup config.LookupFunc, opts ...Option) (*App, error) {
	a := &App{now: time.Now, stdout: os.Stdout}
	for _, opt := range opts {
		opt(a)
	}

	a.cfgm = config.NewManager(cfgPath, lookup)
	cfg, err := a.cfgm.Load()
	if err != nil {
		return nil, err
	}

	if a.log.IsZero() {
		a.logs, a.log = logx.NewService(mapLogConfig(cfg, a.logLevel))
	}
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))

	switch {
	case a.deps.Store != nil:
		a.store = a.deps.Store
	default:
		sc, enabled, err := mapStorageConfig(cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		if enabled {
			st, err := storage.Open(sc, a.log.With(logx.String("comp", "storage")))
			if err != nil {
				a.Close()
				return nil, err
			}
			a.store = st
			a.log.Info("storage enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
		}
	}
	if a.deps.System == nil {
		a.deps.System = systemd.Notifier{}
	}
	return a, nil
}

// Config returns the configuration currently in effect.
func (a *App) Config() *config.Config { return a.cfgm.Get() }

func (a *App) Logger() logx.Logger { return a.log }

// Close releases the audit store and log sinks.
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Close())
	}
	return errors.Join(errs...)
}

// collaborators builds what one check needs from cfg. AWS clients are built
// lazily so a run with every collaborator injected never loads credentials.
func (a *App) collaborators(ctx context.Context, cfg *config.Config, timeout time.Duration, dryRun bool) (check.Deps, error) {
	d := check.Deps{
		Objects: a.deps.Objects,
		Logs:    a.deps.Logs,
		Prober:  a.deps.Prober,
		Mailer:  a.deps.Mailer,
	}

	if d.Objects == nil || d.Logs == nil {
		awsCfg, err := awsclient.Load(ctx, cfg.AWSClientConfig())
		if err != nil {
			return check.Deps{}, err
		}
		if d.Objects == nil {
			d.Objects = awsclient.NewS3(awsCfg, cfg.AWS.Endpoint)
		}
		if d.Logs == nil {
			d.Logs = awsclient.NewCloudWatchLogs(awsCfg, cfg.AWS.Endpoint)
		}
	}
	if d.Prober == nil {
		d.Prober = probe.New(probe.WithTimeout(timeout))
	}

	switch {
	case dryRun:
		ncfg, err := cfg.NotifierConfig()
		if err != nil {
			return check.Deps{}, err
		}
		ncfg.Driver = notifier.DriverStdout
		ncfg.Output = a.stdout
		m, err := notifier.New(ctx, ncfg, a.log.With(logx.String("comp", "notifier")))
		if err != nil {
			return check.Deps{}, err
		}
		d.Mailer = m
	case d.Mailer == nil:
		ncfg, err := cfg.NotifierConfig()
		if err != nil {
			return check.Deps{}, err
		}
		m, err := notifier.New(ctx, ncfg, a.log.With(logx.String("comp", "notifier")))
		if err != nil {
			return check.Deps{}, err
		}
		d.Mailer = m
	}
	return d, nil
}
