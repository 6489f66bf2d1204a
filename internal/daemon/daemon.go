// Package daemon runs the long-lived serve mode: a minute-precision cron
// loop firing the runner against the hot-reloaded config, with systemd
// readiness notifications when running under a unit.
package daemon

import (
	"context"
	"time"

	sdnotify "github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"pushbrief/internal/config"
	"pushbrief/internal/runner"
	logx "pushbrief/pkg/logx"
)

type Daemon struct {
	log    logx.Logger
	run    *runner.Runner
	cfgMgr *config.Manager

	c *cron.Cron
}

func New(log logx.Logger, run *runner.Runner, cfgMgr *config.Manager) *Daemon {
	return &Daemon{log: log.With(logx.String("svc", "daemon")), run: run, cfgMgr: cfgMgr}
}

// Start launches the ticker and the config watcher, then blocks until ctx
// is cancelled. The tick fires once per wall-clock minute in UTC so that
// schedule matching lines up with minute-truncated cron semantics.
func (d *Daemon) Start(ctx context.Context) error {
	d.c = cron.New(cron.WithLocation(time.UTC))
	if _, err := d.c.AddFunc("* * * * *", func() { d.tick(ctx) }); err != nil {
		return err
	}

	go func() {
		if err := d.cfgMgr.Watch(ctx); err != nil {
			d.log.Warn("config watcher exited", logx.Err(err))
		}
	}()

	d.c.Start()
	if cfg := d.cfgMgr.Get(); cfg != nil {
		d.log.Info("serving", logx.String("config", runner.Describe(cfg)))
	}
	if sent, err := sdnotify.SdNotify(false, sdnotify.SdNotifyReady); err == nil && sent {
		d.log.Debug("systemd notified ready")
	}

	<-ctx.Done()
	return nil
}

// Stop halts the ticker and waits for any in-flight run to finish.
func (d *Daemon) Stop(ctx context.Context) error {
	_, _ = sdnotify.SdNotify(false, sdnotify.SdNotifyStopping)
	if d.c == nil {
		return nil
	}
	stopped := d.c.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (d *Daemon) tick(ctx context.Context) {
	cfg := d.cfgMgr.Get()
	if cfg == nil {
		d.log.Warn("tick skipped, no active config")
		return
	}
	if err := d.run.Run(ctx, cfg, runner.Options{Now: time.Now().UTC(), Quiet: true}); err != nil {
		d.log.Error("scheduled run failed", logx.Err(err))
	}
}
