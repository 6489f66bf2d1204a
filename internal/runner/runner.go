// Package runner ties the system together: it validates the configuration,
// decides which schedules are due, executes each job's plugin, stamps
// recipients onto unaddressed messages and dispatches them through the
// configured channels. Failures are isolated per job so one broken upstream
// never blocks sibling jobs.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pushbrief/internal/channel"
	"pushbrief/internal/config"
	"pushbrief/internal/plugin"
	"pushbrief/internal/push"
	logx "pushbrief/pkg/logx"
)

const previewLimit = 200

// Options control one invocation of Run.
type Options struct {
	// ScheduleID forces a single named schedule regardless of cron timing.
	ScheduleID string
	// DryRun executes plugins but performs no channel delivery.
	DryRun bool
	// Now overrides the evaluation instant (UTC). Zero means time.Now().
	Now time.Time
	// Quiet demotes the "nothing due" notice to debug level. Serve mode
	// evaluates every minute and most ticks match nothing.
	Quiet bool
}

// Runner holds the injected collaborators for one process. It keeps no state
// across invocations of Run.
type Runner struct {
	log      logx.Logger
	plugins  *plugin.Registry
	channels *channel.Registry
}

func New(log logx.Logger, plugins *plugin.Registry, channels *channel.Registry) *Runner {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Runner{log: log, plugins: plugins, channels: channels}
}

// Run validates cfg, selects due schedules and dispatches their jobs
// sequentially. It returns an error only for fatal/startup conditions
// (invalid config, unknown explicit schedule id); per-job and per-message
// failures are logged and absorbed. "Nothing due" is a normal nil return.
func (r *Runner) Run(ctx context.Context, cfg *config.Config, opts Options) error {
	if err := config.Validate(cfg, r.plugins); err != nil {
		return err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	schedules, err := r.Select(cfg, now, opts.ScheduleID)
	if err != nil {
		return err
	}
	if len(schedules) == 0 {
		if opts.Quiet {
			r.log.Debug("no schedules due")
		} else {
			r.log.Info("no schedules due; use --schedule <id> to force one")
		}
		return nil
	}

	if opts.DryRun {
		r.log.Info("dry-run mode enabled: plugins will execute but nothing is delivered")
	}
	ids := make([]string, 0, len(schedules))
	for _, sch := range schedules {
		ids = append(ids, sch.ID)
	}
	r.log.Info("running schedules", logx.Int("count", len(schedules)), logx.Strings("ids", ids))

	for _, sch := range schedules {
		for _, job := range sch.Jobs {
			r.runJob(ctx, cfg, sch, job, now, opts.DryRun)
		}
	}
	return nil
}

// runJob executes one job end to end. It never returns an error: any plugin
// failure (including a panic) is logged with the schedule/recipient/plugin
// identifiers and the job is abandoned, leaving sibling jobs untouched.
func (r *Runner) runJob(ctx context.Context, cfg *config.Config, sch config.Schedule, job config.Job, now time.Time, dryRun bool) {
	log := r.log.With(
		logx.String("schedule", sch.ID),
		logx.String("recipient", job.RecipientID),
		logx.String("plugin", job.PluginID),
	)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("job panicked",
				logx.Any("panic", rec),
				logx.Stack(logx.StackTrace(3, 24)))
		}
	}()

	// Validation guarantees presence; default to an empty mapping anyway.
	pluginCfg := cfg.PluginConfigs[job.ConfigRef]
	if pluginCfg == nil {
		pluginCfg = map[string]any{}
	}

	p, err := r.plugins.Get(job.PluginID)
	if err != nil {
		log.Error("job failed", logx.Err(err))
		return
	}

	pc := push.Context{
		Now:          now,
		RecipientID:  job.RecipientID,
		PluginConfig: pluginCfg,
		GlobalConfig: cfg.GlobalConfig,
	}

	msgs, err := p.Run(ctx, pc)
	if err != nil {
		log.Error("job failed", logx.Err(err))
		return
	}

	for _, msg := range msgs {
		r.dispatch(ctx, log, cfg, job, msg, dryRun)
	}
}

// dispatch normalizes and delivers one message. Unresolvable targets drop
// only that message; send failures are logged and otherwise invisible.
func (r *Runner) dispatch(ctx context.Context, log logx.Logger, cfg *config.Config, job config.Job, msg push.Message, dryRun bool) {
	m := msg
	if m.TargetRecipient == "" {
		m = m.WithTarget(job.RecipientID)
	}

	rec, ok := cfg.Recipients[m.TargetRecipient]
	if !ok {
		log.Warn("message target recipient not configured, dropping message",
			logx.String("target", m.TargetRecipient))
		return
	}

	chType := rec.ChannelType()
	ch, err := r.channels.Get(chType)
	if err != nil {
		log.Error("cannot deliver message", logx.String("target", m.TargetRecipient), logx.Err(err))
		return
	}

	if dryRun {
		log.Info("dry-run: would send",
			logx.String("target", m.TargetRecipient),
			logx.String("channel", chType),
			logx.String("title", m.Title),
			logx.String("preview", preview(m.Body)))
		return
	}

	if err := ch.Send(ctx, m, rec.Channel); err != nil {
		log.Warn("channel send failed",
			logx.String("target", m.TargetRecipient),
			logx.String("channel", chType),
			logx.Err(err))
	}
}

// preview collapses newlines and caps the body for dry-run logging.
func preview(body string) string {
	s := strings.ReplaceAll(body, "\n", " ")
	if len(s) > previewLimit {
		s = s[:previewLimit]
	}
	return s
}

// Describe returns a short human-readable summary of what would run, used by
// serve-mode logging when a reload changes the schedule set.
func Describe(cfg *config.Config) string {
	parts := make([]string, 0, len(cfg.Schedules))
	for _, sch := range cfg.Schedules {
		if sch.Cron == "" {
			parts = append(parts, fmt.Sprintf("%s(manual,%d jobs)", sch.ID, len(sch.Jobs)))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s(%s,%d jobs)", sch.ID, sch.Cron, len(sch.Jobs)))
	}
	return strings.Join(parts, " ")
}
