package runner

import (
	"time"

	"github.com/robfig/cron/v3"

	"pushbrief/internal/config"
	logx "pushbrief/pkg/logx"
)

// cronParser accepts standard 5-field crontab expressions plus descriptors
// like "@daily". Schedules are evaluated in UTC.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Select returns the schedules to run at now, in declaration order.
//
// With an explicit scheduleID the single matching schedule is returned
// regardless of its cron expression (override path for manual runs); an
// unknown id is an error.
//
// In cron mode, now is truncated to the whole minute and each cron schedule
// is asked for its next fire time strictly after nowTrunc-1m. The schedule is
// due iff that next fire time (minute-truncated) lands exactly on nowTrunc.
// The one-minute look-back makes the check insensitive to where within the
// minute the caller was triggered. Schedules without a cron field are never
// auto-selected, and a cron expression that fails to parse is logged and
// skipped rather than aborting the batch.
func (r *Runner) Select(cfg *config.Config, now time.Time, scheduleID string) ([]config.Schedule, error) {
	if scheduleID != "" {
		sch, err := config.FindSchedule(cfg, scheduleID)
		if err != nil {
			return nil, err
		}
		return []config.Schedule{sch}, nil
	}

	nowTrunc := now.UTC().Truncate(time.Minute)
	base := nowTrunc.Add(-time.Minute)

	var due []config.Schedule
	for _, sch := range cfg.Schedules {
		if sch.Cron == "" {
			continue
		}
		spec, err := cronParser.Parse(sch.Cron)
		if err != nil {
			r.log.Warn("cron parse failed, skipping schedule",
				logx.String("schedule", sch.ID),
				logx.String("cron", sch.Cron),
				logx.Err(err))
			continue
		}
		next := spec.Next(base).Truncate(time.Minute)
		if next.Equal(nowTrunc) {
			due = append(due, sch)
		}
	}
	return due, nil
}
