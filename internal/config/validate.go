package config

import "fmt"

// PluginResolver reports whether a plugin id is registered. Satisfied by
// *plugin.Registry; kept as a one-method interface so validation does not
// depend on the plugin package.
type PluginResolver interface {
	Has(id string) bool
}

// Validate structurally checks the config and fails on the first violation,
// in declaration order. It is a purely advisory gate: no side effects, and it
// runs eagerly before any schedule is evaluated so that a broken config
// aborts the whole run before any message is sent.
func Validate(cfg *Config, plugins PluginResolver) error {
	if cfg == nil {
		return fmt.Errorf("config: empty config")
	}
	if len(cfg.Recipients) == 0 {
		return fmt.Errorf("config: recipients is empty")
	}

	seen := make(map[string]struct{}, len(cfg.Schedules))
	for i, sch := range cfg.Schedules {
		if sch.ID == "" {
			return fmt.Errorf("config: schedules[%d] missing 'id'", i)
		}
		if _, dup := seen[sch.ID]; dup {
			return fmt.Errorf("config: duplicate schedule id %q", sch.ID)
		}
		seen[sch.ID] = struct{}{}

		for j, job := range sch.Jobs {
			if _, ok := cfg.Recipients[job.RecipientID]; !ok {
				return fmt.Errorf("config: schedules[%d].jobs[%d]: recipient_id %q not in recipients", i, j, job.RecipientID)
			}
			if job.PluginID == "" {
				return fmt.Errorf("config: schedules[%d].jobs[%d]: missing 'plugin_id'", i, j)
			}
			if plugins != nil && !plugins.Has(job.PluginID) {
				return fmt.Errorf("config: schedules[%d].jobs[%d]: plugin_id %q not in plugin registry", i, j, job.PluginID)
			}
			if job.ConfigRef == "" {
				return fmt.Errorf("config: schedules[%d].jobs[%d]: missing 'config_ref'", i, j)
			}
			if _, ok := cfg.PluginConfigs[job.ConfigRef]; !ok {
				return fmt.Errorf("config: schedules[%d].jobs[%d]: config_ref %q not in plugin_configs", i, j, job.ConfigRef)
			}
		}
	}
	return nil
}
