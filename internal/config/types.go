// Package config loads and validates the pushbrief YAML configuration.
package config

// Config is the top-level configuration, loaded once per run.
//
// PluginConfigs holds free-form per-plugin blobs addressed by name
// (config_ref indirection lets several jobs share one blob); plugins strictly
// decode and validate their own slice at the start of a run.
type Config struct {
	Recipients    map[string]Recipient      `yaml:"recipients"`
	Schedules     []Schedule                `yaml:"schedules"`
	PluginConfigs map[string]map[string]any `yaml:"plugin_configs"`
	GlobalConfig  map[string]any            `yaml:"global_config"`
}

// Recipient describes one delivery target. Channel is the channel-specific
// config mapping; its "type" key selects the channel implementation
// (default "pushplus").
type Recipient struct {
	Channel map[string]any `yaml:"channel"`
}

// ChannelType returns the recipient's channel type, defaulting to "pushplus".
func (r Recipient) ChannelType() string {
	if t, ok := r.Channel["type"].(string); ok && t != "" {
		return t
	}
	return "pushplus"
}

// Schedule is a named group of jobs sharing one cron trigger. A schedule
// without a cron expression only runs via an explicit --schedule override.
type Schedule struct {
	ID   string `yaml:"id"`
	Cron string `yaml:"cron"`
	Jobs []Job  `yaml:"jobs"`
}

// Job binds one recipient to one plugin invocation with one named config blob.
type Job struct {
	RecipientID string `yaml:"recipient_id"`
	PluginID    string `yaml:"plugin_id"`
	ConfigRef   string `yaml:"config_ref"`
}
