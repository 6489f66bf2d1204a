package config

import (
	"errors"
	"fmt"
	"os"

	yaml "go.yaml.in/yaml/v3"
)

// ErrScheduleNotFound is returned by FindSchedule for unknown schedule ids.
var ErrScheduleNotFound = errors.New("schedule id not found in config")

// Load reads and parses the YAML config at path.
// A missing file is surfaced as-is (wraps fs.ErrNotExist) so callers can
// treat it as a fatal startup error.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse decodes YAML config bytes.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config parse: %w", err)
	}
	return &cfg, nil
}

// FindSchedule returns the schedule with the given id. This is the override
// path for manual/forced runs; an unknown id is an error regardless of how
// the schedules are cron-configured.
func FindSchedule(cfg *Config, id string) (Schedule, error) {
	for _, sch := range cfg.Schedules {
		if sch.ID == id {
			return sch, nil
		}
	}
	return Schedule{}, fmt.Errorf("%w: %q", ErrScheduleNotFound, id)
}
