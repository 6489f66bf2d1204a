package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	logx "pushbrief/pkg/logx"
)

const watchTestConfig = `
recipients:
  alice:
    channel:
      token: abc
schedules:
  - id: daily
    cron: "30 0 * * *"
    jobs:
      - recipient_id: alice
        plugin_id: placeholder
        config_ref: empty
plugin_configs:
  empty: {}
`

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestManagerLoadAndValidate(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, watchTestConfig)

	m := NewManager(path, logx.Nop())
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Get() != cfg {
		t.Fatal("Get should return the loaded config")
	}

	m2 := NewManager(path, logx.Nop())
	m2.SetValidator(func(*Config) error { return errors.New("nope") })
	if _, err := m2.Load(); err == nil {
		t.Fatal("Load should surface validator rejection")
	}
}

func TestManagerReloadKeepsOldOnBrokenFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, watchTestConfig)

	m := NewManager(path, logx.Nop())
	old, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	writeConfig(t, path, "recipients: [not a mapping")
	m.reload()
	if m.Get() != old {
		t.Fatal("broken file must not replace the active config")
	}

	writeConfig(t, path, watchTestConfig+"global_config:\n  version: 2\n")
	m.reload()
	if m.Get() == old {
		t.Fatal("valid changed file should be committed")
	}
}

func TestManagerReloadKeepsOldOnRejectedConfig(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, watchTestConfig)

	m := NewManager(path, logx.Nop())
	rejectAll := false
	m.SetValidator(func(*Config) error {
		if rejectAll {
			return errors.New("plugin gone")
		}
		return nil
	})
	old, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	rejectAll = true
	writeConfig(t, path, watchTestConfig+"global_config:\n  changed: true\n")
	m.reload()
	if m.Get() != old {
		t.Fatal("rejected config must not replace the active config")
	}
}

func TestManagerReloadSkipsUnchangedContent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, watchTestConfig)

	m := NewManager(path, logx.Nop())
	old, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	reloads := 0
	m.SetOnReload(func(*Config) { reloads++ })

	// Same bytes rewritten: hash matches, no republish.
	writeConfig(t, path, watchTestConfig)
	m.reload()
	if reloads != 0 {
		t.Fatalf("reloads = %d, want 0 for unchanged content", reloads)
	}
	if m.Get() != old {
		t.Fatal("unchanged content must keep the same config instance")
	}
}
