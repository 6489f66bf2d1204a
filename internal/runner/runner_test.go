package runner

import (
	"context"
	"errors"
	"testing"

	"pushbrief/internal/channel"
	"pushbrief/internal/config"
	"pushbrief/internal/plugin"
	"pushbrief/internal/push"
	logx "pushbrief/pkg/logx"
)

type fakePlugin struct {
	id    string
	msgs  []push.Message
	err   error
	boom  bool
	calls int
}

func (f *fakePlugin) ID() string { return f.id }

func (f *fakePlugin) Run(_ context.Context, _ push.Context) ([]push.Message, error) {
	f.calls++
	if f.boom {
		panic("plugin exploded")
	}
	return f.msgs, f.err
}

type recordingChannel struct {
	sent []push.Message
	cfgs []map[string]any
	err  error
}

func (c *recordingChannel) Send(_ context.Context, msg push.Message, cfg map[string]any) error {
	c.sent = append(c.sent, msg)
	c.cfgs = append(c.cfgs, cfg)
	return c.err
}

func testHarness(t *testing.T, plugins ...plugin.Plugin) (*Runner, *recordingChannel) {
	t.Helper()
	preg := plugin.NewRegistry()
	preg.Register(plugins...)
	ch := &recordingChannel{}
	creg := channel.NewRegistry()
	creg.Register("pushplus", ch)
	return New(logx.Nop(), preg, creg), ch
}

func runnerCfg(jobs []config.Job) *config.Config {
	return &config.Config{
		Recipients: map[string]config.Recipient{
			"alice": {Channel: map[string]any{"token": "alice-token"}},
			"bob":   {Channel: map[string]any{"token": "bob-token"}},
		},
		Schedules:     []config.Schedule{{ID: "s1", Jobs: jobs}},
		PluginConfigs: map[string]map[string]any{"empty": {}},
	}
}

func TestRunStampsJobRecipient(t *testing.T) {
	t.Parallel()
	p := &fakePlugin{id: "brief", msgs: []push.Message{{Title: "hi", Body: "body"}}}
	r, ch := testHarness(t, p)
	cfg := runnerCfg([]config.Job{{RecipientID: "alice", PluginID: "brief", ConfigRef: "empty"}})

	if err := r.Run(context.Background(), cfg, Options{ScheduleID: "s1"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ch.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(ch.sent))
	}
	if got := ch.sent[0].TargetRecipient; got != "alice" {
		t.Fatalf("TargetRecipient = %q, want alice", got)
	}
	if got := ch.cfgs[0]["token"]; got != "alice-token" {
		t.Fatalf("channel cfg token = %v, want alice-token", got)
	}
}

func TestRunPresetTargetWins(t *testing.T) {
	t.Parallel()
	p := &fakePlugin{id: "brief", msgs: []push.Message{{Title: "hi", TargetRecipient: "bob"}}}
	r, ch := testHarness(t, p)
	cfg := runnerCfg([]config.Job{{RecipientID: "alice", PluginID: "brief", ConfigRef: "empty"}})

	if err := r.Run(context.Background(), cfg, Options{ScheduleID: "s1"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ch.sent) != 1 || ch.sent[0].TargetRecipient != "bob" {
		t.Fatalf("sent = %+v, want one message targeted at bob", ch.sent)
	}
	if got := ch.cfgs[0]["token"]; got != "bob-token" {
		t.Fatalf("channel cfg token = %v, want bob-token", got)
	}
}

func TestRunUnknownTargetDropsMessage(t *testing.T) {
	t.Parallel()
	p := &fakePlugin{id: "brief", msgs: []push.Message{
		{Title: "lost", TargetRecipient: "ghost"},
		{Title: "kept"},
	}}
	r, ch := testHarness(t, p)
	cfg := runnerCfg([]config.Job{{RecipientID: "alice", PluginID: "brief", ConfigRef: "empty"}})

	if err := r.Run(context.Background(), cfg, Options{ScheduleID: "s1"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ch.sent) != 1 || ch.sent[0].Title != "kept" {
		t.Fatalf("sent = %+v, want only the addressable message", ch.sent)
	}
}

func TestRunFaultIsolation(t *testing.T) {
	t.Parallel()
	bad := &fakePlugin{id: "bad", err: errors.New("upstream down")}
	boom := &fakePlugin{id: "boom", boom: true}
	good := &fakePlugin{id: "good", msgs: []push.Message{{Title: "ok"}}}
	r, ch := testHarness(t, bad, boom, good)
	cfg := runnerCfg([]config.Job{
		{RecipientID: "alice", PluginID: "bad", ConfigRef: "empty"},
		{RecipientID: "alice", PluginID: "boom", ConfigRef: "empty"},
		{RecipientID: "alice", PluginID: "good", ConfigRef: "empty"},
	})

	if err := r.Run(context.Background(), cfg, Options{ScheduleID: "s1"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if bad.calls != 1 || boom.calls != 1 || good.calls != 1 {
		t.Fatalf("calls = %d/%d/%d, want 1/1/1", bad.calls, boom.calls, good.calls)
	}
	if len(ch.sent) != 1 || ch.sent[0].Title != "ok" {
		t.Fatalf("sent = %+v, want only the good plugin's message", ch.sent)
	}
}

func TestRunDryRunDeliversNothing(t *testing.T) {
	t.Parallel()
	p := &fakePlugin{id: "brief", msgs: []push.Message{{Title: "hi"}}}
	r, ch := testHarness(t, p)
	cfg := runnerCfg([]config.Job{{RecipientID: "alice", PluginID: "brief", ConfigRef: "empty"}})

	if err := r.Run(context.Background(), cfg, Options{ScheduleID: "s1", DryRun: true}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("plugin calls = %d, want 1", p.calls)
	}
	if len(ch.sent) != 0 {
		t.Fatalf("sent = %+v, want none in dry-run", ch.sent)
	}
}

func TestRunSendFailureIsAbsorbed(t *testing.T) {
	t.Parallel()
	p := &fakePlugin{id: "brief", msgs: []push.Message{{Title: "hi"}}}
	preg := plugin.NewRegistry()
	preg.Register(p)
	ch := &recordingChannel{err: errors.New("429 too many requests")}
	creg := channel.NewRegistry()
	creg.Register("pushplus", ch)
	r := New(logx.Nop(), preg, creg)
	cfg := runnerCfg([]config.Job{{RecipientID: "alice", PluginID: "brief", ConfigRef: "empty"}})

	if err := r.Run(context.Background(), cfg, Options{ScheduleID: "s1"}); err != nil {
		t.Fatalf("Run should absorb send failures, got %v", err)
	}
	if len(ch.sent) != 1 {
		t.Fatalf("sent = %d, want 1 attempt", len(ch.sent))
	}
}

func TestRunInvalidConfigIsFatal(t *testing.T) {
	t.Parallel()
	p := &fakePlugin{id: "brief"}
	r, _ := testHarness(t, p)
	cfg := runnerCfg([]config.Job{{RecipientID: "ghost", PluginID: "brief", ConfigRef: "empty"}})

	if err := r.Run(context.Background(), cfg, Options{}); err == nil {
		t.Fatal("expected validation error")
	}
	if p.calls != 0 {
		t.Fatalf("plugin ran %d times despite invalid config", p.calls)
	}
}

func TestPreviewCapsAndCollapses(t *testing.T) {
	t.Parallel()
	long := "line1\nline2\n"
	for len(long) < 400 {
		long += "x"
	}
	got := preview(long)
	if len(got) != previewLimit {
		t.Fatalf("len = %d, want %d", len(got), previewLimit)
	}
	for _, r := range got {
		if r == '\n' {
			t.Fatal("preview should collapse newlines")
		}
	}
}
