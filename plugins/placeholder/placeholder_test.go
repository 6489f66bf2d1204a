package placeholder

import (
	"context"
	"testing"

	"pushbrief/internal/push"
)

func TestRun(t *testing.T) {
	t.Parallel()
	msgs, err := New().Run(context.Background(), push.Context{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("msgs = %d, want 1", len(msgs))
	}
	m := msgs[0]
	if m.Title != "Test" || m.Format != push.FormatText {
		t.Fatalf("msg = %+v", m)
	}
	if m.TargetRecipient != "" {
		t.Fatal("placeholder must not pre-address messages")
	}
}
