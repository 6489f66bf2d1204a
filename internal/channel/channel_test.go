package channel

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"pushbrief/internal/push"
)

type nopChannel struct{}

func (nopChannel) Send(context.Context, push.Message, map[string]any) error { return nil }

func TestRegistry(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	r.Register("pushplus", nopChannel{})
	r.Register("telegram", nopChannel{})

	if _, err := r.Get("pushplus"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := r.Get("pigeon"); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("Get(pigeon) = %v, want ErrUnknownChannel", err)
	}
	if got := r.Types(); !reflect.DeepEqual(got, []string{"pushplus", "telegram"}) {
		t.Fatalf("Types = %v", got)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("PUSHBRIEF_EXPAND_A", "aaa")

	tests := []struct {
		in   string
		want string
	}{
		{"plain-token", "plain-token"},
		{"${PUSHBRIEF_EXPAND_A}", "aaa"},
		{"pre-${PUSHBRIEF_EXPAND_A}-post", "pre-aaa-post"},
		// Unset vars stay visible instead of collapsing to "".
		{"${PUSHBRIEF_EXPAND_UNSET}", "${PUSHBRIEF_EXPAND_UNSET}"},
		{"$NOT_A_PLACEHOLDER", "$NOT_A_PLACEHOLDER"},
	}
	for _, tt := range tests {
		if got := expandEnv(tt.in); got != tt.want {
			t.Errorf("expandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskToken(t *testing.T) {
	t.Parallel()
	if got := maskToken("abcdef123456"); got != "abcd***" {
		t.Fatalf("maskToken = %q", got)
	}
	if got := maskToken("ab"); got != "***" {
		t.Fatalf("maskToken short = %q", got)
	}
}
