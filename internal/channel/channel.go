// Package channel defines the notification-channel capability and its
// registry, plus the builtin pushplus and telegram transports.
package channel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"sync"

	"pushbrief/internal/push"
)

// DefaultType is used when a recipient's channel config omits "type".
const DefaultType = "pushplus"

// ErrUnknownChannel is returned by Registry.Get for unregistered types.
var ErrUnknownChannel = errors.New("unknown channel type")

// Channel delivers one message to one recipient.
//
// cfg is the recipient's channel-specific config mapping (credential, topic,
// chat id, ...); each implementation strictly decodes its own slice. A send
// error means "delivery failed or outcome unknown" — the runner logs it and
// moves on, it never fails the job.
type Channel interface {
	Send(ctx context.Context, msg push.Message, cfg map[string]any) error
}

// Registry maps channel types to implementations. Assembled once at startup.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

func NewRegistry() *Registry {
	return &Registry{channels: map[string]Channel{}}
}

// Register adds a channel under the given type. Duplicate or empty types are
// programming errors and panic (registration happens in main).
func (r *Registry) Register(typ string, ch Channel) {
	if typ == "" {
		panic("channel: registered channel with empty type")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.channels[typ]; dup {
		panic(fmt.Sprintf("channel: duplicate channel type %q", typ))
	}
	r.channels[typ] = ch
}

// Get resolves a channel by type.
func (r *Registry) Get(typ string) (Channel, error) {
	r.mu.RLock()
	ch, ok := r.channels[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, typ)
	}
	return ch, nil
}

// Types returns the registered channel types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.channels))
	for t := range r.channels {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Matches ${VAR_NAME} in credential strings.
var envPlaceholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${ENV_VAR} placeholders with environment values.
// Unset variables are left as-is so a missing secret is visible in logs
// instead of silently becoming an empty credential.
func expandEnv(raw string) string {
	return envPlaceholderRe.ReplaceAllStringFunc(raw, func(m string) string {
		key := m[2 : len(m)-1]
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return m
	})
}

// maskToken shortens a credential for logging.
func maskToken(token string) string {
	if len(token) > 4 {
		return token[:4] + "***"
	}
	return "***"
}
