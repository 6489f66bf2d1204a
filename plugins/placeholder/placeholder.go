// Package placeholder is a fixed-output plugin used to verify the runner and
// a channel end to end without touching any upstream API.
package placeholder

import (
	"context"

	"pushbrief/internal/push"
)

type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) ID() string { return "placeholder" }

func (p *Plugin) Run(_ context.Context, _ push.Context) ([]push.Message, error) {
	return []push.Message{{
		Title:  "Test",
		Body:   "Hello from pushbrief",
		Format: push.FormatText,
	}}, nil
}
