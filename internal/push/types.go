// Package push defines the message and execution-context model shared by
// content plugins, notification channels and the runner.
package push

import "time"

// Format is the body format of a Message.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Message is the unit of delivery between a plugin and a channel.
//
// TargetRecipient is usually empty when a plugin produces the message; the
// runner stamps the job's recipient onto it before dispatch. A plugin may set
// it explicitly to redirect a message to a different configured recipient.
//
// Messages are value types: never mutate one in place, use WithTarget.
type Message struct {
	Title           string
	Body            string
	Format          Format
	TargetRecipient string // empty = unset, runner fills in
	Priority        string
	Tags            []string
}

// WithTarget returns a copy of m addressed to the given recipient.
func (m Message) WithTarget(recipientID string) Message {
	cp := m
	cp.TargetRecipient = recipientID
	return cp
}

// Context is the read-only execution context handed to a plugin for one job.
// It is built fresh per job invocation.
type Context struct {
	Now          time.Time // UTC
	RecipientID  string
	PluginConfig map[string]any
	GlobalConfig map[string]any
}
