// Package command maps bot commands and callback data to handlers and logs
// every handler outcome the same way.
package command

import (
	"context"
	"fmt"
)

// Message is the transport-independent view of an incoming update.
type Message struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Username  string
	FirstName string
	Text      string

	// Command and Payload are filled by the dispatcher for text commands.
	Command string
	Payload string

	// Data is the callback data for button presses.
	Data string
}

// Button is an inline keyboard button. Exactly one of URL and Data is set.
type Button struct {
	Text string
	URL  string
	Data string
}

// Reply is what a handler wants sent back to the chat.
type Reply struct {
	Text     string
	PhotoURL string // sent as a photo with Text as caption when set
	Keyboard [][]Button
	Quote    bool // reply to the triggering message
}

// Status classifies a handler outcome.
type Status string

const (
	StatusOK        Status = "ok"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
	StatusIgnored   Status = "ignored"
	StatusUnmatched Status = "unmatched"
)

// Outcome is the typed result of handling one message.
type Outcome struct {
	Status Status
	Reason string
	Err    error
	Reply  *Reply
}

// OK returns a successful outcome.
func OK(reply *Reply) Outcome {
	return Outcome{Status: StatusOK, Reply: reply}
}

// Rejected returns an outcome for a request refused by a business rule.
func Rejected(reason string, reply *Reply) Outcome {
	return Outcome{Status: StatusRejected, Reason: reason, Reply: reply}
}

// Failed returns an outcome for an infrastructure error.
func Failed(err error, reply *Reply) Outcome {
	return Outcome{Status: StatusFailed, Reason: "error", Err: err, Reply: reply}
}

// Ignored returns an outcome that sends nothing.
func Ignored(reason string) Outcome {
	return Outcome{Status: StatusIgnored, Reason: reason}
}

// Handler handles one command or callback.
type Handler func(ctx context.Context, msg *Message) Outcome

// Table is an explicit map from command name or callback data to handler.
type Table struct {
	handlers map[string]Handler
	order    []string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{handlers: make(map[string]Handler)}
}

// Register adds a handler. Names are case-sensitive and registered once.
func (t *Table) Register(name string, h Handler) error {
	if name == "" {
		return fmt.Errorf("command name cannot be empty")
	}
	if h == nil {
		return fmt.Errorf("cannot register nil handler for %q", name)
	}
	if _, ok := t.handlers[name]; ok {
		return fmt.Errorf("handler for %q already registered", name)
	}
	t.handlers[name] = h
	t.order = append(t.order, name)
	return nil
}

// Get retrieves a handler by name.
func (t *Table) Get(name string) (Handler, bool) {
	h, ok := t.handlers[name]
	return h, ok
}

// Names returns the registered names in registration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}
