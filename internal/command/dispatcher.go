package command

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BanChecker reports whether a user is banned.
type BanChecker interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
}

// NoBans never bans anyone.
type NoBans struct{}

func (NoBans) IsBanned(context.Context, int64) (bool, error) { return false, nil }

// Guard decides whether a matched handler may run. A non-empty reason
// explains a refusal.
type Guard interface {
	Allow(ctx context.Context, msg *Message) (bool, string)
}

// AccessGuard combines the ban check with a chat whitelist.
type AccessGuard struct {
	Bans        BanChecker
	ChatAllowed func(chatID int64) bool
}

// Allow implements Guard. Ban lookup failures do not block users.
func (g AccessGuard) Allow(ctx context.Context, msg *Message) (bool, string) {
	if g.ChatAllowed != nil && !g.ChatAllowed(msg.ChatID) {
		return false, "chat not whitelisted"
	}
	if g.Bans != nil {
		banned, err := g.Bans.IsBanned(ctx, msg.UserID)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("user_id", msg.UserID).Msg("Ban check failed, allowing")
		} else if banned {
			return false, "banned"
		}
	}
	return true, ""
}

// Dispatcher routes messages through the command and callback tables.
type Dispatcher struct {
	commands    *Table
	callbacks   *Table
	guard       Guard
	botUsername string
}

// NewDispatcher creates a dispatcher. callbacks and guard may be nil.
func NewDispatcher(commands, callbacks *Table, guard Guard, botUsername string) *Dispatcher {
	if callbacks == nil {
		callbacks = NewTable()
	}
	return &Dispatcher{
		commands:    commands,
		callbacks:   callbacks,
		guard:       guard,
		botUsername: botUsername,
	}
}

// Dispatch resolves a text message and runs the matching command handler.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) Outcome {
	name, payload, ok := Resolve(msg.Text, d.botUsername)
	if !ok {
		return d.unmatched(ctx, msg, "not a command")
	}
	h, ok := d.commands.Get(name)
	if !ok {
		return d.unmatched(ctx, msg, "unknown command")
	}
	msg.Command = name
	msg.Payload = payload
	return d.run(ctx, "command", name, h, msg)
}

// DispatchCallback runs the handler registered for msg.Data.
func (d *Dispatcher) DispatchCallback(ctx context.Context, msg *Message) Outcome {
	h, ok := d.callbacks.Get(msg.Data)
	if !ok {
		return d.unmatched(ctx, msg, "unknown callback")
	}
	return d.run(ctx, "callback", msg.Data, h, msg)
}

func (d *Dispatcher) run(ctx context.Context, kind, name string, h Handler, msg *Message) Outcome {
	start := time.Now()

	var out Outcome
	if d.guard != nil {
		if allowed, reason := d.guard.Allow(ctx, msg); !allowed {
			out = Ignored(reason)
		}
	}
	if out.Status == "" {
		out = h(ctx, msg)
	}
	if out.Status == "" {
		out.Status = StatusOK
	}

	logOutcome(ctx, kind, name, msg, out, time.Since(start))
	return out
}

func (d *Dispatcher) unmatched(ctx context.Context, msg *Message, reason string) Outcome {
	out := Outcome{Status: StatusUnmatched, Reason: reason}
	log.Ctx(ctx).Debug().
		Int64("chat_id", msg.ChatID).
		Int64("user_id", msg.UserID).
		Str("status", string(out.Status)).
		Str("reason", reason).
		Msg("Update not handled")
	return out
}

// logOutcome writes one line per handled update with the logger carried
// by ctx, so transport fields such as the trace id are included.
func logOutcome(ctx context.Context, kind, name string, msg *Message, out Outcome, took time.Duration) {
	logger := log.Ctx(ctx)
	var event *zerolog.Event
	if out.Status == StatusFailed {
		event = logger.Error().Err(out.Err)
	} else {
		event = logger.Info()
	}
	event.
		Str(kind, name).
		Int64("chat_id", msg.ChatID).
		Int64("user_id", msg.UserID).
		Str("status", string(out.Status)).
		Str("reason", out.Reason).
		Dur("duration", took).
		Msg("Handled " + kind)
}
