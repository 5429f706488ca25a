// Package handler implements the bot commands on top of the services. Each
// handler returns a command.Outcome; delivery is left to the transport.
package handler

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"aqua-waifu-bot/internal/command"
	"aqua-waifu-bot/internal/pkg/lock"
	"aqua-waifu-bot/internal/service"
)

// Command names and callback data.
const (
	CmdStart        = "start"
	CmdBalance      = "bal"
	CmdDailyWaifu   = "dwaifu"
	CallbackHelp    = "menu_help"
	CallbackCredits = "menu_credits"
)

// Config holds the values the replies depend on.
type Config struct {
	BotUsername string
	OwnerID     int64
	FounderID   int64
	SupportURL  string
	GroupURL    string
	LockTimeout time.Duration
}

// Handler serves the bot commands.
type Handler struct {
	accounts *service.AccountService
	daily    *service.DailyService
	locks    *lock.UserLock
	cfg      Config
	printer  *message.Printer
}

// New creates a Handler.
func New(accounts *service.AccountService, daily *service.DailyService, locks *lock.UserLock, cfg Config) *Handler {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 10 * time.Second
	}
	return &Handler{
		accounts: accounts,
		daily:    daily,
		locks:    locks,
		cfg:      cfg,
		printer:  message.NewPrinter(language.English),
	}
}

// Register adds the commands and callbacks to the tables.
func (h *Handler) Register(commands, callbacks *command.Table) error {
	entries := []struct {
		table *command.Table
		name  string
		fn    command.Handler
	}{
		{commands, CmdStart, h.Start},
		{commands, CmdBalance, h.Balance},
		{commands, CmdDailyWaifu, h.DailyWaifu},
		{callbacks, CallbackHelp, h.MenuHelp},
		{callbacks, CallbackCredits, h.MenuCredits},
	}
	for _, e := range entries {
		if err := e.table.Register(e.name, e.fn); err != nil {
			return err
		}
	}
	return nil
}

// berries renders n with thousands separators.
func (h *Handler) berries(n int64) string {
	return h.printer.Sprintf("%d", n)
}

func text(s string) *command.Reply {
	return &command.Reply{Text: s}
}

// quoted replies to the triggering message.
func quoted(s string) *command.Reply {
	return &command.Reply{Text: s, Quote: true}
}
