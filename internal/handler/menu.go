package handler

import (
	"context"
	"fmt"

	"aqua-waifu-bot/internal/command"
)

// MenuHelp answers the HELP button.
func (h *Handler) MenuHelp(_ context.Context, _ *command.Message) command.Outcome {
	return command.OK(text(
		"📖 <b>Commands</b>\n\n" +
			"/start - register and open the menu\n" +
			"/bal - berries, waifus and streaks\n" +
			"/dwaifu - claim your daily waifu",
	))
}

// MenuCredits answers the CREDITS button.
func (h *Handler) MenuCredits(_ context.Context, _ *command.Message) command.Outcome {
	return command.OK(text(fmt.Sprintf(
		"💖 <b>Aqua Waifu Bot</b>\n\nOwner: <code>%d</code>\nFounder: <code>%d</code>",
		h.cfg.OwnerID, h.cfg.FounderID,
	)))
}
