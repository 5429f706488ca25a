package handler

import (
	"context"
	"errors"
	"fmt"
	"html"

	"aqua-waifu-bot/internal/command"
	"aqua-waifu-bot/internal/pkg/lock"
	"aqua-waifu-bot/internal/service"
)

// DailyWaifu runs the daily claim. Claims of the same user are serialized.
func (h *Handler) DailyWaifu(ctx context.Context, msg *command.Message) command.Outcome {
	var out command.Outcome
	err := h.locks.WithLockTimeout(ctx, msg.UserID, h.cfg.LockTimeout, func() error {
		out = h.claim(ctx, msg)
		return nil
	})
	if errors.Is(err, lock.ErrLockTimeout) {
		return command.Rejected("claim in progress", text("⏳ Your last claim is still being processed. Please wait."))
	}
	if err != nil {
		return command.Failed(err, text("❌ Error claiming daily waifu. Please try again."))
	}
	return out
}

func (h *Handler) claim(ctx context.Context, msg *command.Message) command.Outcome {
	res, err := h.daily.Claim(ctx, msg.UserID)

	var cooldown *service.CooldownError
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNotRegistered):
		return command.Rejected("not registered", text("❌ Please use /start first to register."))
	case errors.As(err, &cooldown):
		return command.Rejected("cooldown", text(fmt.Sprintf(
			"⏰ <b>Daily Waifu Already Claimed!</b>\n\n"+
				"You can claim again in: <b>%dh %dm</b>",
			cooldown.Hours(), cooldown.Minutes(),
		)))
	case errors.Is(err, service.ErrCatalogEmpty):
		return command.Rejected("catalog empty", text("❌ No waifus available. Please contact admin."))
	case errors.Is(err, service.ErrWaifuUnavailable):
		return command.Rejected("waifu unavailable", text("❌ Error getting waifu. Please try again."))
	default:
		return command.Failed(err, text("❌ Error claiming daily waifu. Please try again."))
	}

	w := res.Waifu
	var body string
	if res.Duplicate {
		body = fmt.Sprintf(
			"💝 <b>Duplicate Waifu!</b>\n\n"+
				"You already have <b>%s</b>!\n\n"+
				"💸 <b>Reward:</b> %d berries\n"+
				"💰 <b>New Balance:</b> %s",
			html.EscapeString(w.Name), res.Reward, h.berries(res.User.Berries),
		)
	} else {
		body = fmt.Sprintf(
			"🎉 <b>New Waifu Obtained!</b>\n\n"+
				"👰 <b>%s</b>\n"+
				"📊 <b>Rarity:</b> %s\n"+
				"🎭 <b>Anime:</b> %s\n\n"+
				"💸 <b>Bonus:</b> %d berries\n"+
				"💰 <b>New Balance:</b> %s",
			html.EscapeString(w.Name), html.EscapeString(w.Rarity), html.EscapeString(w.Anime),
			res.Reward, h.berries(res.User.Berries),
		)
	}

	reply := quoted(body)
	reply.PhotoURL = w.ImageURL
	return command.OK(reply)
}
