package handler

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/rs/zerolog/log"

	"aqua-waifu-bot/internal/command"
	"aqua-waifu-bot/internal/repository"
)

const welcomeText = `👋 ʜɪ, ᴍʏ ɴᴀᴍᴇ ɪs 𝗔𝗤𝗨𝗔 𝗪𝗔𝗜𝗙𝗨 𝗕𝗢𝗧, ᴀɴ ᴀɴɪᴍᴇ-ʙᴀsᴇᴅ ɢᴀᴍᴇs ʙᴏᴛ! ᴀᴅᴅ ᴍᴇ ᴛᴏ ʏᴏᴜʀ ɢʀᴏᴜᴘ ᴀɴᴅ ᴛʜᴇ ᴇxᴘᴇʀɪᴇɴᴄᴇ ɢᴇᴛs ᴇxᴘᴀɴᴅᴇᴅ. ʟᴇᴛ's ɪɴɪᴛɪᴀᴛᴇ ᴏᴜʀ ᴊᴏᴜʀɴᴇʏ ᴛᴏɢᴇᴛʜᴇʀ!

sᴜᴘᴘᴏʀᴛ              ᴏғғɪᴄɪᴀʟ ɢʀᴏᴜᴘ

ᴏᴡɴᴇʀ                 ғᴏᴜɴᴅᴇʀ

OWNER - %d
FOUNDER - %d`

// Start registers the user and sends the welcome menu.
func (h *Handler) Start(ctx context.Context, msg *command.Message) command.Outcome {
	if _, _, err := h.accounts.EnsureUser(ctx, msg.UserID, msg.Username, msg.FirstName); err != nil {
		return command.Failed(err, text("❌ Registration failed. Please try /start again."))
	}

	reply := quoted(fmt.Sprintf(welcomeText, h.cfg.OwnerID, h.cfg.FounderID))
	reply.Keyboard = [][]command.Button{
		{
			{Text: "SUPPORT", URL: h.cfg.SupportURL},
			{Text: "HELP", Data: CallbackHelp},
		},
		{{Text: "ADD ME BABY 💖", URL: fmt.Sprintf("https://t.me/%s?startgroup=true", h.cfg.BotUsername)}},
		{
			{Text: "OFFICIAL GC", URL: h.cfg.GroupURL},
			{Text: "CREDITS", Data: CallbackCredits},
		},
	}
	return command.OK(reply)
}

// Balance shows berries, waifu count and streaks. Unknown users are
// registered on the spot and told to use /start.
func (h *Handler) Balance(ctx context.Context, msg *command.Message) command.Outcome {
	bal, err := h.accounts.GetBalance(ctx, msg.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		if _, _, err := h.accounts.EnsureUser(ctx, msg.UserID, msg.Username, msg.FirstName); err != nil {
			log.Ctx(ctx).Error().Err(err).Int64("user_id", msg.UserID).Msg("Lazy registration failed")
		}
		return command.Rejected("not registered", text("❌ User not found. Please use /start first."))
	}
	if err != nil {
		return command.Failed(err, text("❌ Error retrieving balance. Please try again."))
	}

	return command.OK(quoted(fmt.Sprintf(
		"💰 <b>Your Balance</b>\n\n"+
			"👤 <b>User:</b> %s\n"+
			"💸 <b>Berries:</b> %s\n"+
			"👰 <b>Waifus:</b> %d\n"+
			"🔥 <b>Daily Streak:</b> %d\n"+
			"📅 <b>Weekly Streak:</b> %d",
		html.EscapeString(bal.FirstName),
		h.berries(bal.Berries),
		bal.Waifus,
		bal.DailyStreak,
		bal.WeeklyStreak,
	)))
}
