package bot

import (
	"context"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"aqua-waifu-bot/internal/command"
)

// Sender is the part of *tele.Bot used to send replies.
type Sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Delivery sends handler replies with HTML parse mode. A failed photo falls
// back to text, and a failed message with a keyboard is resent without it.
type Delivery struct {
	sender Sender
}

// NewDelivery creates a Delivery.
func NewDelivery(sender Sender) *Delivery {
	return &Delivery{sender: sender}
}

// Deliver sends r to chat. Errors are logged, not returned.
func (d *Delivery) Deliver(ctx context.Context, chat *tele.Chat, replyTo *tele.Message, r *command.Reply) {
	if r == nil {
		return
	}
	logger := log.Ctx(ctx)

	opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
	if r.Quote && replyTo != nil {
		opts.ReplyTo = replyTo
	}
	if len(r.Keyboard) > 0 {
		opts.ReplyMarkup = keyboard(r.Keyboard)
	}

	if r.PhotoURL != "" {
		photo := &tele.Photo{File: tele.FromURL(r.PhotoURL), Caption: r.Text}
		_, err := d.sender.Send(chat, photo, opts)
		if err == nil {
			return
		}
		logger.Warn().Err(err).Str("photo_url", r.PhotoURL).Msg("Failed to send photo, falling back to text")
	}

	_, err := d.sender.Send(chat, r.Text, opts)
	if err != nil && opts.ReplyMarkup != nil {
		logger.Warn().Err(err).Msg("Failed to send message with keyboard, retrying without it")
		plain := *opts
		plain.ReplyMarkup = nil
		_, err = d.sender.Send(chat, r.Text, &plain)
	}
	if err != nil {
		logger.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to send reply")
	}
}

func keyboard(rows [][]command.Button) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{InlineKeyboard: make([][]tele.InlineButton, 0, len(rows))}
	for _, row := range rows {
		buttons := make([]tele.InlineButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tele.InlineButton{Text: btn.Text, URL: btn.URL, Data: btn.Data})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
	}
	return markup
}
