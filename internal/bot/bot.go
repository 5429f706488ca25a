// Package bot adapts telebot to the command dispatcher: it turns updates
// into command messages, delivers the replies and sets up webhook or
// polling mode.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"aqua-waifu-bot/internal/command"
	"aqua-waifu-bot/internal/config"
)

// Bot wraps the telebot instance with the dispatcher.
type Bot struct {
	bot        *tele.Bot
	cfg        *config.Config
	dispatcher *command.Dispatcher
	delivery   *Delivery
}

// New creates the telebot client. It calls getMe, so the token must be valid.
// Handlers are attached later with Route, once the bot username is known.
func New(cfg *config.Config) (*Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	return newBot(cfg, tele.Settings{
		Token: cfg.Bot.Token,
		Poller: &tele.LongPoller{
			Timeout:        cfg.Polling.Timeout,
			AllowedUpdates: cfg.Webhook.AllowedUpdates,
		},
		OnError: onError,
	})
}

func newBot(cfg *config.Config, pref tele.Settings) (*Bot, error) {
	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:      teleBot,
		cfg:      cfg,
		delivery: NewDelivery(teleBot),
	}
	b.registerMiddleware()
	return b, nil
}

func onError(err error, c tele.Context) {
	event := log.Error().Err(err)
	if c != nil {
		if chat := c.Chat(); chat != nil {
			event = event.Int64("chat_id", chat.ID)
		}
	}
	event.Msg("Bot error")
}

// Username returns the bot's handle as reported by getMe.
func (b *Bot) Username() string {
	if b.bot.Me == nil {
		return ""
	}
	return b.bot.Me.Username
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
}

// Route sends all text messages and button presses through d.
func (b *Bot) Route(d *command.Dispatcher) {
	b.dispatcher = d
	b.bot.Handle(tele.OnText, b.handleText)
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handlerContext bounds a handler run and carries the logger of the update.
func (b *Bot) handlerContext(c tele.Context) (context.Context, context.CancelFunc) {
	ctx := context.Background()
	if traceID, ok := c.Get(traceIDKey).(string); ok {
		ctx = log.With().Str("trace_id", traceID).Logger().WithContext(ctx)
	} else {
		ctx = log.Logger.WithContext(ctx)
	}

	timeout := b.cfg.Bot.HandlerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (b *Bot) handleText(c tele.Context) error {
	m := c.Message()
	sender := c.Sender()
	if m == nil || sender == nil || m.Chat == nil {
		return nil
	}

	ctx, cancel := b.handlerContext(c)
	defer cancel()

	msg := &command.Message{
		ChatID:    m.Chat.ID,
		MessageID: m.ID,
		UserID:    sender.ID,
		Username:  sender.Username,
		FirstName: sender.FirstName,
		Text:      m.Text,
	}
	out := b.dispatcher.Dispatch(ctx, msg)
	b.delivery.Deliver(ctx, m.Chat, m, out.Reply)
	return nil
}

func (b *Bot) handleCallback(c tele.Context) error {
	cb := c.Callback()
	sender := c.Sender()
	if cb == nil || sender == nil {
		return nil
	}

	ctx, cancel := b.handlerContext(c)
	defer cancel()

	// Telebot v3 may add a \f prefix to callback data
	data := strings.TrimPrefix(cb.Data, "\f")

	msg := &command.Message{
		UserID:    sender.ID,
		Username:  sender.Username,
		FirstName: sender.FirstName,
		Data:      data,
	}
	if cb.Message != nil && cb.Message.Chat != nil {
		msg.ChatID = cb.Message.Chat.ID
		msg.MessageID = cb.Message.ID
	}

	out := b.dispatcher.DispatchCallback(ctx, msg)
	if err := c.Respond(); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("Failed to answer callback")
	}
	if cb.Message != nil && cb.Message.Chat != nil {
		b.delivery.Deliver(ctx, cb.Message.Chat, cb.Message, out.Reply)
	}
	return nil
}

// ProcessUpdate hands an update received by the webhook to telebot. In
// non-synchronous mode the handler runs in its own goroutine.
func (b *Bot) ProcessUpdate(u tele.Update) {
	b.bot.ProcessUpdate(u)
}

// Run configures the transport and blocks until ctx is done. With a webhook
// URL it registers the webhook and waits; updates then arrive through
// ProcessUpdate. Without one it removes any webhook and long-polls.
func (b *Bot) Run(ctx context.Context) error {
	if b.cfg.Bot.UseWebhook() {
		url := WebhookURL(b.cfg.Bot.WebhookURL, b.cfg.Webhook.Path)
		if err := SetupWebhook(ctx, b.bot, url, b.cfg.Webhook); err != nil {
			log.Error().Err(err).Msg("Webhook setup failed, staying in webhook mode without polling fallback")
		}
		<-ctx.Done()
		return nil
	}

	log.Info().Msg("No webhook URL configured, using polling mode")
	if err := b.bot.RemoveWebhook(); err != nil {
		log.Warn().Err(err).Msg("Failed to delete webhook before polling")
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Stopping bot...")
		b.bot.Stop()
	}()

	log.Info().Dur("timeout", b.cfg.Polling.Timeout).Msg("Polling started")
	b.bot.Start()
	return nil
}

// WebhookInfo returns the current webhook registration.
func (b *Bot) WebhookInfo() (*tele.Webhook, error) {
	return b.bot.Webhook()
}
