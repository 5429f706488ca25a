package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"aqua-waifu-bot/internal/config"
	"aqua-waifu-bot/internal/pkg/retry"
)

// WebhookAPI is the part of *tele.Bot used to manage the webhook.
type WebhookAPI interface {
	SetWebhook(w *tele.Webhook) error
	Webhook() (*tele.Webhook, error)
}

// WebhookURL joins the public base URL and the webhook route.
func WebhookURL(base, path string) string {
	if path == "" {
		path = "/webhook"
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// registeredURL returns the URL held by w, whether it was built locally
// (Endpoint) or read back from getWebhookInfo (Listen).
func registeredURL(w *tele.Webhook) string {
	if w == nil {
		return ""
	}
	if w.Endpoint != nil && w.Endpoint.PublicURL != "" {
		return w.Endpoint.PublicURL
	}
	return w.Listen
}

// SetupWebhook registers url and verifies it with getWebhookInfo. Failed
// attempts are retried after linearly growing delays of cfg.RetryStep.
func SetupWebhook(ctx context.Context, api WebhookAPI, url string, cfg config.WebhookConfig) error {
	attempt := 0
	op := func() error {
		attempt++
		log.Info().
			Str("url", url).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxRetries+1).
			Msg("Setting webhook")

		err := api.SetWebhook(&tele.Webhook{
			Endpoint:       &tele.WebhookEndpoint{PublicURL: url},
			MaxConnections: cfg.MaxConnections,
			AllowedUpdates: cfg.AllowedUpdates,
		})
		if err != nil {
			return fmt.Errorf("failed to set webhook: %w", err)
		}

		info, err := api.Webhook()
		if err != nil {
			return fmt.Errorf("failed to get webhook info: %w", err)
		}
		if got := registeredURL(info); got != url {
			return fmt.Errorf("webhook url mismatch: got %q, want %q", got, url)
		}

		log.Info().
			Str("url", url).
			Int("pending_updates", info.PendingUpdates).
			Msg("Webhook successfully configured")
		return nil
	}

	return retry.Do(ctx, cfg.RetryStep, cfg.MaxRetries, op, func(err error, wait time.Duration) {
		log.Warn().Err(err).Dur("retry_in", wait).Msg("Webhook setup failed, retrying")
	})
}
