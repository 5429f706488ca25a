package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

const healthPingTimeout = 2 * time.Second

type handlers struct {
	deps *Dependencies
}

// webhook decodes one update and hands it to the bot.
func (h *handlers) webhook(c *gin.Context) {
	var u tele.Update
	if err := c.ShouldBindJSON(&u); err != nil {
		log.Error().Err(err).Msg("Webhook processing error")
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	if err := h.process(u); err != nil {
		log.Error().Err(err).Int("update_id", u.ID).Msg("Webhook processing error")
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}

	log.Debug().Int("update_id", u.ID).Msg("Webhook processed")
	c.String(http.StatusOK, http.StatusText(http.StatusOK))
}

func (h *handlers) process(u tele.Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("update handoff panic: %v", r)
		}
	}()
	h.deps.Updates.ProcessUpdate(u)
	return nil
}

func (h *handlers) health(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	now := h.deps.Now()

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()
	if err := h.deps.Store.Ping(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":    "error",
			"error":     fmt.Sprintf("database not connected: %v", err),
			"timestamp": now.UTC().Format(time.RFC3339Nano),
		})
		return
	}

	webhook := gin.H{"url": nil, "pending_updates": 0}
	if h.deps.Webhook != nil {
		info, err := h.deps.Webhook.WebhookInfo()
		if err != nil {
			log.Warn().Err(err).Msg("Webhook info error")
		} else if info != nil {
			if info.Listen != "" {
				webhook["url"] = info.Listen
			}
			webhook["pending_updates"] = info.PendingUpdates
		}
	}

	cfg := h.deps.Config
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"uptime":    now.Sub(h.deps.Started).Seconds(),
		"timestamp": now.UTC().Format(time.RFC3339Nano),
		"database":  "connected",
		"webhook":   webhook,
		"environment": gin.H{
			"app_env":     cfg.App.Env,
			"use_webhook": cfg.Bot.UseWebhook(),
			"webhook_url": setOrNot(cfg.Bot.WebhookURL),
			"bot_token":   setOrNot(cfg.Bot.Token),
		},
	})
}

func setOrNot(v string) string {
	if v == "" {
		return "not set"
	}
	return "set"
}

func (h *handlers) status(c *gin.Context) {
	now := h.deps.Now()
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.HTML(http.StatusOK, statusTemplate, gin.H{
		"LastChecked": now.Format(time.RFC1123),
		"Uptime":      int64(now.Sub(h.deps.Started).Seconds()),
	})
}
