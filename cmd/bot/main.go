// Package main is the entry point for the Aqua Waifu bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"aqua-waifu-bot/internal/bot"
	"aqua-waifu-bot/internal/command"
	"aqua-waifu-bot/internal/config"
	"aqua-waifu-bot/internal/handler"
	"aqua-waifu-bot/internal/pkg/db"
	"aqua-waifu-bot/internal/pkg/lock"
	"aqua-waifu-bot/internal/repository"
	"aqua-waifu-bot/internal/repository/memory"
	"aqua-waifu-bot/internal/repository/mongorepo"
	"aqua-waifu-bot/internal/repository/pgrepo"
	"aqua-waifu-bot/internal/server"
	"aqua-waifu-bot/internal/service"
)

func main() {
	started := time.Now()

	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.DefaultContextLogger = &log.Logger

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	configureLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("app_env", cfg.App.Env).
		Bool("use_webhook", cfg.Bot.UseWebhook()).
		Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	// Initialize services
	accounts := service.NewAccountService(store, nil)
	daily, err := service.NewDailyService(store, cfg.Daily, nil, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create daily service")
	}

	// Initialize bot
	telegramBot, err := bot.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}
	log.Info().Str("username", telegramBot.Username()).Msg("Bot authorized")

	h := handler.New(accounts, daily, lock.NewUserLock(), handler.Config{
		BotUsername: telegramBot.Username(),
		OwnerID:     cfg.Bot.OwnerID,
		FounderID:   cfg.Bot.FounderID,
		SupportURL:  cfg.Bot.SupportURL,
		GroupURL:    cfg.Bot.GroupURL,
	})
	commands, callbacks := command.NewTable(), command.NewTable()
	if err := h.Register(commands, callbacks); err != nil {
		log.Fatal().Err(err).Msg("Failed to register commands")
	}
	guard := command.AccessGuard{Bans: command.NoBans{}, ChatAllowed: cfg.IsChatAllowed}
	telegramBot.Route(command.NewDispatcher(commands, callbacks, guard, telegramBot.Username()))

	log.Info().Strs("commands", commands.Names()).Msg("Commands registered")

	// HTTP server for the webhook and health checks
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(&server.Dependencies{
		Config:  cfg,
		Store:   store,
		Updates: telegramBot,
		Webhook: telegramBot,
		Started: started,
	})
	httpServer, err := server.New(router, cfg.Server.Port, cfg.Server.ShutdownTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start web server")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httpServer.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Msg("Bot is starting...")
		return telegramBot.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Shutdown with error")
	}
	log.Info().Msg("Bot stopped gracefully")
}

// configureLogger applies the level and output format from config.
func configureLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		zerolog.DefaultContextLogger = &log.Logger
	}
}

// openStore connects the backend selected by the URI scheme.
func openStore(ctx context.Context, cfg *config.DatabaseConfig) (*repository.Store, error) {
	backend, err := db.BackendFor(cfg.URI)
	if err != nil {
		return nil, err
	}

	switch backend {
	case db.BackendMongo:
		m, err := db.NewMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store, err := mongorepo.New(ctx, m)
		if err != nil {
			_ = m.Close(context.Background())
			return nil, err
		}
		return store, nil
	case db.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store, err := pgrepo.New(ctx, pool)
		if err != nil {
			_ = pool.Close(context.Background())
			return nil, err
		}
		return store, nil
	case db.BackendMemory:
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		return memory.New().Store(), nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", backend)
	}
}
