// Package config provides configuration management using viper.
// It supports loading from YAML files, .env files and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Default ids listed in the welcome text when the variables are unset or not
// a number.
const (
	DefaultOwnerID   int64 = 6245574035
	DefaultFounderID int64 = 8195158525
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Bot       BotConfig       `mapstructure:"bot"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Polling   PollingConfig   `mapstructure:"polling"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Daily     DailyConfig     `mapstructure:"daily"`
	Log       LogConfig       `mapstructure:"log"`
}

// AppConfig holds deployment metadata reported by /health.
type AppConfig struct {
	Env string `mapstructure:"env"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token          string        `mapstructure:"token"`
	WebhookURL     string        `mapstructure:"webhook_url"`
	OwnerID        int64         `mapstructure:"-"`
	FounderID      int64         `mapstructure:"-"`
	SupportURL     string        `mapstructure:"support_url"`
	GroupURL       string        `mapstructure:"group_url"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds the storage connection configuration.
// The URI scheme selects the backend (mongodb, postgres or memory).
type DatabaseConfig struct {
	URI             string        `mapstructure:"uri"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	ConnectRetries  int           `mapstructure:"connect_retries"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// WebhookConfig holds webhook registration settings.
type WebhookConfig struct {
	Path           string        `mapstructure:"path"`
	MaxConnections int           `mapstructure:"max_connections"`
	AllowedUpdates []string      `mapstructure:"allowed_updates"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryStep      time.Duration `mapstructure:"retry_step"`
}

// PollingConfig holds long polling settings used when no webhook URL is set.
type PollingConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// DailyConfig holds daily claim reward configuration.
type DailyConfig struct {
	NewReward    int64  `mapstructure:"new_reward"`
	DuplicateMin int64  `mapstructure:"duplicate_min"`
	DuplicateMax int64  `mapstructure:"duplicate_max"`
	Timezone     string `mapstructure:"timezone"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// UseWebhook reports whether the bot should receive updates through the webhook.
func (b *BotConfig) UseWebhook() bool {
	return b.WebhookURL != ""
}

// Location resolves the reference timezone used for the daily reset.
func (d *DailyConfig) Location() (*time.Location, error) {
	if d.Timezone == "" || strings.EqualFold(d.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid daily timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory and loads a .env file
// from the working directory when present.
func Load(configPath string) (*Config, error) {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase
	// e.g., DATABASE_URI, SERVER_PORT, DAILY_TIMEZONE
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	applyEnvAliases(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Bot.OwnerID = parseID(v.GetString("bot.owner_id"), DefaultOwnerID)
	cfg.Bot.FounderID = parseID(v.GetString("bot.founder_id"), DefaultFounderID)

	return &cfg, nil
}

// envAliases lists the alternative variable names accepted for a key, in
// priority order.
var envAliases = map[string][]string{
	"bot.token":       {"TELEGRAM_BOT_TOKEN", "BOT_TOKEN", "BOT_TOKEN_1"},
	"bot.webhook_url": {"WEBHOOK_URL"},
	"bot.owner_id":    {"OWNER_ID", "DEVELOPER_ID"},
	"bot.founder_id":  {"FOUNDER_ID"},
	"database.uri":    {"MONGODB_URI", "DATABASE_URL", "DATABASE_URI"},
	"database.name":   {"DATABASE_NAME"},
	"server.port":     {"PORT", "SERVER_PORT"},
	"app.env":         {"APP_ENV", "GO_ENV"},
}

// applyEnvAliases overrides each aliased key with the first non-empty
// variable in its list.
func applyEnvAliases(v *viper.Viper) {
	for key, names := range envAliases {
		for _, name := range names {
			if val := strings.TrimSpace(os.Getenv(name)); val != "" {
				v.Set(key, val)
				break
			}
		}
	}
}

func parseID(raw string, fallback int64) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return fallback
	}
	return id
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")

	v.SetDefault("bot.support_url", "https://t.me/+jhEIZcNrvtcxZjc1")
	v.SetDefault("bot.group_url", "https://t.me/+jhEIZcNrvtcxZjc1")
	v.SetDefault("bot.handler_timeout", "30s")

	v.SetDefault("server.port", 5000)
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.uri", "mongodb://localhost:27017")
	// database.name stays empty so the Mongo URI path can name the database
	v.SetDefault("database.name", "")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.connect_retries", 3)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("webhook.path", "/webhook")
	v.SetDefault("webhook.max_connections", 100)
	v.SetDefault("webhook.allowed_updates", []string{"message", "callback_query", "inline_query"})
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.retry_step", "5s")

	v.SetDefault("polling.timeout", "10s")

	v.SetDefault("daily.new_reward", 50)
	v.SetDefault("daily.duplicate_min", 25)
	v.SetDefault("daily.duplicate_max", 75)
	v.SetDefault("daily.timezone", "Local")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks the settings the process cannot start without.
func (c *Config) Validate() error {
	if c.Bot.Token == "" {
		return fmt.Errorf("bot token is required (set TELEGRAM_BOT_TOKEN, BOT_TOKEN or BOT_TOKEN_1)")
	}
	if c.Database.URI == "" {
		return fmt.Errorf("database uri is required")
	}
	if c.Daily.DuplicateMin > c.Daily.DuplicateMax {
		return fmt.Errorf("daily.duplicate_min (%d) exceeds daily.duplicate_max (%d)", c.Daily.DuplicateMin, c.Daily.DuplicateMax)
	}
	if _, err := c.Daily.Location(); err != nil {
		return err
	}
	return nil
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
