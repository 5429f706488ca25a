package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// clearEnv blanks every aliased variable so the host environment cannot leak
// into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, names := range envAliases {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, DefaultOwnerID, cfg.Bot.OwnerID)
	assert.Equal(t, DefaultFounderID, cfg.Bot.FounderID)
	assert.Empty(t, cfg.Database.Name)
	assert.False(t, cfg.Bot.UseWebhook())
	assert.Equal(t, int64(50), cfg.Daily.NewReward)
	assert.Equal(t, int64(25), cfg.Daily.DuplicateMin)
	assert.Equal(t, int64(75), cfg.Daily.DuplicateMax)
	assert.Equal(t, 3, cfg.Webhook.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Webhook.RetryStep)
	assert.Equal(t, 100, cfg.Webhook.MaxConnections)
	assert.Equal(t, []string{"message", "callback_query", "inline_query"}, cfg.Webhook.AllowedUpdates)
	assert.Equal(t, 10*time.Second, cfg.Polling.Timeout)
}

func TestLoad_TokenAliases(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"primary wins", map[string]string{"TELEGRAM_BOT_TOKEN": "a", "BOT_TOKEN": "b", "BOT_TOKEN_1": "c"}, "a"},
		{"empty primary skipped", map[string]string{"BOT_TOKEN": "b", "BOT_TOKEN_1": "c"}, "b"},
		{"last alternative", map[string]string{"BOT_TOKEN_1": "c"}, "c"},
		{"none set", map[string]string{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(t.TempDir())
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Bot.Token)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com")
	t.Setenv("PORT", "8081")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("DEVELOPER_ID", "42")
	t.Setenv("FOUNDER_ID", "43")
	t.Setenv("DATABASE_NAME", "aquabot")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.Bot.UseWebhook())
	assert.Equal(t, "https://bot.example.com", cfg.Bot.WebhookURL)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "mongodb://db:27017", cfg.Database.URI)
	assert.Equal(t, int64(42), cfg.Bot.OwnerID)
	assert.Equal(t, int64(43), cfg.Bot.FounderID)
	assert.Equal(t, "aquabot", cfg.Database.Name)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OwnerIDFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("OWNER_ID", "not-a-number")
	t.Setenv("FOUNDER_ID", "0")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultOwnerID, cfg.Bot.OwnerID)
	assert.Equal(t, DefaultFounderID, cfg.Bot.FounderID)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Bot:      BotConfig{Token: "t"},
		Database: DatabaseConfig{URI: "memory://"},
		Daily:    DailyConfig{DuplicateMin: 25, DuplicateMax: 75},
	}
	require.NoError(t, cfg.Validate())

	noToken := *cfg
	noToken.Bot.Token = ""
	assert.Error(t, noToken.Validate())

	badRange := *cfg
	badRange.Daily = DailyConfig{DuplicateMin: 80, DuplicateMax: 75}
	assert.Error(t, badRange.Validate())

	badZone := *cfg
	badZone.Daily.Timezone = "Mars/Olympus_Mons"
	assert.Error(t, badZone.Validate())
}

func TestDailyLocation(t *testing.T) {
	loc, err := (&DailyConfig{Timezone: "Local"}).Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = (&DailyConfig{Timezone: "UTC"}).Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

// TestWhitelistEnforcementProperty checks that an empty whitelist admits every
// chat and a non-empty one admits exactly its members.
func TestWhitelistEnforcementProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chats := rapid.SliceOfN(rapid.Int64Range(-1_000_000, 1_000_000), 0, 10).Draw(t, "chats")
		chatID := rapid.Int64Range(-1_000_000, 1_000_000).Draw(t, "chatID")

		cfg := &Config{Whitelist: WhitelistConfig{Chats: chats}}

		expected := len(chats) == 0
		for _, id := range chats {
			if id == chatID {
				expected = true
			}
		}

		if got := cfg.IsChatAllowed(chatID); got != expected {
			t.Fatalf("IsChatAllowed(%d) with %v = %v, want %v", chatID, chats, got, expected)
		}
	})
}
