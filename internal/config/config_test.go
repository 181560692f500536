package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every QUIZSTREAK_ variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		k, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, EnvPrefix) {
			t.Setenv(k, "")
		}
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quizstreak.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ModePoll, cfg.Telegram.Mode)
	assert.Equal(t, SourceNotion, cfg.Source.Kind)
	assert.Equal(t, "Medium", cfg.Source.Difficulty)
	assert.True(t, cfg.Source.RequireRecent)
	assert.Equal(t, 1, cfg.Source.Count)
	assert.Equal(t, "09:00", cfg.Schedule.Time)
	assert.Equal(t, 500*time.Millisecond, cfg.Delivery.MessageDelay)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  chat_id: 4242
  mode: Webhook
  webhook_secret: hook
  public_url: https://bot.example.com/
source:
  kind: file
  path: problems.yaml
  difficulty: Hard
  count: 3
schedule:
  time: "20:30"
  timezone: Asia/Singapore
delivery:
  message_delay: 2s
llm:
  provider: openai
  openai:
    api_key: sk-test
    model: gpt-4o
  timeout: 45s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(4242), cfg.Telegram.ChatID)
	assert.Equal(t, ModeWebhook, cfg.Telegram.Mode)
	assert.Equal(t, "https://bot.example.com", cfg.Telegram.PublicURL)
	assert.Equal(t, SourceFile, cfg.Source.Kind)
	assert.Equal(t, 3, cfg.Source.Count)
	assert.Equal(t, "Hard", cfg.Filter().Difficulty)
	assert.Equal(t, 2*time.Second, cfg.Delivery.MessageDelay)
	assert.Equal(t, 15*time.Second, cfg.Delivery.SendTimeout, "unset keys keep defaults")
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "claude-sonnet", cfg.LLM.Anthropic.Model)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Singapore", loc.String())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "telegram:\n  chat_id: 1\nsource:\n  count: 2\n")
	t.Setenv("QUIZSTREAK_TELEGRAM_CHAT_ID", "99")
	t.Setenv("QUIZSTREAK_QUESTION_COUNT", "5")
	t.Setenv("QUIZSTREAK_MESSAGE_DELAY", "1s")
	t.Setenv("QUIZSTREAK_SCHEDULE_ENABLED", "false")
	t.Setenv("QUIZSTREAK_ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(99), cfg.Telegram.ChatID)
	assert.Equal(t, 5, cfg.Source.Count)
	assert.Equal(t, time.Second, cfg.Delivery.MessageDelay)
	assert.False(t, cfg.Schedule.Enabled)
	assert.Equal(t, "sk-ant", cfg.LLM.Anthropic.APIKey)
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("QUIZSTREAK_TELEGRAM_CHAT_ID", "not-a-number")
	t.Setenv("QUIZSTREAK_SEND_TIMEOUT", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUIZSTREAK_TELEGRAM_CHAT_ID")
	assert.Contains(t, err.Error(), "QUIZSTREAK_SEND_TIMEOUT")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "telegram: [unclosed"))
	assert.Error(t, err)
}

func validBatch() Config {
	cfg := Default()
	cfg.Telegram.Token = "t"
	cfg.Telegram.ChatID = 1
	cfg.Source.NotionToken = "secret_x"
	cfg.Source.NotionDatabaseID = "db"
	cfg.LLM.Anthropic.APIKey = "k"
	return cfg
}

func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing token", func(c *Config) { c.Telegram.Token = "" }, "telegram.token"},
		{"missing chat", func(c *Config) { c.Telegram.ChatID = 0 }, "telegram.chat_id"},
		{"missing notion db", func(c *Config) { c.Source.NotionDatabaseID = "" }, "notion_database_id"},
		{"file without path", func(c *Config) { c.Source.Kind = SourceFile }, "source.path"},
		{"unknown source", func(c *Config) { c.Source.Kind = "csv" }, "unknown source kind"},
		{"missing llm key", func(c *Config) { c.LLM.Anthropic.APIKey = "" }, "QUIZSTREAK_ANTHROPIC_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBatch()
			tt.mutate(&cfg)
			err := cfg.ValidateBatch()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateServe(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"poll", func(*Config) {}, ""},
		{"webhook without secret", func(c *Config) { c.Telegram.Mode = ModeWebhook }, "webhook_secret"},
		{"webhook", func(c *Config) { c.Telegram.Mode = ModeWebhook; c.Telegram.WebhookSecret = "s" }, ""},
		{"bad mode", func(c *Config) { c.Telegram.Mode = "smoke-signals" }, "unknown telegram mode"},
		{"bad time", func(c *Config) { c.Schedule.Time = "9" }, "HH:MM"},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }, "timezone"},
		{"schedule off skips batch checks", func(c *Config) {
			c.Schedule.Enabled = false
			c.Source.NotionToken = ""
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBatch()
			tt.mutate(&cfg)
			err := cfg.ValidateServe()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateServe_ReportsEachProblemOnce(t *testing.T) {
	cfg := validBatch()
	cfg.Telegram.Token = ""

	err := cfg.ValidateServe()
	require.Error(t, err)
	assert.Equal(t, 1, strings.Count(err.Error(), "telegram.token"))
}
