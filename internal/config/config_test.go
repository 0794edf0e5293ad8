package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ALERT_CHAT_ID", "-100500")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("RENDER_DATA_DIR", "/data")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, int64(-100500), cfg.AlertChatID)
	require.Equal(t, filepath.Join("/data", "messages.db"), cfg.StoreLocation)
	require.Equal(t, 4, cfg.FollowupThreshold)
	require.Equal(t, 30*time.Second, cfg.FollowupNudgeDelay)
	require.Equal(t, 180*time.Second, cfg.FollowupPersuadeDelay)
	require.Equal(t, 72*time.Hour, cfg.FollowupContactDelay)
	require.Equal(t, DefaultNudgeText, cfg.FollowupNudgeText)
	require.Equal(t, []string{"отправь данные", "отправить данные"}, cfg.ExportCommands)
	require.Equal(t, "gpt-4o", cfg.OpenAIModel)
	require.False(t, cfg.EmailEnabled())
}

func TestLoad_LegacyNames(t *testing.T) {
	t.Setenv("API_TOKEN", "legacy")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ALERT_CHAT_ID", "1")
	t.Setenv("EMAIL_FROM", "bot@example.com")
	t.Setenv("EMAIL_TO", "manager@example.com")
	t.Setenv("YANDEX_APP_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "legacy", cfg.BotToken)
	require.Equal(t, "secret", cfg.SMTPPassword)
	require.True(t, cfg.EmailEnabled())
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("BOT_TOKEN", "x")
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")
	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestLoad_PartialEmail(t *testing.T) {
	setRequired(t)
	t.Setenv("EMAIL_FROM", "bot@example.com")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "must be set together")
}

func TestLoad_NegativeDelay(t *testing.T) {
	setRequired(t)
	t.Setenv("FOLLOWUP_NUDGE_DELAY", "-1s")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "FOLLOWUP_NUDGE_DELAY")
}

func TestLoadStore_IgnoresBotSettings(t *testing.T) {
	t.Setenv("STORE_LOCATION", "/var/lib/leadbot/messages.db")

	cfg, err := LoadStore()
	require.NoError(t, err)
	require.Equal(t, "/var/lib/leadbot/messages.db", cfg.StoreLocation)
}

func TestSystemPrompt(t *testing.T) {
	cfg := &Config{}
	p, err := cfg.SystemPrompt()
	require.NoError(t, err)
	require.Equal(t, DefaultSystemPrompt, p)

	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("  custom prompt\n"), 0o644))
	cfg.SystemPromptFile = path
	p, err = cfg.SystemPrompt()
	require.NoError(t, err)
	require.Equal(t, "custom prompt", p)

	cfg.SystemPromptFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err = cfg.SystemPrompt()
	require.Error(t, err)
}
