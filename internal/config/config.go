package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken      string `env:"BOT_TOKEN"`
	LegacyToken   string `env:"API_TOKEN"`
	OpenAIKey     string `env:"OPENAI_API_KEY,required"`
	AlertChatID   int64  `env:"ALERT_CHAT_ID,required"`
	StoreLocation string `env:"STORE_LOCATION"`
	DataDir       string `env:"RENDER_DATA_DIR" envDefault:"/tmp"`

	// Completion provider
	OpenAIBaseURL     string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel       string        `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	OpenAIMaxTokens   int           `env:"OPENAI_MAX_TOKENS" envDefault:"500"`
	OpenAITemperature float64       `env:"OPENAI_TEMPERATURE" envDefault:"0.9"`
	OpenAITimeout     time.Duration `env:"OPENAI_TIMEOUT" envDefault:"60s"`
	SystemPromptFile  string        `env:"SYSTEM_PROMPT_FILE"`

	// E-mail: all of From, To and Password, or none
	EmailFrom    string `env:"EMAIL_FROM"`
	EmailTo      string `env:"EMAIL_TO"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	YandexPass   string `env:"YANDEX_APP_PASSWORD"`
	SMTPHost     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"465"`

	// Follow-ups
	FollowupThreshold     int           `env:"FOLLOWUP_THRESHOLD" envDefault:"4"`
	FollowupNudgeDelay    time.Duration `env:"FOLLOWUP_NUDGE_DELAY" envDefault:"30s"`
	FollowupPersuadeDelay time.Duration `env:"FOLLOWUP_PERSUADE_DELAY" envDefault:"180s"`
	FollowupContactDelay  time.Duration `env:"FOLLOWUP_CONTACT_DELAY" envDefault:"72h"`
	FollowupNudgeText     string        `env:"FOLLOWUP_NUDGE_TEXT"`
	FollowupPersuadeText  string        `env:"FOLLOWUP_PERSUADE_TEXT"`
	FollowupContactText   string        `env:"FOLLOWUP_CONTACT_TEXT"`

	// Conversation
	HistoryMaxTurns    int           `env:"HISTORY_MAX_TURNS" envDefault:"0"`
	RestoreHistory     bool          `env:"RESTORE_HISTORY" envDefault:"true"`
	ReplyDelay         time.Duration `env:"REPLY_DELAY" envDefault:"3s"`
	ExportCommands     []string      `env:"EXPORT_COMMANDS" envSeparator:"," envDefault:"отправь данные,отправить данные"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`

	// Bot behavior
	DropPendingUpdates bool   `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyFallbacks()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStore reads only what the transcript tooling needs.
func LoadStore() (*Config, error) {
	cfg := &Config{}
	// Required tags belong to the bot; the CLI only reads the store location.
	if err := env.Parse(cfg); err != nil && !isOnlyMissingRequired(err) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyFallbacks()
	return cfg, nil
}

func isOnlyMissingRequired(err error) bool {
	var agg env.AggregateError
	if !errors.As(err, &agg) {
		return false
	}
	for _, e := range agg.Errors {
		var missing env.VarIsNotSetError
		if !errors.As(e, &missing) {
			return false
		}
	}
	return true
}

func (c *Config) applyFallbacks() {
	if c.BotToken == "" {
		c.BotToken = c.LegacyToken
	}
	if c.SMTPPassword == "" {
		c.SMTPPassword = c.YandexPass
	}
	if strings.TrimSpace(c.StoreLocation) == "" {
		c.StoreLocation = filepath.Join(c.DataDir, "messages.db")
	}
	if c.FollowupNudgeText == "" {
		c.FollowupNudgeText = DefaultNudgeText
	}
	if c.FollowupPersuadeText == "" {
		c.FollowupPersuadeText = DefaultPersuadeText
	}
	if c.FollowupContactText == "" {
		c.FollowupContactText = DefaultContactText
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN (or API_TOKEN) is required"))
	}
	set := 0
	for _, v := range []string{c.EmailFrom, c.EmailTo, c.SMTPPassword} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		errs = append(errs, errors.New("EMAIL_FROM, EMAIL_TO and SMTP_PASSWORD must be set together"))
	}
	for name, d := range map[string]time.Duration{
		"FOLLOWUP_NUDGE_DELAY":    c.FollowupNudgeDelay,
		"FOLLOWUP_PERSUADE_DELAY": c.FollowupPersuadeDelay,
		"FOLLOWUP_CONTACT_DELAY":  c.FollowupContactDelay,
		"REPLY_DELAY":             c.ReplyDelay,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if c.HistoryMaxTurns < 0 {
		errs = append(errs, errors.New("HISTORY_MAX_TURNS must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) EmailEnabled() bool {
	return c.EmailFrom != "" && c.EmailTo != "" && c.SMTPPassword != ""
}

// SystemPrompt returns the prompt from SYSTEM_PROMPT_FILE, or the built-in one.
func (c *Config) SystemPrompt() (string, error) {
	if c.SystemPromptFile == "" {
		return DefaultSystemPrompt, nil
	}
	b, err := os.ReadFile(c.SystemPromptFile)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
