package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/leadbot/internal/config"
	"github.com/set-night/leadbot/internal/domain"
	"github.com/set-night/leadbot/internal/handler"
	"github.com/set-night/leadbot/internal/middleware"
	"github.com/set-night/leadbot/internal/notify"
	"github.com/set-night/leadbot/internal/repository"
	"github.com/set-night/leadbot/internal/service"
	"github.com/set-night/leadbot/internal/telegram"
)

func main() {
	// Setup structured logging
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		slog.Warn("unknown log level, using info", "level", cfg.LogLevel)
	}

	systemPrompt, err := cfg.SystemPrompt()
	if err != nil {
		slog.Error("failed to load system prompt", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open transcript store, migrations included
	openCtx, cancelOpen := context.WithTimeout(ctx, config.StoreOpenTimeout)
	store, err := repository.Open(openCtx, cfg.StoreLocation)
	cancelOpen()
	if err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			slog.Error("transcript store unavailable", "location", cfg.StoreLocation, "error", err)
		} else {
			slog.Error("failed to open transcript store", "error", err)
		}
		os.Exit(1)
	}
	defer store.Close()

	// Create bot
	var h *handler.Handler
	opts := []bot.Option{
		// Updates are dispatched in arrival order; the handler hands each one
		// to its chat's worker queue without blocking.
		bot.WithNotAsyncHandlers(),
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.ParticipantLoader(),
			middleware.RateLimit(middleware.NewLimiter(cfg.RateLimitPerMinute, config.RateLimitWindow)),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h != nil {
				h.HandleMessage(ctx, b, update)
			}
		}),
	}
	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Notification sinks
	router := service.NewNotifierRouter()
	router.Register(domain.ChannelAlert, telegram.NewAlertSink(b, cfg.AlertChatID))
	router.Register(domain.ChannelUser, telegram.NewUserSink(b))
	if cfg.EmailEnabled() {
		emailSink, err := notify.NewEmailSink(notify.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.EmailFrom,
			To:       cfg.EmailTo,
			Password: cfg.SMTPPassword,
			Timeout:  config.NotifyTimeout,
		})
		if err != nil {
			slog.Error("failed to create email sink", "error", err)
			os.Exit(1)
		}
		router.Register(domain.ChannelEmail, emailSink)
	} else {
		slog.Warn("email not configured, manager e-mails disabled")
	}

	// Initialize services
	completion := service.NewCompletionClient(cfg.OpenAIKey,
		service.WithBaseURL(cfg.OpenAIBaseURL),
		service.WithModel(cfg.OpenAIModel),
		service.WithMaxTokens(cfg.OpenAIMaxTokens),
		service.WithTemperature(cfg.OpenAITemperature),
	)
	scheduler := service.NewFollowupScheduler(router, map[domain.FollowupKind]string{
		domain.FollowupNudge:          cfg.FollowupNudgeText,
		domain.FollowupPersuade:       cfg.FollowupPersuadeText,
		domain.FollowupContactRequest: cfg.FollowupContactText,
	}, config.NotifyTimeout)

	convCfg := service.DefaultConversationConfig()
	convCfg.ExportCommands = cfg.ExportCommands
	convCfg.RestoreHistory = cfg.RestoreHistory
	convCfg.CompletionTimeout = cfg.OpenAITimeout
	convCfg.Followups = service.FollowupPolicy{
		Threshold:     cfg.FollowupThreshold,
		NudgeDelay:    cfg.FollowupNudgeDelay,
		PersuadeDelay: cfg.FollowupPersuadeDelay,
		ContactDelay:  cfg.FollowupContactDelay,
	}

	conversation := service.NewConversationService(service.ConversationDeps{
		Store:     store,
		Sessions:  service.NewSessionStore(systemPrompt, convCfg.Greeting, cfg.HistoryMaxTurns),
		Scheduler: scheduler,
		Provider:  completion,
		Notifier:  router,
		Config:    convCfg,
		Logger:    logger,
	})
	defer conversation.Shutdown()

	// Initialize handler
	h = handler.New(handler.Deps{
		Bot:          b,
		Conversation: conversation,
		ReplyDelay:   cfg.ReplyDelay,
	})
	h.Register()

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	// Start bot
	slog.Info("starting bot", "store", cfg.StoreLocation, "email", cfg.EmailEnabled())
	b.Start(ctx)
	h.Close()

	// Graceful shutdown
	slog.Info("bot stopped gracefully")
}
