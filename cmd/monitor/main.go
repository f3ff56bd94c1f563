package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"elderly_care_monitor/internal/app"
	"elderly_care_monitor/internal/domain/llm"
	"elderly_care_monitor/internal/domain/mail"
	domainTelegram "elderly_care_monitor/internal/domain/telegram"
	"elderly_care_monitor/internal/infra/config"
	idb "elderly_care_monitor/internal/infra/database"
	illm "elderly_care_monitor/internal/infra/llm"
	"elderly_care_monitor/internal/infra/logger"
	imail "elderly_care_monitor/internal/infra/mail"
	"elderly_care_monitor/internal/infra/scheduler"
	"elderly_care_monitor/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Could not load application configuration: %v", err)
	}

	log := logger.New(cfg)
	mainLogger := logger.Component(log, "main")
	mainLogger.WithFields(logrus.Fields{
		"environment":     cfg.Environment,
		"due_window":      cfg.ReminderDueWindow,
		"timezone":        cfg.Location.String(),
		"bot_enabled":     cfg.BotEnabled(),
		"email_enabled":   cfg.EmailEnabled(),
		"llm_enabled":     cfg.LLMEnabled,
		"caregiver_tg_id": cfg.CaregiverTelegramID,
	}).Info("Elderly care monitor starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Database Connection
	retry := idb.RetryPolicy{MaxAttempts: cfg.DBConnectAttempts, Delay: cfg.DBConnectDelay}
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL, retry)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.EnsureSchema(ctx, db); err != nil {
		mainLogger.WithError(err).Fatal("Could not prepare database schema")
	}
	mainLogger.Info("Database connection established and schema ready.")

	// Initialize Repositories
	userRepo := idb.NewPostgresUserRepository(db)
	reminderRepo := idb.NewPostgresReminderRepository(db)
	vitalsRepo := idb.NewPostgresVitalsRepository(db)
	safetyRepo := idb.NewPostgresSafetyRepository(db)

	// Optional outbound channels; a nil interface disables the channel.
	var mailClient mail.Client
	if cfg.EmailEnabled() {
		sesClient, err := imail.NewSESClient(ctx, cfg.SESRegion, cfg.SESFromEmail, logger.Component(log, "ses"))
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create SES client")
		}
		mailClient = sesClient
	} else {
		mainLogger.Warn("SES_FROM_EMAIL is not set, reminder emails are disabled")
	}

	var llmClient llm.Client
	if cfg.LLMEnabled {
		llmClient = illm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger.Component(log, "llm"))
	}

	var bot *telebot.Bot
	var chatClient domainTelegram.Client
	if cfg.BotEnabled() {
		botLogger := logger.Component(log, "telebot")
		pref := telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				entry := botLogger.WithError(err)
				if c != nil && c.Sender() != nil && c.Chat() != nil {
					entry = entry.WithFields(logrus.Fields{"text": c.Text(), "sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
				}
				entry.Error("Telegram handler error")
			},
		}
		bot, err = telebot.NewBot(pref)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		chatClient = telegram.NewTelebotAdapter(bot)
	} else {
		mainLogger.Warn("TELEGRAM_TOKEN is not set, running scheduler-only without caregiver chat")
	}

	// Initialize Services
	reminderService := app.NewReminderService(reminderRepo, mailClient, chatClient, app.ReminderSettings{
		DueWindow:       cfg.ReminderDueWindow,
		CaregiverChatID: cfg.CaregiverTelegramID,
		Retry:           retry,
		Location:        cfg.Location,
	}, logger.Component(log, "reminders"))
	monitoringService := app.NewMonitoringService(vitalsRepo, safetyRepo, userRepo, chatClient, cfg.CaregiverTelegramID, logger.Component(log, "monitoring"))
	userService := app.NewUserService(userRepo)
	summaryService := app.NewSummaryService(vitalsRepo, safetyRepo, llmClient, chatClient, cfg.CaregiverTelegramID, logger.Component(log, "summary"))

	// Initialize MonitorScheduler
	monitorScheduler := scheduler.NewMonitorScheduler(
		reminderService,
		summaryService,
		cfg.Location,
		logger.Component(log, "scheduler"),
		cfg.CronSpecReminders,
		cfg.CronSpecDigest,
	)
	if err := monitorScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start scheduler")
	}

	if bot != nil {
		caregiverBot := telegram.NewCaregiverBot(ctx, userService, reminderService, monitoringService, summaryService, logger.Component(log, "bot"))
		caregiverBot.Register(bot, cfg.CaregiverTelegramID)

		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go bot.Start()
	}
	mainLogger.Info("Application setup complete. Scheduler is running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit // Block until a signal is received

	mainLogger.WithField("signal", sig.String()).Info("Shutting down application...")
	if bot != nil {
		bot.Stop()
	}
	monitorScheduler.Stop()
	cancel()
	mainLogger.Info("Application shut down gracefully.")
}
