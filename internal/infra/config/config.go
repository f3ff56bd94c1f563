package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL       string
	DBConnectAttempts int
	DBConnectDelay    time.Duration

	ReminderDueWindow time.Duration
	CronSpecReminders string // How often pending reminders are scanned
	CronSpecDigest    string // Daily caregiver digest
	Location          *time.Location

	TelegramToken       string // Empty disables the caregiver bot
	CaregiverTelegramID int64

	SESRegion    string
	SESFromEmail string // Empty disables reminder emails

	LLMEnabled bool
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	LogLevel    string
	Environment string
}

// BotEnabled reports whether a Telegram token was supplied.
func (c *AppConfig) BotEnabled() bool { return c.TelegramToken != "" }

// EmailEnabled reports whether reminder emails can be sent.
func (c *AppConfig) EmailEnabled() bool { return c.SESFromEmail != "" }

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	if cfg.DBConnectAttempts, err = intEnv("DB_CONNECT_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.DBConnectAttempts < 1 {
		return nil, fmt.Errorf("DB_CONNECT_ATTEMPTS must be at least 1, got %d", cfg.DBConnectAttempts)
	}
	if cfg.DBConnectDelay, err = durationEnv("DB_CONNECT_DELAY", 2*time.Second); err != nil {
		return nil, err
	}

	windowSeconds, err := intEnv("REMINDER_DUE_WINDOW_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	if windowSeconds <= 0 {
		return nil, fmt.Errorf("REMINDER_DUE_WINDOW_SECONDS must be positive, got %d", windowSeconds)
	}
	cfg.ReminderDueWindow = time.Duration(windowSeconds) * time.Second

	cfg.CronSpecReminders = stringEnv("REMINDER_CHECK_CRON", "*/1 * * * *") // Default: every minute
	cfg.CronSpecDigest = stringEnv("DAILY_DIGEST_CRON", "0 20 * * *")        // Default: 8 PM daily

	tz := stringEnv("TIMEZONE", "Local")
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		caregiverIDStr := os.Getenv("CAREGIVER_TELEGRAM_ID")
		if caregiverIDStr == "" {
			return nil, fmt.Errorf("CAREGIVER_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
		}
		cfg.CaregiverTelegramID, err = strconv.ParseInt(caregiverIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid CAREGIVER_TELEGRAM_ID: %w", err)
		}
	}

	cfg.SESRegion = stringEnv("SES_REGION", "us-east-1")
	cfg.SESFromEmail = os.Getenv("SES_FROM_EMAIL")

	if cfg.LLMEnabled, err = boolEnv("LLM_ENABLED", false); err != nil {
		return nil, err
	}
	cfg.LLMBaseURL = stringEnv("LLM_BASE_URL", "http://localhost:11434/v1") // Ollama's OpenAI-compatible API
	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	cfg.LLMModel = stringEnv("LLM_MODEL", "mistral")

	cfg.LogLevel = strings.ToLower(stringEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(stringEnv("ENVIRONMENT", "development"))

	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func boolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
