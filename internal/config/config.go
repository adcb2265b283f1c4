package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	API struct {
		Port     string
		BasePath string
	}
	DB struct {
		DSN string
	}
	Kafka struct {
		Broker  string
		Topic   string
		GroupID string
	}
	Telegram struct {
		BotToken string
		ChatID   int64
	}
	Heartbeat struct {
		URL            string
		Trigger        string
		TimeoutSeconds int
	}
	Store struct {
		MaxAlerts   int
		MaxRawLog   int
		DebugLogDir string
	}
	Retention struct {
		ResetHour       int
		PruneEveryHours int
		StaleAfterHours int
	}
	Notify struct {
		QueueSize  int
		MaxWorkers int
	}
	Enrich struct {
		URL            string
		ChunkSize      int
		TimeoutSeconds int
	}
	Logging struct {
		Dir   string
		Level string
	}
	Auth struct {
		Enabled bool
	}
}

// Load reads environment variables, applies defaults, and returns a Config.
func Load() (Config, error) {
	// Load .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config

	cfg.API.Port = getEnv("API_PORT", "9191")
	cfg.API.BasePath = getEnv("API_BASE_PATH", "/api/v0")

	cfg.DB.DSN = os.Getenv("DB_DSN")
	cfg.Auth.Enabled = cfg.DB.DSN != ""

	// Kafka ingestion is optional; leaving KAFKA_BROKER unset disables it.
	cfg.Kafka.Broker = os.Getenv("KAFKA_BROKER")
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", "log_alerts")
	cfg.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", "alert-dashboard")

	cfg.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Telegram.ChatID = getEnvInt64("TELEGRAM_CHAT_ID", 0)

	cfg.Heartbeat.URL = os.Getenv("HEARTBEAT_WS_URL")
	cfg.Heartbeat.Trigger = getEnv("HEARTBEAT_TRIGGER", "status")
	cfg.Heartbeat.TimeoutSeconds = getEnvInt("HEARTBEAT_TIMEOUT_SECONDS", 10)

	cfg.Store.MaxAlerts = getEnvInt("MAX_ALERTS", 500)
	cfg.Store.MaxRawLog = getEnvInt("MAX_RAW_WEBHOOKS", 100)
	cfg.Store.DebugLogDir = getEnv("DEBUG_LOG_DIR", "logs")

	cfg.Retention.ResetHour = getEnvInt("RESET_HOUR", 0)
	cfg.Retention.PruneEveryHours = getEnvInt("PRUNE_EVERY_HOURS", 4)
	cfg.Retention.StaleAfterHours = getEnvInt("DEDUPE_STALE_HOURS", 24)

	cfg.Notify.QueueSize = getEnvInt("NOTIFY_QUEUE_SIZE", 100)
	cfg.Notify.MaxWorkers = getEnvInt("NOTIFY_MAX_WORKERS", 2)

	cfg.Enrich.URL = os.Getenv("ENRICH_URL")
	cfg.Enrich.ChunkSize = getEnvInt("ENRICH_CHUNK_SIZE", 5)
	cfg.Enrich.TimeoutSeconds = getEnvInt("ENRICH_TIMEOUT_SECONDS", 5)

	cfg.Logging.Dir = getEnv("LOG_DIR", "logs")
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var problems []string
	if c.Store.MaxAlerts < 1 {
		problems = append(problems, "MAX_ALERTS must be >= 1")
	}
	if c.Retention.ResetHour < 0 || c.Retention.ResetHour > 23 {
		problems = append(problems, "RESET_HOUR must be in 0..23")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		problems = append(problems, "TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return v
	}
	return def
}
