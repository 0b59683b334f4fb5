package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration
type Config struct {
	BotToken       string        `env:"TELEGRAM_BOT_TOKEN"`
	AdminID        int64         `env:"ADMIN_ID"`
	APIURL         string        `env:"API_URL"`
	DBPath         string        `env:"DB_PATH" envDefault:"win_go.db"`
	HeaderTitle    string        `env:"HEADER_TITLE"`
	PageSize       int           `env:"HISTORY_PAGE_SIZE" envDefault:"20"`
	HistoryWindow  int           `env:"HISTORY_WINDOW" envDefault:"10"`
	Retention      int           `env:"RETENTION" envDefault:"15"`
	DisplayCount   int           `env:"MAX_DISPLAY" envDefault:"15"`
	MultiplierCap  int           `env:"MULTIPLIER_CAP" envDefault:"81"`
	PostInterval   time.Duration `env:"POST_INTERVAL" envDefault:"60s"`
	RetryInterval  time.Duration `env:"RETRY_INTERVAL" envDefault:"10s"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"20s"`
	SummaryHour    int           `env:"SUMMARY_HOUR" envDefault:"0"`
	SummaryZone    string        `env:"SUMMARY_TZ" envDefault:"UTC"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`

	// Location is resolved from SummaryZone during Load.
	Location *time.Location
}

// DefaultAPIURL is the public WinGo 1-minute draw history endpoint.
const DefaultAPIURL = "https://draw.ar-lottery01.com/WinGo/WinGo_1M/GetHistoryIssuePage.json"

// Load initializes configuration from environment variables. Missing
// required values (bot token, admin id) are an error: the caller must
// treat that as fatal before scheduling any task.
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		BotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIURL:         getEnvWithDefault("API_URL", DefaultAPIURL),
		DBPath:         getEnvWithDefault("DB_PATH", "win_go.db"),
		HeaderTitle:    getEnvWithDefault("HEADER_TITLE", "[51GAME] WinGo 1M"),
		PageSize:       getEnvIntWithDefault("HISTORY_PAGE_SIZE", 20),
		HistoryWindow:  getEnvIntWithDefault("HISTORY_WINDOW", 10),
		Retention:      getEnvIntWithDefault("RETENTION", 15),
		DisplayCount:   getEnvIntWithDefault("MAX_DISPLAY", 15),
		MultiplierCap:  getEnvIntWithDefault("MULTIPLIER_CAP", 81),
		PostInterval:   getEnvDurationWithDefault("POST_INTERVAL", 60*time.Second),
		RetryInterval:  getEnvDurationWithDefault("RETRY_INTERVAL", 10*time.Second),
		RequestTimeout: getEnvDurationWithDefault("REQUEST_TIMEOUT", 20*time.Second),
		SummaryHour:    getEnvIntWithDefault("SUMMARY_HOUR", 0),
		SummaryZone:    getEnvWithDefault("SUMMARY_TZ", "UTC"),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
	}

	if adminEnv := os.Getenv("ADMIN_ID"); adminEnv != "" {
		id, err := strconv.ParseInt(adminEnv, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_ID %q: %w", adminEnv, err)
		}
		cfg.AdminID = id
	}

	if cfg.BotToken == "" || cfg.AdminID == 0 {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN and ADMIN_ID must be set")
	}
	if cfg.SummaryHour < 0 || cfg.SummaryHour > 23 {
		return nil, fmt.Errorf("SUMMARY_HOUR must be within 0-23, got %d", cfg.SummaryHour)
	}

	loc, err := time.LoadLocation(cfg.SummaryZone)
	if err != nil {
		return nil, fmt.Errorf("invalid SUMMARY_TZ %q: %w", cfg.SummaryZone, err)
	}
	cfg.Location = loc

	return cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
