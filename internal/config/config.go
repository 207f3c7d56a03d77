package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL       string
	HTTPAddr          string
	TelegramToken     string
	TelegramDebug     bool
	LockTTL           time.Duration
	LockRenewInterval time.Duration
	AutosaveDelay     time.Duration
	HolidayCalendar   string
	LogLevel          string
	ShutdownTimeout   time.Duration
}

var instance *Config
var once sync.Once

// GetConfig loads .env once and returns the process configuration. A missing
// .env file is fine; invalid values are fatal.
func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.WithError(err).Debug("No .env file loaded")
		}
		cfg := Load()
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("invalid configuration: %s", err.Error())
		}
		instance = &cfg
	})
	return instance
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		DatabaseURL:       getEnv("DATABASE_URL", "planner.db"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		TelegramToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramDebug:     getEnvAsBool("TELEGRAM_DEBUG", false),
		LockTTL:           getEnvAsDuration("LOCK_TTL", 5*time.Minute),
		LockRenewInterval: getEnvAsDuration("LOCK_RENEW_INTERVAL", 2*time.Minute),
		AutosaveDelay:     getEnvAsDuration("AUTOSAVE_DELAY", 800*time.Millisecond),
		HolidayCalendar:   getEnv("HOLIDAY_CALENDAR", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout:   getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.LockTTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be positive")
	}
	if c.LockRenewInterval <= 0 || c.LockRenewInterval >= c.LockTTL {
		return fmt.Errorf("LOCK_RENEW_INTERVAL must be positive and shorter than LOCK_TTL")
	}
	if c.AutosaveDelay <= 0 {
		return fmt.Errorf("AUTOSAVE_DELAY must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// BotEnabled reports whether a Telegram token is configured.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(name, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}
	return defaultVal
}
