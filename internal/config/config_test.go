package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "HTTP_ADDR", "TELEGRAM_BOT_TOKEN", "LOCK_TTL", "LOCK_RENEW_INTERVAL", "AUTOSAVE_DELAY", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	if cfg.DatabaseURL != "planner.db" {
		t.Fatalf("expected default database, got %q", cfg.DatabaseURL)
	}
	if cfg.LockTTL != 5*time.Minute || cfg.LockRenewInterval != 2*time.Minute {
		t.Fatalf("expected 5m/2m lock timings, got %s/%s", cfg.LockTTL, cfg.LockRenewInterval)
	}
	if cfg.AutosaveDelay != 800*time.Millisecond {
		t.Fatalf("expected 800ms autosave, got %s", cfg.AutosaveDelay)
	}
	if cfg.BotEnabled() {
		t.Fatal("expected bot disabled without token")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://planner@localhost/planner")
	t.Setenv("LOCK_TTL", "90s")
	t.Setenv("LOCK_RENEW_INTERVAL", "30s")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_DEBUG", "true")
	t.Setenv("AUTOSAVE_DELAY", "not-a-duration")

	cfg := Load()
	if cfg.LockTTL != 90*time.Second || cfg.LockRenewInterval != 30*time.Second {
		t.Fatalf("expected overridden lock timings, got %s/%s", cfg.LockTTL, cfg.LockRenewInterval)
	}
	if !cfg.BotEnabled() || !cfg.TelegramDebug {
		t.Fatal("expected bot enabled with debug")
	}
	if cfg.AutosaveDelay != 800*time.Millisecond {
		t.Fatalf("expected invalid duration to fall back, got %s", cfg.AutosaveDelay)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		DatabaseURL:       "planner.db",
		LockTTL:           5 * time.Minute,
		LockRenewInterval: 2 * time.Minute,
		AutosaveDelay:     time.Second,
		LogLevel:          "info",
	}
	cases := map[string]func(*Config){
		"no database":       func(c *Config) { c.DatabaseURL = " " },
		"renew after ttl":   func(c *Config) { c.LockRenewInterval = 10 * time.Minute },
		"zero ttl":          func(c *Config) { c.LockTTL = 0 },
		"zero autosave":     func(c *Config) { c.AutosaveDelay = 0 },
		"unknown log level": func(c *Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
