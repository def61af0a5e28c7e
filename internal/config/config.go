package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"RatePulse/internal/model"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken    string        `yaml:"bot_token"`
		PollTimeout time.Duration `yaml:"poll_timeout"`
	} `yaml:"telegram"`
	Rates struct {
		BaseURL    string        `yaml:"base_url"`
		Currencies []string      `yaml:"currencies"`
		Quote      string        `yaml:"quote"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"rates"`
	Schedule struct {
		Hour     int    `yaml:"hour"`
		Minute   int    `yaml:"minute"`
		Timezone string `yaml:"timezone"`
	} `yaml:"schedule"`
	Broadcast struct {
		Workers     int           `yaml:"workers"`
		RatePerSec  int           `yaml:"rate_per_sec"`
		SendTimeout time.Duration `yaml:"send_timeout"`
	} `yaml:"broadcast"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Proxy      string `yaml:"proxy"`
	RunOnStart bool   `yaml:"run_on_start"`

	location *time.Location
}

// LoadDotEnv loads variables from an optional .env file. A missing file is not
// an error; variables already set in the environment win.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Schedule.Hour = -1

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("RATES_BASE_URL"); v != "" {
		cfg.Rates.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BROADCAST_TIMEZONE"); v != "" {
		cfg.Schedule.Timezone = v
	}
	if os.Getenv("RUN_ON_START") == "true" {
		cfg.RunOnStart = true
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Telegram.PollTimeout == 0 {
		c.Telegram.PollTimeout = 10 * time.Second
	}
	if c.Rates.BaseURL == "" {
		c.Rates.BaseURL = "https://www.floatrates.com/daily"
	}
	if len(c.Rates.Currencies) == 0 {
		c.Rates.Currencies = []string{"usd", "eur"}
	}
	if c.Rates.Quote == "" {
		c.Rates.Quote = "rub"
	}
	if c.Rates.Timeout == 0 {
		c.Rates.Timeout = 5 * time.Second
	}
	// -1 marks "unset" so that an explicit hour 0 in YAML survives.
	if c.Schedule.Hour == -1 {
		c.Schedule.Hour = 8
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = "Europe/Moscow"
	}
	if c.Broadcast.Workers == 0 {
		c.Broadcast.Workers = 4
	}
	if c.Broadcast.RatePerSec == 0 {
		c.Broadcast.RatePerSec = 25
	}
	if c.Broadcast.SendTimeout == 0 {
		c.Broadcast.SendTimeout = 5 * time.Second
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/users.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks that all required fields are set and resolves the schedule
// timezone.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if len(c.Currencies()) == 0 {
		return fmt.Errorf("rates.currencies must not be empty")
	}
	if c.Quote() == "" {
		return fmt.Errorf("rates.quote is required")
	}
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		return fmt.Errorf("schedule.hour must be in 0..23, got %d", c.Schedule.Hour)
	}
	if c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		return fmt.Errorf("schedule.minute must be in 0..59, got %d", c.Schedule.Minute)
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	c.location = loc
	if c.Rates.Timeout <= 0 {
		return fmt.Errorf("rates.timeout must be positive")
	}
	if c.Broadcast.SendTimeout <= 0 {
		return fmt.Errorf("broadcast.send_timeout must be positive")
	}
	if c.Broadcast.Workers <= 0 {
		return fmt.Errorf("broadcast.workers must be positive")
	}
	if c.Broadcast.RatePerSec <= 0 {
		return fmt.Errorf("broadcast.rate_per_sec must be positive")
	}
	return nil
}

// Location returns the schedule timezone resolved by Validate, or UTC.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Currencies returns the configured base currencies, normalized and deduplicated.
func (c *Config) Currencies() []model.Currency {
	seen := make(map[model.Currency]bool, len(c.Rates.Currencies))
	out := make([]model.Currency, 0, len(c.Rates.Currencies))
	for _, raw := range c.Rates.Currencies {
		cur := model.NormalizeCurrency(raw)
		if cur == "" || seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
	}
	return out
}

// Quote returns the normalized quote currency.
func (c *Config) Quote() model.Currency {
	return model.NormalizeCurrency(c.Rates.Quote)
}
