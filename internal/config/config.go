// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // rate-table cache TTL
}

type AdminConfig struct {
	Port      int    `yaml:"port"`
	APIKey    string `yaml:"api_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

// SettlementConfig holds the core business knobs that are deployment
// configuration, not rate-table data.
type SettlementConfig struct {
	Currency     string `yaml:"currency"`       // platform wallet currency
	TokenTTLDays int    `yaml:"token_ttl_days"` // jeton validity window
}

// SchedulerConfig carries one cron expression per batch job.
type SchedulerConfig struct {
	DailyGrantCron       string `yaml:"daily_grant_cron"`
	WeeklyGrantCron      string `yaml:"weekly_grant_cron"`
	MonthlyGrantCron     string `yaml:"monthly_grant_cron"`
	YearlyGrantCron      string `yaml:"yearly_grant_cron"`
	TokenSweepCron       string `yaml:"token_sweep_cron"`
	MembershipExpireCron string `yaml:"membership_expire_cron"`
}

// CurrencyConfig feeds the static exchange-rate adapter. Keys are "FROM:TO"
// pairs, values are multipliers.
type CurrencyConfig struct {
	Rates map[string]float64 `yaml:"rates"`
}

type NotifyConfig struct {
	TelegramToken string           `yaml:"telegram_token"` // empty disables delivery
	ChatIDs       map[string]int64 `yaml:"chat_ids"`       // member id -> telegram chat
	Language      string           `yaml:"language"`       // message locale, defaults to fr
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Admin      AdminConfig      `yaml:"admin"`
	Settlement SettlementConfig `yaml:"settlement"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Currency   CurrencyConfig   `yaml:"currency"`
	Notify     NotifyConfig     `yaml:"notify"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8081
	}
	if cfg.Settlement.Currency == "" {
		cfg.Settlement.Currency = "USD"
	}
	if cfg.Settlement.TokenTTLDays <= 0 {
		cfg.Settlement.TokenTTLDays = 30
	}
	if cfg.Scheduler.DailyGrantCron == "" {
		cfg.Scheduler.DailyGrantCron = "5 0 * * *" // 00:05 every day
	}
	if cfg.Scheduler.WeeklyGrantCron == "" {
		cfg.Scheduler.WeeklyGrantCron = "10 0 * * 1" // Monday 00:10
	}
	if cfg.Scheduler.MonthlyGrantCron == "" {
		cfg.Scheduler.MonthlyGrantCron = "15 0 1 * *" // day 1, 00:15
	}
	if cfg.Scheduler.YearlyGrantCron == "" {
		cfg.Scheduler.YearlyGrantCron = "20 0 1 1 *" // Jan 1, 00:20
	}
	if cfg.Scheduler.TokenSweepCron == "" {
		cfg.Scheduler.TokenSweepCron = "0 * * * *" // hourly
	}
	if cfg.Scheduler.MembershipExpireCron == "" {
		cfg.Scheduler.MembershipExpireCron = "30 0 * * *" // 00:30 every day
	}
	if cfg.Notify.Language == "" {
		cfg.Notify.Language = "fr"
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Admin.APIKey == "" && !dev {
		return nil, errors.New("admin.api_key is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

// TokenTTL returns the jeton validity window as a duration.
func (c *SettlementConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLDays) * 24 * time.Hour
}
