// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Provider      ProviderConfig      `yaml:"provider"`
	Accounts      AccountsConfig      `yaml:"accounts"`
	Monitor       MonitorConfig       `yaml:"monitor"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// ProviderConfig defines WatchPower/Dess telemetry provider settings.
type ProviderConfig struct {
	BaseURL   string          `yaml:"base_url"`
	Timeout   time.Duration   `yaml:"timeout"`
	CacheTTL  time.Duration   `yaml:"cache_ttl"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines provider rate limiting settings.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// AccountsConfig selects and configures the account store backend.
type AccountsConfig struct {
	// Source is "postgres" or "static".
	Source string           `yaml:"source"`
	Static []domain.Account `yaml:"static"`
}

// MonitorConfig defines the polling cycle and detector thresholds.
type MonitorConfig struct {
	PollInterval                 time.Duration `yaml:"poll_interval"`
	GridFeedEscalation           time.Duration `yaml:"grid_feed_escalation"`
	LoadSheddingVoltageThreshold float64       `yaml:"load_shedding_voltage_threshold"`
	SystemOfflineThreshold       time.Duration `yaml:"system_offline_threshold"`
	LowProductionThresholdWatts  float64       `yaml:"low_production_threshold_watts"`
}

// NotificationsConfig defines notification channels.
type NotificationsConfig struct {
	Discord  DiscordConfig  `yaml:"discord"`
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Email    EmailConfig    `yaml:"email"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// TelegramConfig defines Telegram bot settings.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// WebhookConfig defines generic webhook settings.
type WebhookConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// EmailConfig defines SMTP settings.
type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyProviderDefaults(&cfg.Provider)
	applyAccountsDefaults(&cfg.Accounts)
	applyMonitorDefaults(&cfg.Monitor)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyProviderDefaults(p *ProviderConfig) {
	if p.BaseURL == "" {
		p.BaseURL = "https://web.dessmonitor.com/public/"
	}
	if p.Timeout == 0 {
		p.Timeout = 30 * time.Second
	}
	if p.CacheTTL == 0 {
		p.CacheTTL = 10 * time.Second
	}
	applyRateLimitDefaults(&p.RateLimit)
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 2.0
	}
	if r.Burst == 0 {
		r.Burst = 4
	}
	if r.DailyLimit == 0 {
		r.DailyLimit = 5000
	}
}

func applyAccountsDefaults(a *AccountsConfig) {
	if a.Source == "" {
		a.Source = "postgres"
	}
}

func applyMonitorDefaults(m *MonitorConfig) {
	if m.PollInterval == 0 {
		m.PollInterval = 400 * time.Second
	}
	if m.GridFeedEscalation == 0 {
		m.GridFeedEscalation = 6 * time.Hour
	}
	if m.LoadSheddingVoltageThreshold == 0 {
		m.LoadSheddingVoltageThreshold = 180
	}
	if m.SystemOfflineThreshold == 0 {
		m.SystemOfflineThreshold = 10 * time.Minute
	}
	if m.LowProductionThresholdWatts == 0 {
		m.LowProductionThresholdWatts = 500
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	switch cfg.Accounts.Source {
	case "postgres":
		if cfg.Database.Host == "" {
			errs = append(errs, fmt.Errorf("database.host is required when accounts.source is postgres"))
		}
		if cfg.Database.Name == "" {
			errs = append(errs, fmt.Errorf("database.name is required when accounts.source is postgres"))
		}
		if cfg.Database.User == "" {
			errs = append(errs, fmt.Errorf("database.user is required when accounts.source is postgres"))
		}
	case "static":
		if len(cfg.Accounts.Static) == 0 {
			errs = append(errs, fmt.Errorf("accounts.static must list at least one account when accounts.source is static"))
		}
		for i := range cfg.Accounts.Static {
			a := &cfg.Accounts.Static[i]
			if a.ID == "" {
				errs = append(errs, fmt.Errorf("accounts.static[%d].id is required", i))
			}
			if a.Credentials.Username == "" || a.Credentials.Password == "" {
				errs = append(errs, fmt.Errorf("accounts.static[%d].credentials are required", i))
			}
		}
	default:
		errs = append(errs, fmt.Errorf(
			"accounts.source must be one of: postgres, static (got %q)",
			cfg.Accounts.Source,
		))
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf("notifications.discord.webhook_url is required when discord is enabled"))
	}
	if cfg.Notifications.Telegram.Enabled {
		if cfg.Notifications.Telegram.BotToken == "" {
			errs = append(errs, fmt.Errorf("notifications.telegram.bot_token is required when telegram is enabled"))
		}
		if cfg.Notifications.Telegram.ChatID == "" {
			errs = append(errs, fmt.Errorf("notifications.telegram.chat_id is required when telegram is enabled"))
		}
	}
	if cfg.Notifications.Webhook.Enabled && cfg.Notifications.Webhook.URL == "" {
		errs = append(errs, fmt.Errorf("notifications.webhook.url is required when webhook is enabled"))
	}
	if cfg.Notifications.Email.Enabled {
		if cfg.Notifications.Email.SMTPHost == "" {
			errs = append(errs, fmt.Errorf("notifications.email.smtp_host is required when email is enabled"))
		}
		if cfg.Notifications.Email.From == "" {
			errs = append(errs, fmt.Errorf("notifications.email.from is required when email is enabled"))
		}
	}

	if cfg.Monitor.PollInterval < time.Minute {
		errs = append(errs, fmt.Errorf(
			"monitor.poll_interval must be at least 1m (got %s)",
			cfg.Monitor.PollInterval,
		))
	}

	return errors.Join(errs...)
}
