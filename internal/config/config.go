package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Address string `env:"ADDRESS" envDefault:":8080"`

	DB Database

	JWTSecret   string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL    time.Duration `env:"TOKEN_TTL" envDefault:"12h"`
	CORSOrigins string        `env:"CORS_ORIGINS" envDefault:"*"`

	Webhook Webhook

	// NotifyTimezone is the IANA location used to print {timestamp} in messages.
	NotifyTimezone  string        `env:"NOTIFY_TIMEZONE" envDefault:"UTC"`
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"5m"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL" envDefault:"1m"`

	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	Log Log
}

type Database struct {
	Host     string `env:"BLUEPRINT_DB_HOST" envDefault:"localhost"`
	Port     string `env:"BLUEPRINT_DB_PORT" envDefault:"5432"`
	Database string `env:"BLUEPRINT_DB_DATABASE" envDefault:"orders"`
	Username string `env:"BLUEPRINT_DB_USERNAME" envDefault:"postgres"`
	Password string `env:"BLUEPRINT_DB_PASSWORD"`
	Schema   string `env:"BLUEPRINT_DB_SCHEMA" envDefault:"public"`
}

// DSN escapes the credentials, so passwords may contain URL metacharacters.
func (d Database) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {"disable"}, "search_path": {d.Schema}}.Encode(),
	}
	return u.String()
}

type Webhook struct {
	// GlobalURL is the process-wide sink. Empty disables the global destination.
	GlobalURL   string        `env:"GLOBAL_WEBHOOK_URL"`
	MaxAttempts int           `env:"WEBHOOK_MAX_ATTEMPTS" envDefault:"3"`
	RetryDelay  time.Duration `env:"WEBHOOK_RETRY_DELAY" envDefault:"1s"`
	Timeout     time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"15s"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
	// Output is one of stdout, file, both.
	Output     string `env:"LOG_OUTPUT" envDefault:"stdout"`
	File       string `env:"LOG_FILE" envDefault:"./logs/app.log"`
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"7"`
	MaxAge     int    `env:"LOG_MAX_AGE" envDefault:"7"`
	Compress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

// Load reads the configuration from the environment. Binaries import
// godotenv/autoload so a local .env file is already applied at this point.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Webhook.MaxAttempts < 1 {
		return fmt.Errorf("WEBHOOK_MAX_ATTEMPTS must be at least 1, got %d", c.Webhook.MaxAttempts)
	}
	if c.Webhook.RetryDelay < 0 {
		return fmt.Errorf("WEBHOOK_RETRY_DELAY must not be negative")
	}
	if c.StatsInterval <= 0 {
		return fmt.Errorf("STATS_INTERVAL must be positive")
	}
	if _, err := time.LoadLocation(c.NotifyTimezone); err != nil {
		return fmt.Errorf("NOTIFY_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the parsed NOTIFY_TIMEZONE, UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.NotifyTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
