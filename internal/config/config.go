package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

const devSessionSecret = "dev-session-secret-change-me"

// Config is read from the environment, optionally seeded from .env files.
type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	MongoURI string `env:"MONGODB_URI"`
	MongoDB  string `env:"MONGODB_DB" envDefault:"machinery"`

	SessionSecret   string `env:"SESSION_SECRET"`
	SessionTTLHours int    `env:"SESSION_TTL_HOURS" envDefault:"24"`

	SchedulerAutoEnable      bool `env:"SCHEDULER_AUTO_ENABLE" envDefault:"false"`
	SchedulerIntervalMinutes int  `env:"SCHEDULER_INTERVAL_MINUTES" envDefault:"15"`
	ServiceReminderHours     int  `env:"SERVICE_REMINDER_HOURS" envDefault:"24"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"no-reply@localhost"`

	MQTTBrokerURL string `env:"MQTT_BROKER_URL"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" envDefault:"machinery-dashboard"`

	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile      string `env:"LOG_FILE"`
	LogMaxSizeMB int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`

	PublicRateLimit         int `env:"PUBLIC_RATE_LIMIT" envDefault:"60"`
	PublicRateWindowSeconds int `env:"PUBLIC_RATE_WINDOW_SECONDS" envDefault:"60"`
	SuspensionCacheSeconds  int `env:"SUSPENSION_CACHE_SECONDS" envDefault:"30"`

	// TrustProxy makes the rate limiter key clients by X-Forwarded-For.
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`
}

// Load reads the given env files (default .env) when they exist, then parses
// the environment. Variables already set in the environment win over files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		if c.IsProduction() {
			return errors.New("SESSION_SECRET is required in production")
		}
		c.SessionSecret = devSessionSecret
	}
	if c.SessionTTLHours <= 0 {
		return errors.New("SESSION_TTL_HOURS must be positive")
	}
	if c.SchedulerIntervalMinutes <= 0 {
		return errors.New("SCHEDULER_INTERVAL_MINUTES must be positive")
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) SchedulerInterval() time.Duration {
	return time.Duration(c.SchedulerIntervalMinutes) * time.Minute
}

func (c *Config) ServiceReminderAge() time.Duration {
	return time.Duration(c.ServiceReminderHours) * time.Hour
}

func (c *Config) SuspensionCacheTTL() time.Duration {
	return time.Duration(c.SuspensionCacheSeconds) * time.Second
}
