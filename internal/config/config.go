package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds every runtime setting of the bot, read from the environment
type Config struct {
	Port           string `env:"PORT" envDefault:"8080"`
	Environment    string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	UseMemoryStore bool   `env:"USE_MEMORY_STORE"`
	TenantsFile    string `env:"TENANTS_FILE"`

	// Master directory (clientes table)
	DBHost                 string `env:"DB_HOST" envDefault:"localhost"`
	DBPort                 int    `env:"DB_PORT" envDefault:"5432"`
	DBUser                 string `env:"DB_USER" envDefault:"postgres"`
	DBPass                 string `env:"DB_PASS"`
	DBName                 string `env:"DB_NAME" envDefault:"driverbot"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	TwilioAccountSID   string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `env:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppFrom string `env:"TWILIO_WHATSAPP_FROM"`

	ExtractorBaseURL string        `env:"EXTRACTOR_BASE_URL" envDefault:"http://127.0.0.1:8000"`
	ExtractorAPIKey  string        `env:"EXTRACTOR_API_KEY"`
	ExternalTimeout  time.Duration `env:"EXTERNAL_HTTP_TIMEOUT" envDefault:"20s"`

	Concurrency        int           `env:"CONCURRENCY" envDefault:"4"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"60m"`
	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	MaxMessageLength   int           `env:"MAX_MESSAGE_LENGTH" envDefault:"1500"`
	SupportPhone       string        `env:"SUPPORT_PHONE" envDefault:"47996077564"`
	TenantCharset      string        `env:"TENANT_CHARSET" envDefault:"WIN1252"`
	TenantPingInterval time.Duration `env:"TENANT_PING_INTERVAL" envDefault:"10m"`
}

// Load reads an optional .env file and binds the environment into a Config
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		if err := godotenv.Load("environments/.env.development"); err != nil {
			log.Debug().Msg("⚠️  No .env file found - using process environment")
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("CONCURRENCY must be positive, got %d", c.Concurrency)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL must be positive")
	}
	if c.ExternalTimeout <= 0 {
		return fmt.Errorf("EXTERNAL_HTTP_TIMEOUT must be positive")
	}
	if c.MaxMessageLength < 100 {
		return fmt.Errorf("MAX_MESSAGE_LENGTH too small: %d", c.MaxMessageLength)
	}
	return nil
}

// IsDevelopment reports whether development-only routes and console logging are enabled
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// TwilioConfigured reports whether outbound WhatsApp messages can be sent
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioWhatsAppFrom != ""
}
