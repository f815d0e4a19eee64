package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const minSecretLength = 32

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	AppURL    string `env:"APP_URL" default:"http://localhost:8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	SessionSecret      string        `env:"SESSION_SECRET"`
	SessionMaxAge      time.Duration `env:"SESSION_MAX_AGE" default:"168h"` // 7 days
	ResetTokenSecret   string        `env:"RESET_TOKEN_SECRET"`
	FieldEncryptionKey string        `env:"FIELD_ENCRYPTION_KEY"`

	Currency           string        `env:"CURRENCY" default:"GHS"`
	ReferralPoints     int           `env:"REFERRAL_POINTS" default:"50"`
	QuizTimezone       string        `env:"QUIZ_TIMEZONE" default:"UTC"`
	DiscoveryPageSize  int           `env:"DISCOVERY_PAGE_SIZE" default:"10"`
	PendingPurchaseTTL time.Duration `env:"PENDING_PURCHASE_TTL" default:"24h"`
	ReconcileInterval  time.Duration `env:"RECONCILE_INTERVAL" default:"5m"`

	PaystackSecretKey string `env:"PAYSTACK_SECRET_KEY"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	VivaClientID     string `env:"VIVA_CLIENT_ID"`
	VivaClientSecret string `env:"VIVA_CLIENT_SECRET"`
	VivaMerchantID   string `env:"VIVA_MERCHANT_ID"`
	VivaAPIKey       string `env:"VIVA_API_KEY"`
	VivaSourceCode   string `env:"VIVA_SOURCE_CODE"`
	VivaWebhookCIDRs string `env:"VIVA_WEBHOOK_CIDRS"`
	VivaDemo         bool   `env:"VIVA_DEMO" default:"false"`

	// Peers allowed to set X-Forwarded-For. Empty means the TCP peer is the client.
	TrustedProxyCIDRs string `env:"TRUSTED_PROXY_CIDRS"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" default:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" default:"no-reply@mooibanana.app"`

	MaxWebSocketConnections int `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
	ActionRateCapacity      int `env:"ACTION_RATE_CAPACITY" default:"30"`
	ActionRatePerMinute     int `env:"ACTION_RATE_PER_MINUTE" default:"60"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func (c *Config) PaystackEnabled() bool { return c.PaystackSecretKey != "" }

func (c *Config) StripeEnabled() bool {
	return c.StripeSecretKey != "" && c.StripeWebhookSecret != ""
}

func (c *Config) VivaEnabled() bool {
	return c.VivaClientID != "" && c.VivaClientSecret != "" && c.VivaMerchantID != "" && c.VivaAPIKey != ""
}

func (c *Config) SMTPEnabled() bool { return c.SMTPHost != "" }

// QuizLocation resolves QUIZ_TIMEZONE. validate has already checked it.
func (c *Config) QuizLocation() *time.Location {
	loc, err := time.LoadLocation(c.QuizTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// VivaWebhookPrefixes parses the comma separated VIVA_WEBHOOK_CIDRS list.
func (c *Config) VivaWebhookPrefixes() ([]netip.Prefix, error) {
	return parsePrefixes(c.VivaWebhookCIDRs)
}

// TrustedProxyPrefixes parses the comma separated TRUSTED_PROXY_CIDRS list.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	return parsePrefixes(c.TrustedProxyCIDRs)
}

func parsePrefixes(list string) ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, raw := range strings.Split(list, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", raw, err)
		}
		prefixes = append(prefixes, p)
	}
	return prefixes, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":       cfg.DatabaseURL,
		"REDIS_URL":          cfg.RedisURL,
		"SESSION_SECRET":     cfg.SessionSecret,
		"RESET_TOKEN_SECRET": cfg.ResetTokenSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if len(cfg.SessionSecret) < minSecretLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters", minSecretLength)
	}
	if len(cfg.ResetTokenSecret) < minSecretLength {
		return fmt.Errorf("RESET_TOKEN_SECRET must be at least %d characters", minSecretLength)
	}

	if cfg.FieldEncryptionKey != "" {
		keyBytes, err := hex.DecodeString(cfg.FieldEncryptionKey)
		if err != nil {
			return fmt.Errorf("FIELD_ENCRYPTION_KEY must be valid hex: %w", err)
		}
		if len(keyBytes) != 32 {
			return fmt.Errorf("FIELD_ENCRYPTION_KEY must be exactly 64 hex characters (32 bytes), got %d bytes", len(keyBytes))
		}
	}

	if len(cfg.Currency) != 3 {
		return fmt.Errorf("CURRENCY must be a 3-letter ISO code, got %q", cfg.Currency)
	}
	cfg.Currency = strings.ToUpper(cfg.Currency)

	if _, err := time.LoadLocation(cfg.QuizTimezone); err != nil {
		return fmt.Errorf("QUIZ_TIMEZONE is invalid: %w", err)
	}

	if cfg.ReferralPoints < 0 {
		return fmt.Errorf("REFERRAL_POINTS must not be negative")
	}
	if cfg.DiscoveryPageSize < 1 || cfg.DiscoveryPageSize > 100 {
		return fmt.Errorf("DISCOVERY_PAGE_SIZE must be between 1 and 100")
	}
	if cfg.ActionRateCapacity < 1 || cfg.ActionRatePerMinute < 1 {
		return fmt.Errorf("ACTION_RATE_CAPACITY and ACTION_RATE_PER_MINUTE must be positive")
	}

	if cfg.VivaEnabled() {
		if _, err := cfg.VivaWebhookPrefixes(); err != nil {
			return fmt.Errorf("VIVA_WEBHOOK_CIDRS: %w", err)
		}
	}
	if _, err := cfg.TrustedProxyPrefixes(); err != nil {
		return fmt.Errorf("TRUSTED_PROXY_CIDRS: %w", err)
	}

	return nil
}
