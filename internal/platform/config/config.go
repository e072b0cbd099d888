package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"mandate"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	// RegistryBaseURL points at the external business registry. Empty means
	// the in-memory registry fixture is used.
	RegistryBaseURL string `env:"REGISTRY_BASE_URL"`

	AgencyJWTSecret string `env:"AGENCY_JWT_SECRET"`
	InviteCodeSalt  string `env:"INVITE_CODE_SALT" envDefault:"mandate-invite"`

	InviteExpiryDays   int           `env:"INVITE_EXPIRY_DAYS" envDefault:"7"`
	NotifyPollInterval time.Duration `env:"NOTIFY_POLL_INTERVAL" envDefault:"2s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.ServiceName = strings.TrimSpace(cfg.ServiceName)
	cfg.HTTPPort = strings.TrimSpace(cfg.HTTPPort)
	if cfg.InviteExpiryDays <= 0 {
		cfg.InviteExpiryDays = 7
	}
	if cfg.NotifyPollInterval <= 0 {
		cfg.NotifyPollInterval = 2 * time.Second
	}
	return cfg, nil
}

// InvitationTTL converts the configured expiry days to a duration.
func (c Config) InvitationTTL() time.Duration {
	return time.Duration(c.InviteExpiryDays) * 24 * time.Hour
}
