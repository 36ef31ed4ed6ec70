package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"

	platformstrings "gatepass/pkg/platform/strings"
)

// Config captures everything the server needs from the environment.
type Config struct {
	Addr           string
	DatabaseURL    string
	MigrationsPath string
	TicketSecret   string
	WebhookToken   string
	KafkaBrokers   []string
	AuditTopic     string
}

// Load builds a Config from environment variables so main stays lean.
// A .env file is optional; real environments provide variables directly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:           os.Getenv("GATEPASS_ADDR"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		TicketSecret:   os.Getenv("TICKET_SECRET"),
		WebhookToken:   os.Getenv("WEBHOOK_TOKEN"),
		AuditTopic:     os.Getenv("AUDIT_TOPIC"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = platformstrings.DedupeAndTrim(strings.Split(brokers, ","))
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}
	if cfg.AuditTopic == "" {
		cfg.AuditTopic = "gatepass.audit"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.TicketSecret) == "" {
		return fmt.Errorf("config: TICKET_SECRET is required; tickets cannot be signed without it")
	}

	// DATABASE_URL is optional: without it the server runs on in-memory stores.
	if c.DatabaseURL != "" {
		parsed, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return fmt.Errorf("config: invalid DATABASE_URL %q: %w", c.DatabaseURL, err)
		}
		if parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("config: invalid DATABASE_URL %q: missing scheme or host", c.DatabaseURL)
		}
	}

	return nil
}
