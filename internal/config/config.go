package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Patio"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"patio"`
	}

	Server struct {
		Timeout     time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins []string      `envconfig:"CORS_ORIGINS" default:"*"`
	}

	Log struct {
		Level  string `envconfig:"LOG_LEVEL" default:"info"`
		Format string `envconfig:"LOG_FORMAT" default:"text"`
	}

	Ledger struct {
		HistoryLimit    int  `envconfig:"LEDGER_HISTORY_LIMIT" default:"20"`
		ListLimit       int  `envconfig:"LEDGER_LIST_LIMIT" default:"200"`
		StrictSelection bool `envconfig:"LEDGER_STRICT_SELECTION" default:"false"`
	}

	Ticket struct {
		Cols   int   `envconfig:"TICKET_COLS" default:"40"`
		Header Lines `envconfig:"TICKET_HEADER"`
	}
}

// Lines is a `;`-separated list, so entries may contain commas.
type Lines []string

func (l *Lines) Decode(value string) error {
	*l = nil

	for part := range strings.SplitSeq(value, ";") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}

	return nil
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if cfg.Ticket.Cols < 20 {
		return nil, fmt.Errorf("TICKET_COLS must be at least 20, got %d", cfg.Ticket.Cols)
	}

	return &cfg, nil
}
