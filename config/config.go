package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// This function will Load the ENVIRONMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		// a missing .env file is fine in development, the process env still applies
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	GO_ENV string `env:"GO_ENV" envDefault:"development"`
	PORT   int    `env:"PORT" envDefault:"8080" validate:"min=1,max=65535"`

	SHUTDOWN_TIMEOUT    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"20s"`
	RATE_LIMIT_REQUESTS int           `env:"RATE_LIMIT_REQUESTS" envDefault:"120" validate:"min=0"`

	// Database Configuration
	DB_DRIVER    string `env:"DB_DRIVER" envDefault:"postgres" validate:"oneof=postgres sqlite"`
	DB_USER_NAME string `env:"DB_USER_NAME"`
	DB_PASSWORD  string `env:"DB_PASSWORD"`
	DB_NAME      string `env:"DB_NAME"`
	DB_HOST      string `env:"DB_HOST" envDefault:"localhost"`
	DB_PORT      string `env:"DB_PORT" envDefault:"5432"`
	DB_SSL_MODE  string `env:"DB_SSL_MODE" envDefault:"disable"`
	SQLITE_PATH  string `env:"SQLITE_PATH" envDefault:"notes.db"`

	// Publish events pushed by the admin panel through NOTIFY <channel>, '<document id>'
	PUBLISH_LISTEN_CHANNEL string `env:"PUBLISH_LISTEN_CHANNEL"`

	// Redis Configuration
	REDIS_URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Chat sessions
	SESSION_BACKEND string        `env:"SESSION_BACKEND" envDefault:"memory" validate:"oneof=memory redis"`
	SESSION_TTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// Telegram Configuration
	TELEGRAM_TOKEN          string `env:"TELEGRAM_TOKEN" validate:"required_unless=TELEGRAM_MODE disabled"`
	TELEGRAM_MODE           string `env:"TELEGRAM_MODE" envDefault:"polling" validate:"oneof=polling webhook disabled"`
	TELEGRAM_WEBHOOK_URL    string `env:"TELEGRAM_WEBHOOK_URL" validate:"required_if=TELEGRAM_MODE webhook"`
	TELEGRAM_WEBHOOK_SECRET string `env:"TELEGRAM_WEBHOOK_SECRET"`

	// Shared secret the admin panel sends with publish events
	ADMIN_API_TOKEN string `env:"ADMIN_API_TOKEN"`

	// File storage
	FILE_STORE    string `env:"FILE_STORE" envDefault:"local" validate:"oneof=local spaces"`
	UPLOAD_FOLDER string `env:"UPLOAD_FOLDER" envDefault:"uploads"`

	// DigitalOcean Spaces Configuration
	DO_SPACES_ACCESS_KEY string `env:"DO_SPACES_ACCESS_KEY"`
	DO_SPACES_SECRET_KEY string `env:"DO_SPACES_SECRET_KEY"`
	DO_SPACES_BUCKET     string `env:"DO_SPACES_BUCKET"`
	DO_SPACES_REGION     string `env:"DO_SPACES_REGION"`
	DO_SPACES_ENDPOINT   string `env:"DO_SPACES_ENDPOINT"`

	// Notification fan-out
	FANOUT_CONCURRENCY  int           `env:"FANOUT_CONCURRENCY" envDefault:"8" validate:"min=1,max=64"`
	FANOUT_SEND_TIMEOUT time.Duration `env:"FANOUT_SEND_TIMEOUT" envDefault:"15s"`
	RATING_AUDIT        bool          `env:"RATING_AUDIT" envDefault:"true"`

	CRON_ENABLED bool `env:"CRON_ENABLED" envDefault:"true"`
}

func Get() (*EnvironmentVariable, error) {
	var envVariables EnvironmentVariable
	if err := env.Parse(&envVariables); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(envVariables); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &envVariables, nil
}

// IsProduction reports whether GO_ENV selects production behaviour
func (e *EnvironmentVariable) IsProduction() bool {
	return e.GO_ENV == "production"
}

// PostgresDSN builds a postgres:// URL understood by both pgx and lib/pq. Credentials are
// escaped, so passwords may be empty or contain spaces and quotes.
func (e *EnvironmentVariable) PostgresDSN() string {
	query := url.Values{}
	query.Set("sslmode", e.DB_SSL_MODE)
	query.Set("TimeZone", "UTC")

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(e.DB_USER_NAME, e.DB_PASSWORD),
		Host:     net.JoinHostPort(e.DB_HOST, e.DB_PORT),
		Path:     "/" + e.DB_NAME,
		RawQuery: query.Encode(),
	}
	return dsn.String()
}
