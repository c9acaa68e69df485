package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full service configuration, loaded from PRICEFLOW_*
// environment variables.
type Config struct {
	Env      string `envconfig:"ENV" default:"development"`
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	APIToken string `envconfig:"API_TOKEN" default:"dev-token"`

	DefaultStrategy string `envconfig:"DEFAULT_STRATEGY" default:"FIXED"`

	DB    DBConfig    `envconfig:"DB"`
	Kafka KafkaConfig `envconfig:"KAFKA"`
}

// DBConfig holds PostgreSQL settings. A full DSN wins; otherwise the DSN
// is assembled from the individual parts (Docker friendly).
type DBConfig struct {
	DSN      string `envconfig:"DSN"`
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     string `envconfig:"PORT" default:"5432"`
	User     string `envconfig:"USER" default:"postgres"`
	Password string `envconfig:"PASSWORD" default:"postgres"`
	Name     string `envconfig:"NAME" default:"priceflow"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
}

// KafkaConfig holds event bus settings.
type KafkaConfig struct {
	Brokers []string `envconfig:"BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"TOPIC" default:"pricing-events"`
}

// Load reads configuration from the environment. A local .env file is
// applied first when present; missing files are not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("PRICEFLOW", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	return &cfg, nil
}

// ConnectionString returns the DSN, assembling it from parts when no
// explicit DSN is configured.
func (c DBConfig) ConnectionString() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}
