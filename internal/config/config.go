package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every setting of the counter service.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type AppConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LogLevel       string        `yaml:"log_level"`
}

// Addr is the listen address of the HTTP server.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type DatabaseConfig struct {
	// URL is either a postgres:// DSN or sqlite:<path> for local runs.
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type CatalogConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
	Exchange string `yaml:"exchange"`
	UseTLS   bool   `yaml:"use_tls"`
}

// Enabled reports whether fulfillment tickets should be published.
func (r RabbitMQConfig) Enabled() bool { return r.Host != "" }

type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

// Enabled reports whether idempotency keys are honoured.
func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`
	// Exporter is one of none, stdout, otlp.
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

const catalogAPIPrefix = "/v1/api"

// Default returns the configuration the counter runs with when nothing is set.
func Default() Config {
	return Config{
		App: AppConfig{
			Host:           "localhost",
			Port:           5002,
			RequestTimeout: 10 * time.Second,
			LogLevel:       "debug",
		},
		Database: DatabaseConfig{
			URL:      "postgres://postgres:P@ssw0rd@127.0.0.1/postgres",
			MaxConns: 10,
		},
		Catalog: CatalogConfig{
			BaseURL: "http://localhost:5001" + catalogAPIPrefix,
			Timeout: 5 * time.Second,
		},
		RabbitMQ: RabbitMQConfig{
			Port:     5672,
			VHost:    "/",
			Exchange: "orders_topic",
		},
		Redis: RedisConfig{
			IdempotencyTTL: 24 * time.Hour,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "counter-service",
			Exporter:    "none",
			Endpoint:    "localhost:4317",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// process environment, in that order. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("couldn't open the configuration file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("HOST", &c.App.Host)
	if err := num("APP_PORT", &c.App.Port); err != nil {
		return err
	}
	str("LOG_LEVEL", &c.App.LogLevel)
	str("DATABASE_URL", &c.Database.URL)
	// PRODUCT_URL is the catalog host only; the API prefix is appended here.
	if v, ok := lookup("PRODUCT_URL"); ok && v != "" {
		c.Catalog.BaseURL = strings.TrimRight(v, "/") + catalogAPIPrefix
	}
	str("CATALOG_BASE_URL", &c.Catalog.BaseURL)

	str("RABBITMQ_HOST", &c.RabbitMQ.Host)
	if err := num("RABBITMQ_PORT", &c.RabbitMQ.Port); err != nil {
		return err
	}
	str("RABBITMQ_USER", &c.RabbitMQ.User)
	str("RABBITMQ_PASSWORD", &c.RabbitMQ.Password)
	str("RABBITMQ_VHOST", &c.RabbitMQ.VHost)
	if v, ok := lookup("RABBITMQ_USE_TLS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RABBITMQ_USE_TLS: %w", err)
		}
		c.RabbitMQ.UseTLS = b
	}

	str("REDIS_ADDR", &c.Redis.Addr)

	str("OTEL_SERVICE_NAME", &c.Telemetry.ServiceName)
	str("OTEL_EXPORTER", &c.Telemetry.Exporter)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Telemetry.Endpoint)
	return nil
}

// Validate checks the fields every run needs.
func (c *Config) Validate() error {
	var errs []error
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("app port %d out of range", c.App.Port))
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("database url is empty"))
	}
	if u, err := url.Parse(c.Catalog.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("catalog base url %q is invalid", c.Catalog.BaseURL))
	}
	switch c.Telemetry.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Errorf("unknown telemetry exporter %q", c.Telemetry.Exporter))
	}
	return errors.Join(errs...)
}

// DefaultPath is the config file picked up when no -config flag is given.
const DefaultPath = "config.yaml"

// FindConfig returns DefaultPath when it exists in the working directory.
// The example file under deploy/ is never picked up implicitly.
func FindConfig() (string, error) {
	if _, err := os.Stat(DefaultPath); err != nil {
		return "", fs.ErrNotExist
	}
	return DefaultPath, nil
}
