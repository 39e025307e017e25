package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "sesbridge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SESBRIDGE_PORT")
	setString(&cfg.Server.CORSOrigin, "SESBRIDGE_CORS_ORIGIN")
	setString(&cfg.Server.LoginPath, "SESBRIDGE_LOGIN_PATH")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "SESBRIDGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "SESBRIDGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "SESBRIDGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "SESBRIDGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "SESBRIDGE_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setInt64(&cfg.Cache.MaxCostBytes, "SESBRIDGE_CACHE_MAX_COST_BYTES")
	setDuration(&cfg.Cache.CompanyTypeTTL, "SESBRIDGE_CACHE_COMPANY_TYPE_TTL")
	setString(&cfg.Auth.Secret, "SESBRIDGE_AUTH_SECRET")
	setDuration(&cfg.Auth.AccessTokenExpiry, "SESBRIDGE_AUTH_ACCESS_EXPIRY")
	setDuration(&cfg.Auth.RefreshTokenExpiry, "SESBRIDGE_AUTH_REFRESH_EXPIRY")
	setInt(&cfg.Auth.BcryptCost, "SESBRIDGE_AUTH_BCRYPT_COST")
	setString(&cfg.Uploads.Root, "SESBRIDGE_UPLOADS_ROOT")
	setString(&cfg.Uploads.SofficePath, "SOFFICE_PATH")
	setString(&cfg.SMTP.Host, "SESBRIDGE_SMTP_HOST")
	setInt(&cfg.SMTP.Port, "SESBRIDGE_SMTP_PORT")
	setString(&cfg.SMTP.From, "SESBRIDGE_SMTP_FROM")
	setString(&cfg.SMTP.Password, "SESBRIDGE_SMTP_PASSWORD")
	setString(&cfg.Logging.Level, "SESBRIDGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SESBRIDGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "SESBRIDGE_LOG_ASYNC")
	setInt(&cfg.Logging.AsyncBuffer, "SESBRIDGE_LOG_ASYNC_BUFFER")
	setInt(&cfg.Logging.AsyncWorkers, "SESBRIDGE_LOG_ASYNC_WORKERS")
	setFloat64(&cfg.Rate.RequestsPerSecond, "SESBRIDGE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "SESBRIDGE_RATE_BURST")
	setBool(&cfg.Telemetry.Enabled, "SESBRIDGE_TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Auth.Secret == "" {
		return errors.New("auth.secret is required")
	}
	if cfg.Auth.BcryptCost < 10 || cfg.Auth.BcryptCost > 31 {
		return errors.New("auth.bcrypt_cost must be between 10 and 31")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
