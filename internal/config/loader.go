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
const DefaultConfigFile = "missioncontrol.yaml"

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
	setString(&cfg.Server.Port, "MISSIONCONTROL_PORT")
	setString(&cfg.Server.CORSOrigin, "MISSIONCONTROL_CORS_ORIGIN")

	// Storage
	setString(&cfg.Database.Driver, "MISSIONCONTROL_DB_DRIVER")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "MISSIONCONTROL_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "MISSIONCONTROL_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "MISSIONCONTROL_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "MISSIONCONTROL_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "MISSIONCONTROL_PG_HEALTH_CHECK")
	setString(&cfg.SQLite.Path, "MISSIONCONTROL_SQLITE_PATH")

	setString(&cfg.NATS.URL, "NATS_URL")

	setString(&cfg.Logging.Level, "MISSIONCONTROL_LOG_LEVEL")
	setString(&cfg.Logging.Service, "MISSIONCONTROL_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "MISSIONCONTROL_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "MISSIONCONTROL_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "MISSIONCONTROL_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "MISSIONCONTROL_RATE_RPS")
	setInt(&cfg.Rate.Burst, "MISSIONCONTROL_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "MISSIONCONTROL_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "MISSIONCONTROL_RATE_MAX_IDLE_TIME")

	// Idempotency
	setString(&cfg.Idempotency.Bucket, "MISSIONCONTROL_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.Idempotency.TTL, "MISSIONCONTROL_IDEMPOTENCY_TTL")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "MISSIONCONTROL_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "MISSIONCONTROL_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "MISSIONCONTROL_CACHE_L2_TTL")
	setDuration(&cfg.Cache.BoardTTL, "MISSIONCONTROL_CACHE_BOARD_TTL")

	// Telemetry
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "MISSIONCONTROL_OTEL_SERVICE")
	setBool(&cfg.OTEL.Insecure, "MISSIONCONTROL_OTEL_INSECURE")
	setFloat64(&cfg.OTEL.SampleRate, "MISSIONCONTROL_OTEL_SAMPLE_RATE")
	setDuration(&cfg.OTEL.Interval, "MISSIONCONTROL_OTEL_METRIC_INTERVAL")

	// MCP
	setBool(&cfg.MCP.Enabled, "MISSIONCONTROL_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "MISSIONCONTROL_MCP_ADDR")
	setString(&cfg.MCP.APIKey, "MISSIONCONTROL_MCP_API_KEY")

	// Orchestrator
	setString(&cfg.Orchestrator.CLIPath, "MISSIONCONTROL_OPENCLAW_PATH")
	setDuration(&cfg.Orchestrator.Timeout, "MISSIONCONTROL_OPENCLAW_TIMEOUT")
	setInt(&cfg.Orchestrator.MaxConcurrent, "MISSIONCONTROL_OPENCLAW_MAX_CONCURRENT")

	setDuration(&cfg.Agents.StaleAfter, "MISSIONCONTROL_AGENT_STALE_AFTER")
	setString(&cfg.Pool.ClaimBaseURL, "MISSIONCONTROL_CLAIM_BASE_URL")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	case "sqlite":
		if cfg.SQLite.Path == "" {
			return errors.New("sqlite.path is required")
		}
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", cfg.Database.Driver)
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Orchestrator.MaxConcurrent < 1 {
		return errors.New("orchestrator.max_concurrent must be >= 1")
	}
	if cfg.Orchestrator.Timeout <= 0 {
		return errors.New("orchestrator.timeout must be > 0")
	}
	if cfg.Agents.StaleAfter <= 0 {
		return errors.New("agents.stale_after must be > 0")
	}
	if cfg.MCP.Enabled && cfg.MCP.Addr == "" {
		return errors.New("mcp.addr is required when mcp is enabled")
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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
