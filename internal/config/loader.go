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
const DefaultConfigFile = "planforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if v := os.Getenv("PLANFORGE_CONFIG"); v != "" {
		path = v
	}
	return LoadFrom(path)
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
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the operator
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
	setString(&cfg.Server.Port, "PLANFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "PLANFORGE_CORS_ORIGIN")
	setDuration(&cfg.Server.ShutdownTimeout, "PLANFORGE_SHUTDOWN_TIMEOUT")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "PLANFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "PLANFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "PLANFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "PLANFORGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "PLANFORGE_PG_HEALTH_CHECK")

	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "PLANFORGE_NATS_STREAM")

	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.MasterKey, "LITELLM_MASTER_KEY")

	// LLM
	setString(&cfg.LLM.Model, "PLANFORGE_LLM_MODEL")
	setFloat64(&cfg.LLM.Temperature, "PLANFORGE_LLM_TEMPERATURE")
	setInt(&cfg.LLM.MaxTokens, "PLANFORGE_LLM_MAX_TOKENS")
	setDuration(&cfg.LLM.Timeout, "PLANFORGE_LLM_TIMEOUT")
	setInt(&cfg.LLM.HistoryWindow, "PLANFORGE_LLM_HISTORY_WINDOW")
	setDuration(&cfg.LLM.ModelsRefresh, "PLANFORGE_LLM_MODELS_REFRESH")

	setString(&cfg.Prompts.ChatPath, "PLANFORGE_PROMPT_CHAT")
	setString(&cfg.Prompts.ExtractionPath, "PLANFORGE_PROMPT_EXTRACTION")

	setString(&cfg.Logging.Level, "PLANFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PLANFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "PLANFORGE_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "PLANFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "PLANFORGE_BREAKER_TIMEOUT")

	setFloat64(&cfg.Rate.RequestsPerSecond, "PLANFORGE_RATE_RPS")
	setInt(&cfg.Rate.Burst, "PLANFORGE_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "PLANFORGE_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "PLANFORGE_RATE_MAX_IDLE_TIME")

	setInt64(&cfg.Cache.MaxSizeMB, "PLANFORGE_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "PLANFORGE_CACHE_TTL")

	// OpenTelemetry
	setBool(&cfg.OTel.Enabled, "PLANFORGE_OTEL_ENABLED")
	setString(&cfg.OTel.Endpoint, "PLANFORGE_OTEL_ENDPOINT")
	setString(&cfg.OTel.ServiceName, "PLANFORGE_OTEL_SERVICE_NAME")
	setBool(&cfg.OTel.Insecure, "PLANFORGE_OTEL_INSECURE")
	setFloat64(&cfg.OTel.SampleRate, "PLANFORGE_OTEL_SAMPLE_RATE")

	setBool(&cfg.MCP.Enabled, "PLANFORGE_MCP_ENABLED")
	setString(&cfg.MCP.APIKey, "PLANFORGE_MCP_API_KEY")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.LiteLLM.URL == "" {
		return errors.New("litellm.url is required")
	}
	if cfg.LLM.Model == "" {
		return errors.New("llm.model is required")
	}
	if cfg.LLM.Timeout <= 0 {
		return errors.New("llm.timeout must be > 0")
	}
	if cfg.LLM.HistoryWindow < 1 {
		return errors.New("llm.history_window must be >= 1")
	}
	if cfg.NATS.URL != "" && cfg.NATS.Stream == "" {
		return errors.New("nats.stream is required when nats.url is set")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Rate.CleanupInterval <= 0 {
		return errors.New("rate.cleanup_interval must be > 0")
	}
	if cfg.Cache.MaxSizeMB < 1 {
		return errors.New("cache.max_size_mb must be >= 1")
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
