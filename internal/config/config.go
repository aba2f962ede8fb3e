package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	defaultAppEnv           = "development"
	defaultDBPath           = "./dev.db"
	defaultPort             = "8080"
	defaultLogFormat        = "json"
	defaultLogLevel         = "info"
	defaultMetricsNamespace = "printprice"
	defaultJobsPageSize     = 50
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DBPath             string
	RedisURL           string
	LogFormat          string
	LogLevel           string
	MetricsNamespace   string
	CORSAllowedOrigins []string
	JobsPageSize       int
}

// Load reads environment variables, after merging an optional .env file, and
// returns a populated Config.
func Load() (*Config, error) {
	return load(".env")
}

func load(dotenvPath string) (*Config, error) {
	if err := loadDotEnv(dotenvPath); err != nil {
		return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), defaultAppEnv),
		Port:               valueOrDefault(k.String("PORT"), defaultPort),
		DBPath:             valueOrDefault(k.String("DB_PATH"), defaultDBPath),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		LogFormat:          valueOrDefault(k.String("LOG_FORMAT"), defaultLogFormat),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), defaultLogLevel),
		MetricsNamespace:   valueOrDefault(k.String("METRICS_NAMESPACE"), defaultMetricsNamespace),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		JobsPageSize:       defaultJobsPageSize,
	}

	if raw := strings.TrimSpace(k.String("JOBS_PAGE_SIZE")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("JOBS_PAGE_SIZE must be a positive integer, got %q", raw)
		}
		cfg.JobsPageSize = n
	}

	return cfg, nil
}

// IsDev reports whether the app runs in development mode.
func (c *Config) IsDev() bool {
	switch strings.ToLower(strings.TrimSpace(c.AppEnv)) {
	case "", "dev", "development", "local":
		return true
	default:
		return false
	}
}

// HTTPAddr returns the address the HTTP server binds to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = defaultPort
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

// LoadForTests loads a Config with env overriding the process environment.
// Empty values unset the variable. The environment is restored afterwards and
// no .env file is read.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]*string, len(env))
	for key, value := range env {
		if prev, ok := os.LookupEnv(key); ok {
			original[key] = &prev
		} else {
			original[key] = nil
		}
		if err := setEnvVar(key, value); err != nil {
			return nil, err
		}
	}
	defer restoreEnv(original)

	return load("")
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]*string) {
	for key, value := range values {
		if value == nil {
			_ = os.Unsetenv(key)
			continue
		}
		_ = os.Setenv(key, *value)
	}
}
