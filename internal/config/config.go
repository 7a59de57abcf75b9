package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/openvue/gradepoint/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	LogLevel           logging.Level

	PprofEnabled bool
	PprofAddr    string

	CacheEnabled bool
	CacheTTL     time.Duration

	InstitutionID         string
	WeightedCourseMarkers []string
	PrefetchWorkers       int

	SynergyEnabled               bool
	SynergyBaseURL               string
	SynergyToken                 string
	SynergyTimeout               time.Duration
	SynergyMaxRetries            int
	SynergyCircuitEnabled        bool
	SynergyCircuitFailureCount   int
	SynergyCircuitOpenTimeout    time.Duration
	SynergyCircuitHalfOpenMaxReq int
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	prefetchWorkers, err := getEnvAsInt("PREFETCH_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse PREFETCH_WORKERS: %w", err)
	}
	if prefetchWorkers < 1 {
		return Config{}, fmt.Errorf("PREFETCH_WORKERS must be >= 1")
	}

	synergyEnabled, err := strconv.ParseBool(getEnv("SYNERGY_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNERGY_ENABLED: %w", err)
	}
	synergyBaseURL := strings.TrimSpace(getEnv("SYNERGY_BASE_URL", ""))
	synergyToken := strings.TrimSpace(getEnv("SYNERGY_TOKEN", ""))
	if synergyEnabled {
		if synergyBaseURL == "" {
			return Config{}, fmt.Errorf("SYNERGY_BASE_URL is required when SYNERGY_ENABLED=true")
		}
		if synergyToken == "" {
			return Config{}, fmt.Errorf("SYNERGY_TOKEN is required when SYNERGY_ENABLED=true")
		}
	}
	synergyTimeout, err := time.ParseDuration(getEnv("SYNERGY_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNERGY_TIMEOUT: %w", err)
	}
	if synergyTimeout <= 0 {
		return Config{}, fmt.Errorf("SYNERGY_TIMEOUT must be > 0")
	}
	synergyMaxRetries, err := getEnvAsInt("SYNERGY_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNERGY_MAX_RETRIES: %w", err)
	}
	if synergyMaxRetries < 0 {
		return Config{}, fmt.Errorf("SYNERGY_MAX_RETRIES must be >= 0")
	}
	synergyCircuitEnabled, err := strconv.ParseBool(getEnv("SYNERGY_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNERGY_CIRCUIT_ENABLED: %w", err)
	}
	synergyCircuitFailureCount, err := getEnvAsInt("SYNERGY_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNERGY_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if synergyCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("SYNERGY_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	synergyCircuitOpenTimeout, err := time.ParseDuration(getEnv("SYNERGY_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNERGY_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if synergyCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("SYNERGY_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	synergyCircuitHalfOpenMaxReq, err := getEnvAsInt("SYNERGY_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNERGY_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if synergyCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("SYNERGY_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	logLevel, err := logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_LOG_LEVEL: %w", err)
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "gradepoint-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           logLevel,

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,

		CacheEnabled: cacheEnabled,
		CacheTTL:     cacheTTL,

		InstitutionID:         strings.TrimSpace(getEnv("INSTITUTION_ID", "mcps")),
		WeightedCourseMarkers: splitCSV(getEnv("WEIGHTED_COURSE_MARKERS", "")),
		PrefetchWorkers:       prefetchWorkers,

		SynergyEnabled:               synergyEnabled,
		SynergyBaseURL:               synergyBaseURL,
		SynergyToken:                 synergyToken,
		SynergyTimeout:               synergyTimeout,
		SynergyMaxRetries:            synergyMaxRetries,
		SynergyCircuitEnabled:        synergyCircuitEnabled,
		SynergyCircuitFailureCount:   synergyCircuitFailureCount,
		SynergyCircuitOpenTimeout:    synergyCircuitOpenTimeout,
		SynergyCircuitHalfOpenMaxReq: synergyCircuitHalfOpenMaxReq,
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
