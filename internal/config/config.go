package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/corsgate/internal/models"
	"github.com/benvon/corsgate/internal/validation"
	"github.com/ulule/limiter/v3"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	ServerHost      string
	ServerPort      string
	ServerDebugMode bool
	LogFormat       string
	EnableHSTS      bool
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	MaxRequestSize  int64
	RateLimit       string
	RedisURL        string
	OTELEnabled     bool
	OTELEndpoint    string
	CORSPolicyFile  string
	CORS            models.CorsRule
}

// Load loads configuration from environment variables, overlays the CORS
// policy file when CORS_POLICY_FILE is set, and validates the result.
func Load() (*Config, error) {
	var errs []error

	shutdownTimeout, err := getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)
	errs = append(errs, err)
	requestTimeout, err := getEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
	errs = append(errs, err)
	maxAge, err := getEnvIntStrict("CORS_MAX_AGE", models.DefaultCorsMaxAge)
	errs = append(errs, err)
	maxRequestSize, err := getEnvIntStrict("MAX_REQUEST_SIZE", 1<<20)
	errs = append(errs, err)
	allowCredentials, err := getEnvBoolStrict("CORS_ALLOW_CREDENTIALS", true)
	errs = append(errs, err)

	cfg := &Config{
		ServerHost:      getEnv("SERVER_HOST", ""),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		ShutdownTimeout: shutdownTimeout,
		RequestTimeout:  requestTimeout,
		MaxRequestSize:  int64(maxRequestSize),
		RateLimit:       getEnv("RATE_LIMIT", "100-M"),
		RedisURL:        getEnv("REDIS_URL", ""),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		CORSPolicyFile:  getEnv("CORS_POLICY_FILE", ""),
		CORS: models.CorsRule{
			PathPattern:      getEnv("CORS_PATH_PATTERN", models.DefaultCorsPathPattern),
			AllowedOrigins:   getEnvList("FRONTEND_URL", []string{models.DefaultCorsOrigin}),
			AllowedHeaders:   getEnvList("CORS_ALLOWED_HEADERS", []string{models.WildcardHeader}),
			AllowedMethods:   getEnvList("CORS_ALLOWED_METHODS", models.DefaultCorsMethods),
			AllowCredentials: allowCredentials,
			MaxAge:           maxAge,
		},
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if cfg.CORSPolicyFile != "" {
		if err := cfg.applyPolicyFile(cfg.CORSPolicyFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the server settings and the CORS rule.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.ServerPort)
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("SERVER_PORT must be a port number, got %q", c.ServerPort)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console', got %q", c.LogFormat)
	}
	if c.MaxRequestSize <= 0 {
		return fmt.Errorf("MAX_REQUEST_SIZE must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
		return fmt.Errorf("RATE_LIMIT %q is invalid: %w", c.RateLimit, err)
	}
	if err := validation.ValidateCorsRule(c.CORS); err != nil {
		return err
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.ServerHost, c.ServerPort)
}

// CorsRule returns a private copy of the configured CORS rule.
func (c *Config) CorsRule() models.CorsRule {
	return c.CORS.Clone()
}

// applyPolicyFile overlays the CORS fields present in a YAML policy file.
// Keys absent from the file keep their environment/default values.
func (c *Config) applyPolicyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open cors policy file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&c.CORS); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse cors policy file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvBoolStrict(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", key, value)
	}
	return b, nil
}

func getEnvIntStrict(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return intValue, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, value)
	}
	return d, nil
}

// getEnvList parses a comma-separated list, trimming whitespace and dropping
// empty and duplicate entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	seen := make(map[string]struct{})
	for _, item := range strings.Split(value, ",") {
		trimmed := validation.SanitizeText(item)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
