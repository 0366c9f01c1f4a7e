// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
)

// Supported identity resolution modes.
const (
	AuthModeHeader = "header"
	AuthModeToken  = "token"
)

// Supported telemetry exporters.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPGRPC = "otlp-grpc"
	ExporterOTLPHTTP = "otlp-http"
)

// Config holds all configuration for the application.
type Config struct {
	DatabaseURL     string        `env:"DATABASE_URL"`
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiModel   string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	GeminiTimeout time.Duration `env:"GEMINI_TIMEOUT" envDefault:"15s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
	Timezone  string `env:"TIMEZONE" envDefault:"UTC"`

	AuthMode   string `env:"AUTH_MODE" envDefault:"header"`
	AuthHeader string `env:"AUTH_HEADER" envDefault:"X-User-ID"`
	RawTokens  string `env:"API_TOKENS"`

	OTelExporter    string `env:"OTEL_EXPORTER" envDefault:"none"`
	OTelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"expense-api"`

	apiTokens map[string]string
	location  *time.Location
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	cfg.OTelExporter = strings.ToLower(strings.TrimSpace(cfg.OTelExporter))

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// APITokens maps bearer tokens to owner identities, parsed from API_TOKENS.
func (c *Config) APITokens() map[string]string {
	return c.apiTokens
}

// Location returns the parsed TIMEZONE, defaulting to UTC.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// AIEnabled reports whether a Gemini API key is configured.
func (c *Config) AIEnabled() bool {
	return strings.TrimSpace(c.GeminiAPIKey) != ""
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT must be positive")
	}

	if c.GeminiTimeout <= 0 {
		errs = append(errs, "GEMINI_TIMEOUT must be positive")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Sprintf("TIMEZONE %q is invalid", c.Timezone))
	} else {
		c.location = loc
	}

	switch c.AuthMode {
	case AuthModeHeader:
		if strings.TrimSpace(c.AuthHeader) == "" {
			errs = append(errs, "AUTH_HEADER is required when AUTH_MODE=header")
		}
	case AuthModeToken:
		tokens, tokenErrs := parseTokens(c.RawTokens)
		errs = append(errs, tokenErrs...)
		if len(tokens) == 0 && len(tokenErrs) == 0 {
			errs = append(errs, "API_TOKENS is required when AUTH_MODE=token")
		}
		c.apiTokens = tokens
	default:
		errs = append(errs, fmt.Sprintf("AUTH_MODE %q is not one of header, token", c.AuthMode))
	}

	exporters := []string{ExporterNone, ExporterStdout, ExporterOTLPGRPC, ExporterOTLPHTTP}
	if !slices.Contains(exporters, c.OTelExporter) {
		errs = append(errs, fmt.Sprintf("OTEL_EXPORTER %q is not one of %s", c.OTelExporter, strings.Join(exporters, ", ")))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// parseTokens splits "token:owner,token2:owner2" into a lookup map.
func parseTokens(raw string) (map[string]string, []string) {
	tokens := make(map[string]string)
	var errs []string

	for pair := range strings.SplitSeq(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, owner, ok := strings.Cut(pair, ":")
		token = strings.TrimSpace(token)
		owner = strings.TrimSpace(owner)
		if !ok || token == "" || owner == "" {
			errs = append(errs, "API_TOKENS entries must look like token:owner")
			continue
		}
		tokens[token] = owner
	}

	return tokens, errs
}
