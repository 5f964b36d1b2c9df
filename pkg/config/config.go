// Package config provides configuration structures and loading logic for the
// adapter.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/polisai/pdforge-adapter/pkg/logging"
	"github.com/polisai/pdforge-adapter/pkg/upstream"
)

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultDataAddress  = ":8080"
	DefaultAdminAddress = ":19090"
	DefaultMaxBodyBytes = 10 << 20
	DefaultServiceName  = "pdforge-adapter"
)

// Config holds the global configuration for the adapter.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds configuration for the HTTP servers.
type ServerConfig struct {
	DataAddress  string `yaml:"data_address"`
	AdminAddress string `yaml:"admin_address"`
	// MaxBodyBytes caps inbound request bodies; oversized bodies fail the read.
	MaxBodyBytes int64      `yaml:"max_body_bytes"`
	TLS          *TLSConfig `yaml:"tls,omitempty"`
}

// UpstreamConfig holds the pdforge endpoint. It is fixed for the process
// lifetime.
type UpstreamConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// TelemetryConfig holds configuration for OpenTelemetry.
type TelemetryConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	Insecure     bool    `yaml:"insecure"`
	ServiceName  string  `yaml:"service_name"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			DataAddress:  DefaultDataAddress,
			AdminAddress: DefaultAdminAddress,
			MaxBodyBytes: DefaultMaxBodyBytes,
		},
		Upstream: UpstreamConfig{
			Endpoint: upstream.DefaultEndpoint,
		},
		Telemetry: TelemetryConfig{
			ServiceName: DefaultServiceName,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := readFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	//nolint:gosec // Config file path is controlled by admin/operator
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("ADAPTER_DATA_ADDR"); val != "" {
		cfg.Server.DataAddress = val
	}
	if val := os.Getenv("ADAPTER_ADMIN_ADDR"); val != "" {
		cfg.Server.AdminAddress = val
	}
	if val := os.Getenv("ADAPTER_MAX_BODY_BYTES"); val != "" {
		limit, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return NewConfigValidationError("ADAPTER_MAX_BODY_BYTES", val, "must be an integer")
		}
		cfg.Server.MaxBodyBytes = limit
	}

	if val := os.Getenv("ADAPTER_TLS_ENABLED"); val == "true" {
		ensureTLS(cfg).Enabled = true
	}
	if val := os.Getenv("ADAPTER_TLS_CERT_FILE"); val != "" {
		ensureTLS(cfg).CertFile = val
	}
	if val := os.Getenv("ADAPTER_TLS_KEY_FILE"); val != "" {
		ensureTLS(cfg).KeyFile = val
	}

	if val := os.Getenv("ADAPTER_UPSTREAM_ENDPOINT"); val != "" {
		cfg.Upstream.Endpoint = val
	}

	if val := os.Getenv("ADAPTER_OTLP_ENDPOINT"); val != "" {
		cfg.Telemetry.OTLPEndpoint = val
	}
	if val := os.Getenv("ADAPTER_OTLP_INSECURE"); val == "true" {
		cfg.Telemetry.Insecure = true
	}

	if val := os.Getenv("ADAPTER_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("ADAPTER_LOG_PRETTY"); val == "true" {
		cfg.Logging.Pretty = true
	}

	return nil
}

func ensureTLS(cfg *Config) *TLSConfig {
	if cfg.Server.TLS == nil {
		cfg.Server.TLS = &TLSConfig{}
	}
	return cfg.Server.TLS
}

// Validate performs validation of the entire configuration and fills in
// defaults for empty fields.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server configuration: %w", err)
	}

	if err := c.Upstream.Validate(); err != nil {
		return fmt.Errorf("upstream configuration: %w", err)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry configuration: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging configuration: %w", err)
	}

	return nil
}

// Validate performs validation of server configuration.
func (c *ServerConfig) Validate() error {
	if strings.TrimSpace(c.DataAddress) == "" {
		c.DataAddress = DefaultDataAddress
	}
	if strings.TrimSpace(c.AdminAddress) == "" {
		c.AdminAddress = DefaultAdminAddress
	}
	if c.DataAddress == c.AdminAddress {
		return NewConfigValidationError("server.admin_address", c.AdminAddress, "must differ from data_address")
	}

	switch {
	case c.MaxBodyBytes == 0:
		c.MaxBodyBytes = DefaultMaxBodyBytes
	case c.MaxBodyBytes < 0:
		return NewConfigValidationError("server.max_body_bytes", c.MaxBodyBytes, "must be positive")
	}

	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("TLS configuration: %w", err)
	}

	return nil
}

// Validate checks that the endpoint is an absolute http(s) URL.
func (c *UpstreamConfig) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		c.Endpoint = upstream.DefaultEndpoint
		return nil
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return NewConfigValidationError("upstream.endpoint", c.Endpoint, err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewConfigValidationError("upstream.endpoint", c.Endpoint, "scheme must be http or https").
			WithSuggestion("use " + upstream.DefaultEndpoint)
	}
	if u.Host == "" {
		return NewConfigValidationError("upstream.endpoint", c.Endpoint, "host is required")
	}

	return nil
}

// Validate performs validation of telemetry configuration.
func (c *TelemetryConfig) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return NewConfigValidationError("telemetry.sample_ratio", c.SampleRatio, "must be between 0 and 1")
	}
	return nil
}

// Validate performs validation of logging configuration.
func (c *LoggingConfig) Validate() error {
	if strings.TrimSpace(c.Level) == "" {
		c.Level = "info"
	}

	if _, err := logging.ParseLevel(c.Level); err != nil {
		return NewConfigValidationError("logging.level", c.Level, "must be one of debug, info, warn, error")
	}
	c.Level = strings.ToLower(strings.TrimSpace(c.Level))
	return nil
}
