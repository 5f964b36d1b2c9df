package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"
)

// TLSConfig enables HTTPS on the data listener.
type TLSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	CertFile   string `yaml:"cert_file"`
	KeyFile    string `yaml:"key_file"`
	MinVersion string `yaml:"min_version"`
}

// ParseTLSVersion maps "1.2" or "1.3" to the crypto/tls constant. Empty means
// TLS 1.2.
func ParseTLSVersion(version string) (uint16, error) {
	switch strings.TrimSpace(version) {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q", version)
	}
}

// Validate checks that the certificate and key are readable.
func (c *TLSConfig) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}
	if c.CertFile == "" {
		return NewConfigValidationError("server.tls.cert_file", c.CertFile, "required when TLS is enabled")
	}
	if c.KeyFile == "" {
		return NewConfigValidationError("server.tls.key_file", c.KeyFile, "required when TLS is enabled")
	}
	for field, path := range map[string]string{"server.tls.cert_file": c.CertFile, "server.tls.key_file": c.KeyFile} {
		if _, err := os.Stat(path); err != nil {
			return NewConfigValidationError(field, path, err.Error())
		}
	}
	if _, err := ParseTLSVersion(c.MinVersion); err != nil {
		return NewConfigValidationError("server.tls.min_version", c.MinVersion, err.Error()).
			WithSuggestion("use 1.2 or 1.3")
	}
	return nil
}

// ServerTLS returns the crypto/tls settings for an enabled config, or nil.
func (c *TLSConfig) ServerTLS() *tls.Config {
	if c == nil || !c.Enabled {
		return nil
	}
	minVersion, err := ParseTLSVersion(c.MinVersion)
	if err != nil {
		minVersion = tls.VersionTLS12
	}
	return &tls.Config{MinVersion: minVersion}
}
