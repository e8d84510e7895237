package config

import (
	"crypto/tls"
	"fmt"
	"os"
)

const (
	TLSModeDisabled = "disabled"
	TLSModeServer   = "server"
)

// TLSConfig holds server TLS configuration
type TLSConfig struct {
	Mode       string `mapstructure:"mode"`       // "disabled" or "server"
	CertFile   string `mapstructure:"certFile"`   // PEM certificate
	KeyFile    string `mapstructure:"keyFile"`    // PEM private key
	MinVersion string `mapstructure:"minVersion"` // "1.2" or "1.3"
}

// Enabled reports whether the server should terminate TLS.
func (t TLSConfig) Enabled() bool {
	return t.Mode == TLSModeServer
}

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	t := c.Server.TLS

	switch t.Mode {
	case TLSModeDisabled, "":
		return nil
	case TLSModeServer:
		if t.CertFile == "" || t.KeyFile == "" {
			return fmt.Errorf("TLS certFile and keyFile are required for server mode")
		}
		for _, path := range []string{t.CertFile, t.KeyFile} {
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("TLS file not accessible: %w", err)
			}
		}
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled' or 'server')", t.Mode)
	}

	if _, err := parseTLSVersion(t.MinVersion); err != nil {
		return err
	}
	return nil
}

// BuildServerTLSConfig loads the certificate pair into a *tls.Config.
func (t TLSConfig) BuildServerTLSConfig() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS key pair: %w", err)
	}
	minVersion, err := parseTLSVersion(t.MinVersion)
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   minVersion,
	}, nil
}

func parseTLSVersion(version string) (uint16, error) {
	switch version {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", version)
	}
}
