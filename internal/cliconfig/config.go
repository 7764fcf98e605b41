// Package cliconfig holds the CLI configuration for matload and the layered
// loading logic: defaults, then config file, then environment, then flags.
package cliconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/mdm-labs/matload/internal/transport"
)

// Config holds CLI configuration for matload.
type Config struct {
	Method string

	TransactionCode string
	Language        string

	Delay          time.Duration
	ConnectTimeout time.Duration
	SubmitTimeout  time.Duration

	BridgeAddr string

	GatewayURL  string
	RFCHost     string
	RFCSysNr    string
	RFCClient   string
	RFCUser     string
	RFCPassword string

	ReportDir  string
	InputDir   string
	ArchiveDir string

	LogLevel string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Method:          string(transport.MethodGUI),
		TransactionCode: "MM01",
		Language:        "EN",
		Delay:           500 * time.Millisecond,
		ConnectTimeout:  30 * time.Second,
		SubmitTimeout:   2 * time.Minute,
		BridgeAddr:      "127.0.0.1:7512",
		RFCSysNr:        "00",
		RFCClient:       "100",
		ReportDir:       "reports",
		LogLevel:        "info",
		RFCPassword:     os.Getenv("MATLOAD_RFC_PASSWD"),
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := transport.ParseMethod(c.Method); err != nil {
		return err
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive")
	}
	if c.SubmitTimeout <= 0 {
		return fmt.Errorf("submit timeout must be positive")
	}
	if c.ReportDir == "" {
		return fmt.Errorf("report dir is required")
	}

	// Strip a trailing slash so endpoint paths concatenate cleanly.
	if n := len(c.GatewayURL); n > 0 && c.GatewayURL[n-1] == '/' {
		c.GatewayURL = c.GatewayURL[:n-1]
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}
