package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations and groups the
// keys into the sections operators know from the target system's tooling.
type FileConfig struct {
	SAP struct {
		TransactionCode string `toml:"transaction_code"`
		Language        string `toml:"language"`
	} `toml:"sap"`

	Automation struct {
		DelayBetweenActions string `toml:"delay_between_actions"`
		ConnectTimeout      string `toml:"connect_timeout"`
		SubmitTimeout       string `toml:"submit_timeout"`
	} `toml:"automation"`

	GUI struct {
		BridgeAddr string `toml:"bridge_addr"`
	} `toml:"gui"`

	RFC struct {
		GatewayURL string `toml:"gateway_url"`
		Host       string `toml:"ashost"`
		SysNr      string `toml:"sysnr"`
		Client     string `toml:"client"`
		User       string `toml:"user"`
		Password   string `toml:"passwd"`
	} `toml:"rfc"`

	Report struct {
		Dir string `toml:"dir"`
	} `toml:"report"`

	Watch struct {
		InputDir   string `toml:"input_dir"`
		ArchiveDir string `toml:"archive_dir"`
	} `toml:"watch"`

	Logging struct {
		Level string `toml:"level"`
	} `toml:"logging"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.matload/config.toml if the user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".matload", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("transaction", fc.SAP.TransactionCode, &cfg.TransactionCode)
	s.setString("language", fc.SAP.Language, &cfg.Language)

	if err := s.setDuration("delay", fc.Automation.DelayBetweenActions, &cfg.Delay); err != nil {
		return err
	}
	if err := s.setDuration("connect-timeout", fc.Automation.ConnectTimeout, &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("submit-timeout", fc.Automation.SubmitTimeout, &cfg.SubmitTimeout); err != nil {
		return err
	}

	s.setString("bridge-addr", fc.GUI.BridgeAddr, &cfg.BridgeAddr)

	s.setString("gateway-url", fc.RFC.GatewayURL, &cfg.GatewayURL)
	s.setString("rfc-ashost", fc.RFC.Host, &cfg.RFCHost)
	s.setString("rfc-sysnr", fc.RFC.SysNr, &cfg.RFCSysNr)
	s.setString("rfc-client", fc.RFC.Client, &cfg.RFCClient)
	s.setString("rfc-user", fc.RFC.User, &cfg.RFCUser)
	s.setString("rfc-passwd", fc.RFC.Password, &cfg.RFCPassword)

	s.setString("report-dir", fc.Report.Dir, &cfg.ReportDir)
	s.setString("input-dir", fc.Watch.InputDir, &cfg.InputDir)
	s.setString("archive-dir", fc.Watch.ArchiveDir, &cfg.ArchiveDir)

	s.setString("log-level", fc.Logging.Level, &cfg.LogLevel)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
