package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (MATLOAD_*).
// Env values override the config file but are overridden by flags (checked
// via the changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("method", os.Getenv("MATLOAD_METHOD"), &cfg.Method)
	s.setString("transaction", os.Getenv("MATLOAD_TRANSACTION_CODE"), &cfg.TransactionCode)
	s.setString("language", os.Getenv("MATLOAD_LANGUAGE"), &cfg.Language)

	if err := s.setDuration("delay", os.Getenv("MATLOAD_DELAY"), &cfg.Delay); err != nil {
		return err
	}
	if err := s.setDuration("connect-timeout", os.Getenv("MATLOAD_CONNECT_TIMEOUT"), &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("submit-timeout", os.Getenv("MATLOAD_SUBMIT_TIMEOUT"), &cfg.SubmitTimeout); err != nil {
		return err
	}

	s.setString("bridge-addr", os.Getenv("MATLOAD_BRIDGE_ADDR"), &cfg.BridgeAddr)

	s.setString("gateway-url", os.Getenv("MATLOAD_GATEWAY_URL"), &cfg.GatewayURL)
	s.setString("rfc-ashost", os.Getenv("MATLOAD_RFC_ASHOST"), &cfg.RFCHost)
	s.setString("rfc-sysnr", os.Getenv("MATLOAD_RFC_SYSNR"), &cfg.RFCSysNr)
	s.setString("rfc-client", os.Getenv("MATLOAD_RFC_CLIENT"), &cfg.RFCClient)
	s.setString("rfc-user", os.Getenv("MATLOAD_RFC_USER"), &cfg.RFCUser)
	s.setString("rfc-passwd", os.Getenv("MATLOAD_RFC_PASSWD"), &cfg.RFCPassword)

	s.setString("report-dir", os.Getenv("MATLOAD_REPORT_DIR"), &cfg.ReportDir)
	s.setString("input-dir", os.Getenv("MATLOAD_INPUT_DIR"), &cfg.InputDir)
	s.setString("archive-dir", os.Getenv("MATLOAD_ARCHIVE_DIR"), &cfg.ArchiveDir)

	s.setString("log-level", os.Getenv("MATLOAD_LOG_LEVEL"), &cfg.LogLevel)

	return nil
}
