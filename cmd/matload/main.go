package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/mdm-labs/matload/internal/batch"
	"github.com/mdm-labs/matload/internal/cliconfig"
	"github.com/mdm-labs/matload/internal/domain"
	"github.com/mdm-labs/matload/internal/input"
	"github.com/mdm-labs/matload/internal/report"
	"github.com/mdm-labs/matload/internal/transport"
	"github.com/mdm-labs/matload/internal/transport/guiscript"
	"github.com/mdm-labs/matload/internal/transport/rfc"
	"github.com/mdm-labs/matload/internal/validate"
	"github.com/mdm-labs/matload/internal/watch"
)

const helpDescription = `
Create SAP material master records in bulk from CSV or XLSX files.

Highlights:
  - Validates every record before it touches SAP; invalid rows never leave the machine.
  - Submits via GUI scripting (MM01) or an RFC gateway (BAPI_MATERIAL_SAVEDATA).
  - One bad record never stops the batch; every row gets an audited outcome.
  - Configure via file, environment, or flags.
`

var longHelp = strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  matload materials.csv --method gui --bridge-addr 127.0.0.1:7512
  matload materials.xlsx --method rfc --gateway-url https://rfc-gw.internal:8443 --rfc-user RFC_BATCH
  matload validate materials.csv
  matload watch --input-dir /srv/matload/inbox
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// resolveConfig layers file config and environment under any flags the user
// set explicitly, then validates the result and applies the log level.
func resolveConfig(cmd *cobra.Command, cfgPath string, cfg *cliconfig.Config) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	return cliconfig.SetLogLevel(cfg.LogLevel)
}

func buildTransport(cfg cliconfig.Config, log zerolog.Logger) (transport.Transport, error) {
	method, err := transport.ParseMethod(cfg.Method)
	if err != nil {
		return nil, err
	}
	switch method {
	case transport.MethodGUI:
		return guiscript.New(guiscript.Config{
			TransactionCode: cfg.TransactionCode,
			Delay:           cfg.Delay,
		}, guiscript.NewBridgeDialer(cfg.BridgeAddr), log)
	case transport.MethodRFC:
		return rfc.New(rfc.Config{
			GatewayURL: cfg.GatewayURL,
			Logon: rfc.Logon{
				Host:     cfg.RFCHost,
				SysNr:    cfg.RFCSysNr,
				Client:   cfg.RFCClient,
				User:     cfg.RFCUser,
				Password: cfg.RFCPassword,
				Language: cfg.Language,
			},
			Timeout: cfg.SubmitTimeout,
		}, log)
	default:
		return nil, fmt.Errorf("unknown method %q", cfg.Method)
	}
}

// runBatch processes a single input file end to end: read, submit, report.
func runBatch(ctx context.Context, cfg cliconfig.Config, log zerolog.Logger, path string) (domain.BatchResult, error) {
	records, err := input.Read(path)
	if err != nil {
		return domain.BatchResult{}, fmt.Errorf("read input: %w", err)
	}
	log.Info().Str("file", path).Int("records", len(records)).Str("method", cfg.Method).Msg("starting batch")

	tr, err := buildTransport(cfg, log)
	if err != nil {
		return domain.BatchResult{}, err
	}

	orch := batch.New(batch.Config{
		ConnectTimeout: cfg.ConnectTimeout,
		SubmitTimeout:  cfg.SubmitTimeout,
	}, log)
	result := orch.Run(ctx, records, tr)

	reporter, err := report.NewFileReporter(cfg.ReportDir, log)
	if err != nil {
		return domain.BatchResult{}, err
	}
	if err := reporter.Report(result); err != nil {
		return domain.BatchResult{}, fmt.Errorf("write report: %w", err)
	}
	return result, nil
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	// Set when a command completed but some records (or the whole batch)
	// failed, so the process can exit non-zero without an error message.
	failed := false

	root := &cobra.Command{
		Use:     "matload <input-file>",
		Short:   "Create SAP material master records in bulk from CSV or XLSX files",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveConfig(cmd, cfgPath, &cfg); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			logCfg := cfg
			if len(logCfg.RFCPassword) > 0 {
				logCfg.RFCPassword = "*****"
			}
			log.Info().Interface("config", logCfg).Msg("configuration")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := runBatch(ctx, cfg, log, args[0])
			if err != nil {
				return err
			}
			if !result.AllSucceeded() {
				failed = true
			}
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate <input-file>",
		Short: "Validate an input file without contacting SAP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveConfig(cmd, cfgPath, &cfg); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			records, err := input.Read(args[0])
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			invalid := 0
			for i, rec := range records {
				res := validate.Validate(rec)
				if res.Valid {
					continue
				}
				invalid++
				log.Warn().
					Int("record", i+1).
					Str("material", rec.MaterialNumber).
					Strs("violations", res.Violations).
					Msg("validation failed")
			}
			log.Info().
				Int("total", len(records)).
				Int("valid", len(records)-invalid).
				Int("invalid", invalid).
				Msg("validation complete")
			if invalid > 0 {
				failed = true
			}
			return nil
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and process dropped input files as batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolveConfig(cmd, cfgPath, &cfg); err != nil {
				return err
			}
			cmd.SilenceUsage = true
			if cfg.InputDir == "" {
				return errors.New("watch requires --input-dir")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, err := watch.New(watch.Config{
				InputDir:   cfg.InputDir,
				ArchiveDir: cfg.ArchiveDir,
			}, func(ctx context.Context, path string) error {
				result, err := runBatch(ctx, cfg, log, path)
				if err != nil {
					return err
				}
				if result.Status != domain.BatchCompleted {
					return fmt.Errorf("batch %s", result.Status)
				}
				return nil
			}, log)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}

	root.AddCommand(validateCmd, watchCmd)

	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.matload/config.toml)")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")

	root.Flags().StringVar(&cfg.Method, "method", cfg.Method, "submission method: gui or rfc")
	root.Flags().StringVar(&cfg.TransactionCode, "transaction", cfg.TransactionCode, "SAP transaction code for GUI scripting")
	root.Flags().StringVar(&cfg.Language, "language", cfg.Language, "logon and description language")
	root.Flags().DurationVar(&cfg.Delay, "delay", cfg.Delay, "delay between GUI scripting actions")
	root.Flags().DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "timeout for establishing the SAP connection")
	root.Flags().DurationVar(&cfg.SubmitTimeout, "submit-timeout", cfg.SubmitTimeout, "timeout for submitting a single record")
	root.Flags().StringVar(&cfg.BridgeAddr, "bridge-addr", cfg.BridgeAddr, "address of the GUI scripting bridge")
	root.Flags().StringVar(&cfg.GatewayURL, "gateway-url", cfg.GatewayURL, "base URL of the RFC gateway")
	root.Flags().StringVar(&cfg.RFCHost, "rfc-ashost", cfg.RFCHost, "SAP application server host")
	root.Flags().StringVar(&cfg.RFCSysNr, "rfc-sysnr", cfg.RFCSysNr, "SAP system number")
	root.Flags().StringVar(&cfg.RFCClient, "rfc-client", cfg.RFCClient, "SAP client")
	root.Flags().StringVar(&cfg.RFCUser, "rfc-user", cfg.RFCUser, "SAP RFC user")
	root.Flags().StringVar(&cfg.RFCPassword, "rfc-passwd", cfg.RFCPassword, "SAP RFC password (prefer MATLOAD_RFC_PASSWD)")
	root.Flags().StringVar(&cfg.ReportDir, "report-dir", cfg.ReportDir, "directory for batch result reports")

	watchCmd.Flags().StringVar(&cfg.Method, "method", cfg.Method, "submission method: gui or rfc")
	watchCmd.Flags().StringVar(&cfg.InputDir, "input-dir", cfg.InputDir, "directory to watch for input files")
	watchCmd.Flags().StringVar(&cfg.ArchiveDir, "archive-dir", cfg.ArchiveDir, "directory for processed input files (default: <input-dir>/archive)")
	watchCmd.Flags().StringVar(&cfg.BridgeAddr, "bridge-addr", cfg.BridgeAddr, "address of the GUI scripting bridge")
	watchCmd.Flags().StringVar(&cfg.GatewayURL, "gateway-url", cfg.GatewayURL, "base URL of the RFC gateway")
	watchCmd.Flags().StringVar(&cfg.ReportDir, "report-dir", cfg.ReportDir, "directory for batch result reports")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("matload")
		os.Exit(1)
	}
	if failed {
		os.Exit(1)
	}
}
