package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/OCAP2/extractor/internal/config"
	"github.com/OCAP2/extractor/internal/geo"
	"github.com/OCAP2/extractor/internal/logging"
	ocapotel "github.com/OCAP2/extractor/internal/otel"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// AppName names the log file, the metrics service and the config file.
const AppName = "ocap_extract"

// BuildVersion is set at link time.
var BuildVersion = "dev"

// app carries what every command needs once the root pre-run has loaded
// the configuration.
type app struct {
	configDir   string
	storageType string
	metricsFile string

	sessionStart time.Time
	logs         *logging.Manager
	logger       zerolog.Logger
	registry     *geo.Registry
	metrics      *ocapotel.Provider
	metricsOut   io.Closer
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:           AppName,
		Short:         "Extract unit groups and positions from mission, telemetry and flight plan files",
		Version:       BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", ".", "directory holding "+config.FileName)
	root.PersistentFlags().StringVar(&a.storageType, "storage", "", "result sink: memory, msgpack, sqlite, postgres or influx (overrides config)")
	root.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "write extraction metrics to this file on exit")

	root.AddCommand(extractCmd(a), batchCmd(a), theatersCmd(a))
	return root, a
}

// setup loads configuration, then logging, the theater registry and
// metrics, in that order.
func (a *app) setup(console io.Writer) error {
	a.sessionStart = time.Now()

	cfgErr := config.Load(a.configDir)
	if cfgErr != nil && !errors.Is(cfgErr, config.ErrNotFound) {
		return cfgErr
	}
	if a.storageType != "" {
		config.Set("storage.type", a.storageType)
	}

	logCfg := config.GetLoggingConfig()
	opts := logging.Options{
		Level:        logCfg.Level,
		Dir:          logCfg.Dir,
		Name:         AppName,
		SessionStart: a.sessionStart,
		Console:      console,
	}
	if logCfg.GraylogEnabled {
		opts.GraylogAddress = logCfg.GraylogAddress
	}
	logs, err := logging.Setup(opts)
	if err != nil {
		return err
	}
	a.logs = logs
	a.logger = logs.Logger
	if cfgErr != nil {
		a.logger.Warn().Err(cfgErr).Msg("Using default configuration")
	}

	if file := config.GetString("theaters.file"); file != "" {
		a.registry, err = geo.NewRegistryWithFile(file)
	} else {
		a.registry, err = geo.NewRegistry()
	}
	if err != nil {
		return fmt.Errorf("loading theaters: %w", err)
	}

	metricsCfg := ocapotel.Config{ServiceName: AppName}
	if a.metricsFile != "" {
		if err := os.MkdirAll(filepath.Dir(a.metricsFile), 0755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
		f, err := os.Create(a.metricsFile)
		if err != nil {
			return fmt.Errorf("failed to create metrics file: %w", err)
		}
		a.metricsOut = f
		metricsCfg.Enabled = true
		metricsCfg.Writer = f
	}
	a.metrics, err = ocapotel.New(metricsCfg)
	if err != nil {
		return err
	}

	a.logger.Debug().Str("version", BuildVersion).Str("configDir", a.configDir).Msg("Initialized")
	return nil
}

// close flushes metrics and logs. It is safe to call after a failed setup.
func (a *app) close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to flush metrics")
		}
		cancel()
	}
	if a.metricsOut != nil {
		_ = a.metricsOut.Close()
	}
	if a.logs != nil {
		_ = a.logs.Close()
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root, a := newRootCmd()
	defer a.close()

	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
