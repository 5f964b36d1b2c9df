// Package main is the entry point for the pdforge-adapter binary.
// It serves the edge adapter that turns JSON requests into pdforge PDF
// generation calls.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/polisai/pdforge-adapter/pkg/adapter"
	"github.com/polisai/pdforge-adapter/pkg/config"
	"github.com/polisai/pdforge-adapter/pkg/logging"
	"github.com/polisai/pdforge-adapter/pkg/telemetry"
	"github.com/polisai/pdforge-adapter/pkg/transport"
	"github.com/polisai/pdforge-adapter/pkg/upstream"
)

const (
	telemetryShutdownTimeout = 5 * time.Second
	gracefulShutdownTimeout  = 10 * time.Second
	readHeaderTimeout        = 10 * time.Second
)

// version is overridden at build time with -ldflags.
var version = "dev"

// CLIConfig holds the parsed CLI configuration.
type CLIConfig struct {
	ConfigPath   string
	Listen       string
	AdminListen  string
	LogLevel     string
	OTelEndpoint string
	Pretty       bool
}

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for pdforge-adapter.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pdforge-adapter",
		Short: "Edge adapter for pdforge PDF generation",
		Long: `Accepts a JSON document on any path, reads tenant settings from the
x-edgee-component-settings header and relays the pdforge sync API reply.

Example:
  pdforge-adapter --listen :8080 --config adapter.yaml`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runAdapter,
	}

	rootCmd.Flags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.Flags().StringP("listen", "l", "", "Data plane listen address")
	rootCmd.Flags().String("admin-listen", "", "Admin listen address for health and metrics")
	rootCmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().String("otel-endpoint", "", "OTLP gRPC endpoint for traces")
	rootCmd.Flags().Bool("pretty", false, "Human readable console logs")

	return rootCmd
}

// parseCLIConfig parses command line flags into a CLIConfig.
func parseCLIConfig(cmd *cobra.Command) (*CLIConfig, error) {
	flags := cmd.Flags()
	cli := &CLIConfig{}

	var err error
	if cli.ConfigPath, err = flags.GetString("config"); err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if cli.Listen, err = flags.GetString("listen"); err != nil {
		return nil, fmt.Errorf("failed to get listen flag: %w", err)
	}
	if cli.AdminListen, err = flags.GetString("admin-listen"); err != nil {
		return nil, fmt.Errorf("failed to get admin-listen flag: %w", err)
	}
	if cli.LogLevel, err = flags.GetString("log-level"); err != nil {
		return nil, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	if cli.OTelEndpoint, err = flags.GetString("otel-endpoint"); err != nil {
		return nil, fmt.Errorf("failed to get otel-endpoint flag: %w", err)
	}
	if cli.Pretty, err = flags.GetBool("pretty"); err != nil {
		return nil, fmt.Errorf("failed to get pretty flag: %w", err)
	}

	return cli, nil
}

// buildConfig loads the file and environment configuration and applies flag
// overrides on top.
func buildConfig(cli *CLIConfig) (*config.Config, error) {
	cfg, err := config.Load(cli.ConfigPath)
	if err != nil {
		return nil, err
	}

	applyFlagOverrides(cfg, cli)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// applyFlagOverrides gives explicitly set flags precedence over the file and
// the environment. It also runs on every config reload.
func applyFlagOverrides(cfg *config.Config, cli *CLIConfig) {
	if cli.Listen != "" {
		cfg.Server.DataAddress = cli.Listen
	}
	if cli.AdminListen != "" {
		cfg.Server.AdminAddress = cli.AdminListen
	}
	if cli.LogLevel != "" {
		cfg.Logging.Level = cli.LogLevel
	}
	if cli.OTelEndpoint != "" {
		cfg.Telemetry.OTLPEndpoint = cli.OTelEndpoint
	}
	if cli.Pretty {
		cfg.Logging.Pretty = true
	}
}

// runAdapter is the main entry point for the root command.
func runAdapter(cmd *cobra.Command, _ []string) error {
	cli, err := parseCLIConfig(cmd)
	if err != nil {
		return err
	}

	cfg, err := buildConfig(cli)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, cli, logger)
}

// run orchestrates the application lifecycle until ctx is cancelled or a
// server fails.
func run(ctx context.Context, cfg *config.Config, cli *CLIConfig, logger *slog.Logger) error {
	metrics := transport.NewMetrics()

	telemetryShutdown, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		Environment:    os.Getenv("ADAPTER_ENVIRONMENT"),
		SampleRatio:    cfg.Telemetry.SampleRatio,
		Registerer:     metrics.Registry(),
	})
	if err != nil {
		return fmt.Errorf("telemetry initialization failed: %w", err)
	}
	defer shutdownTelemetry(telemetryShutdown, logger)

	if cli.ConfigPath != "" {
		watcher, err := config.NewWatcher(config.WatcherConfig{
			Path:      cli.ConfigPath,
			Apply:     config.ApplyLogLevel,
			Overrides: func(c *config.Config) { applyFlagOverrides(c, cli) },
			Logger:    logger,
			OnResult:  metrics.RecordConfigReload,
		})
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("config watcher disabled", "error", err)
		}
		defer func() { _ = watcher.Stop() }()
	}

	dataSrv := newDataServer(cfg, metrics, logger)
	adminSrv := &http.Server{
		Addr:              cfg.Server.AdminAddress,
		Handler:           transport.NewAdminRouter(metrics),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 2)
	serve := func(name string, srv *http.Server, tlsCfg *config.TLSConfig) {
		logger.Info("server listening", "server", name, "address", srv.Addr, "tls", srv.TLSConfig != nil)
		var err error
		if srv.TLSConfig != nil {
			err = srv.ListenAndServeTLS(tlsCfg.CertFile, tlsCfg.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
	}
	go serve("admin", adminSrv, nil)
	go serve("data", dataSrv, cfg.Server.TLS)

	logger.Info("pdforge adapter started",
		"version", version,
		"log_level", cfg.Logging.Level,
	)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case runErr = <-errCh:
		logger.Error("server failed", "error", runErr)
	}

	shutdownServer(dataSrv, "data", logger)
	shutdownServer(adminSrv, "admin", logger)

	logger.Info("pdforge adapter stopped")
	return runErr
}

// newDataServer wires upstream client, component and transport into the data
// plane server.
func newDataServer(cfg *config.Config, metrics *transport.Metrics, logger *slog.Logger) *http.Server {
	client := upstream.NewHTTPClient(upstream.Config{
		Endpoint: cfg.Upstream.Endpoint,
		Logger:   logger.With("component", "upstream"),
	})
	logger.Info("pdforge upstream configured", "endpoint", client.Endpoint())

	component := adapter.NewComponent(adapter.ComponentConfig{
		Client: client,
		Logger: logger.With("component", "adapter"),
	})

	handler := transport.NewHandler(transport.HandlerConfig{
		Component:    component,
		Logger:       logger,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	return &http.Server{
		Addr:              cfg.Server.DataAddress,
		Handler:           otelhttp.NewHandler(transport.NewDataRouter(handler, metrics), "adapter.data"),
		ReadHeaderTimeout: readHeaderTimeout,
		TLSConfig:         cfg.Server.TLS.ServerTLS(),
	}
}

func shutdownServer(srv *http.Server, name string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "server", name, "error", err)
	}
}

func shutdownTelemetry(shutdown func(context.Context) error, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}
}
