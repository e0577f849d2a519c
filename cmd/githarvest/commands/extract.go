// Package commands implements CLI command handlers for githarvest.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/githarvest/githarvest/internal/config"
	"github.com/githarvest/githarvest/internal/extract"
	"github.com/githarvest/githarvest/internal/observability"
	"github.com/githarvest/githarvest/internal/sink"
	"github.com/githarvest/githarvest/pkg/version"
)

// metricsReadHeaderTimeout bounds header reads on the scrape endpoint.
const metricsReadHeaderTimeout = 5 * time.Second

// ExtractCommand holds configuration and dependencies for the extract command.
type ExtractCommand struct {
	configPath string
	path       string

	workers             int
	similarityThreshold int

	backend       string
	output        string
	format        string
	compress      bool
	redisAddr     string
	redisPassword string
	redisDB       int
	badgerDir     string

	metricsListen string
	otlpEndpoint  string
	otlpHeaders   string
	otlpInsecure  bool
	logJSON       bool
	verbose       bool
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	ec := &ExtractCommand{}

	cmd := &cobra.Command{
		Use:   "extract [path]",
		Short: "Extract commit history from a git repository",
		Long: `Extract walks every branch and tag of the repository at the given path
(default: current directory), attributes each commit to its branches and
tags, classifies file changes with rename and copy detection and stores the
resulting records in the selected backend.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ec.path = "."
			if len(args) > 0 {
				ec.path = args[0]
			}

			return ec.run(cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&ec.configPath, "config", "c", "", "config file path")
	flags.IntVarP(&ec.workers, "workers", "w", config.DefaultWorkers, "number of diff workers (0 = number of CPUs)")
	flags.IntVar(&ec.similarityThreshold, "similarity-threshold", config.DefaultSimilarityThreshold, "rename/copy detection threshold in percent")
	flags.StringVarP(&ec.backend, "sink", "s", config.DefaultBackend, "output backend: file, redis or badger")
	flags.StringVarP(&ec.output, "output", "o", config.DefaultOutput, "output path for the file backend")
	flags.StringVarP(&ec.format, "format", "f", config.DefaultFormat, "file backend encoding: json or yaml")
	flags.BoolVar(&ec.compress, "compress", false, "lz4-compress the file backend output")
	flags.StringVar(&ec.redisAddr, "redis-addr", "", "redis address (host:port) for the redis backend")
	flags.StringVar(&ec.redisPassword, "redis-password", "", "redis password")
	flags.IntVar(&ec.redisDB, "redis-db", 0, "redis logical database")
	flags.StringVar(&ec.badgerDir, "badger-dir", "", "badger directory (empty = in-memory)")
	flags.StringVar(&ec.metricsListen, "metrics-listen", "", "host:port for the Prometheus scrape endpoint")
	flags.StringVar(&ec.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector address")
	flags.StringVar(&ec.otlpHeaders, "otlp-headers", "", "OTLP headers as key=value,key=value")
	flags.BoolVar(&ec.otlpInsecure, "otlp-insecure", false, "disable TLS for the OTLP connection")
	flags.BoolVar(&ec.logJSON, "log-json", false, "JSON-formatted log output")
	flags.BoolVarP(&ec.verbose, "verbose", "v", false, "debug-level logging")

	return cmd
}

func (ec *ExtractCommand) run(cmd *cobra.Command) error {
	cfg, err := ec.loadConfig(cmd)
	if err != nil {
		return err
	}

	providers, err := observability.Init(observability.Config{
		ServiceName:      "githarvest",
		ServiceVersion:   version.Version,
		OTLPEndpoint:     cfg.Telemetry.OTLPEndpoint,
		OTLPHeaders:      observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders),
		OTLPInsecure:     cfg.Telemetry.OTLPInsecure,
		EnablePrometheus: cfg.Telemetry.MetricsListen != "",
		LogLevel:         logLevel(cfg.Telemetry.LogLevel, ec.verbose),
		LogJSON:          cfg.Telemetry.LogJSON,
	})
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	ctx := cmd.Context()

	defer func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown", "error", shutdownErr)
		}
	}()

	metrics, err := observability.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create pipeline metrics: %w", err)
	}

	stopMetrics := ec.serveMetrics(cfg, providers)
	defer stopMetrics()

	extractor, err := extract.New(extract.Config{
		RepoPath:            ec.path,
		Workers:             cfg.Pipeline.Workers,
		SimilarityThreshold: cfg.Pipeline.SimilarityThreshold,
		Logger:              providers.Logger,
		Tracer:              providers.Tracer,
		Metrics:             metrics,
	})
	if err != nil {
		return err
	}
	defer extractor.Close()

	repo := extractor.Repository()
	providers.Logger.Info("repository discovered",
		"path", repo.Path(), "project", repo.ProjectName(), "url", repo.ProjectURL())

	out, err := sink.New(cfg.Sink.Backend, sink.Config{
		ProjectName:   repo.ProjectName(),
		ProjectURL:    repo.ProjectURL(),
		Output:        cfg.Sink.Output,
		Format:        cfg.Sink.Format,
		Compress:      cfg.Sink.Compress,
		RedisAddr:     cfg.Sink.RedisAddr,
		RedisPassword: cfg.Sink.RedisPassword,
		RedisDB:       cfg.Sink.RedisDB,
		BadgerDir:     cfg.Sink.BadgerDir,
	})
	if err != nil {
		return fmt.Errorf("create %s sink: %w", cfg.Sink.Backend, err)
	}

	stats, runErr := extractor.Run(ctx, out)

	closeErr := out.Close()
	if runErr != nil {
		return errors.Join(runErr, closeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close sink: %w", closeErr)
	}

	color.New(color.FgGreen).Fprintf(os.Stdout, "Extracted %s commits in %s\n",
		humanize.Comma(int64(stats.Commits)), stats.Duration.Round(time.Millisecond))

	return nil
}

// loadConfig loads the layered configuration, then lets explicitly set flags
// override it.
func (ec *ExtractCommand) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(ec.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("workers") {
		cfg.Pipeline.Workers = ec.workers
	}

	if flags.Changed("similarity-threshold") {
		cfg.Pipeline.SimilarityThreshold = ec.similarityThreshold
	}

	if flags.Changed("sink") {
		cfg.Sink.Backend = ec.backend
	}

	if flags.Changed("output") {
		cfg.Sink.Output = ec.output
	}

	if flags.Changed("format") {
		cfg.Sink.Format = ec.format
	}

	if flags.Changed("compress") {
		cfg.Sink.Compress = ec.compress
	}

	if flags.Changed("redis-addr") {
		cfg.Sink.RedisAddr = ec.redisAddr
	}

	if flags.Changed("redis-password") {
		cfg.Sink.RedisPassword = ec.redisPassword
	}

	if flags.Changed("redis-db") {
		cfg.Sink.RedisDB = ec.redisDB
	}

	if flags.Changed("badger-dir") {
		cfg.Sink.BadgerDir = ec.badgerDir
	}

	if flags.Changed("metrics-listen") {
		cfg.Telemetry.MetricsListen = ec.metricsListen
	}

	if flags.Changed("otlp-endpoint") {
		cfg.Telemetry.OTLPEndpoint = ec.otlpEndpoint
	}

	if flags.Changed("otlp-headers") {
		cfg.Telemetry.OTLPHeaders = ec.otlpHeaders
	}

	if flags.Changed("otlp-insecure") {
		cfg.Telemetry.OTLPInsecure = ec.otlpInsecure
	}

	if flags.Changed("log-json") {
		cfg.Telemetry.LogJSON = ec.logJSON
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// serveMetrics starts the Prometheus scrape endpoint when configured and
// returns a stop function.
func (ec *ExtractCommand) serveMetrics(cfg *config.Config, providers observability.Providers) func() {
	if cfg.Telemetry.MetricsListen == "" || providers.MetricsHandler == nil {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", providers.MetricsHandler)

	server := &http.Server{
		Addr:              cfg.Telemetry.MetricsListen,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			providers.Logger.Warn("metrics server", "error", err)
		}
	}()

	return func() {
		_ = server.Close()
	}
}

func logLevel(level string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
