// Package config loads and validates the githarvest configuration from
// file, environment and defaults.
package config

import (
	"errors"

	"github.com/githarvest/githarvest/internal/extract"
	"github.com/githarvest/githarvest/internal/sink"
)

// Default values applied before any file or environment override.
const (
	// DefaultWorkers of zero lets the pipeline pick the CPU count.
	DefaultWorkers = 0

	DefaultSimilarityThreshold = extract.DefaultSimilarityThreshold
	DefaultBackend             = "file"
	DefaultOutput              = "commits.json"
	DefaultFormat              = sink.FormatJSON
)

// maxSimilarityThreshold is the largest meaningful percentage threshold.
const maxSimilarityThreshold = 100

// Config is the top-level configuration struct for githarvest.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Sink      SinkConfig      `mapstructure:"sink"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// PipelineConfig holds extraction pipeline knobs.
type PipelineConfig struct {
	// Workers is the number of parallel diff workers. Zero selects the
	// number of CPUs.
	Workers int `mapstructure:"workers"`

	// SimilarityThreshold is the rename and copy detection threshold in
	// percent.
	SimilarityThreshold int `mapstructure:"similarity_threshold"`
}

// SinkConfig selects and configures the output backend.
type SinkConfig struct {
	Backend string `mapstructure:"backend"`

	Output   string `mapstructure:"output"`
	Format   string `mapstructure:"format"`
	Compress bool   `mapstructure:"compress"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`

	BadgerDir string `mapstructure:"badger_dir"`
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables export.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// OTLPHeaders is a "key=value,key=value" header string for the exporter.
	OTLPHeaders string `mapstructure:"otlp_headers"`

	// OTLPInsecure disables TLS for the OTLP connection.
	OTLPInsecure bool `mapstructure:"otlp_insecure"`

	// MetricsListen is the host:port of the Prometheus scrape endpoint.
	// Empty disables the endpoint.
	MetricsListen string `mapstructure:"metrics_listen"`

	// LogJSON enables JSON-formatted log output.
	LogJSON bool `mapstructure:"log_json"`

	// LogLevel is the minimum log severity: debug, info, warn or error.
	LogLevel string `mapstructure:"log_level"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("pipeline.workers must be non-negative")
	// ErrInvalidSimilarityThreshold indicates the threshold is out of range.
	ErrInvalidSimilarityThreshold = errors.New("pipeline.similarity_threshold must be between 1 and 100")
	// ErrUnknownBackend indicates the sink backend is not registered.
	ErrUnknownBackend = errors.New("sink.backend is not a registered backend")
	// ErrInvalidFormat indicates the file format is unsupported.
	ErrInvalidFormat = errors.New("sink.format must be json or yaml")
	// ErrMissingOutput indicates the file backend has no output path.
	ErrMissingOutput = errors.New("sink.output must be set for the file backend")
	// ErrMissingRedisAddr indicates the redis backend has no address.
	ErrMissingRedisAddr = errors.New("sink.redis_addr must be set for the redis backend")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Pipeline.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Pipeline.SimilarityThreshold < 1 || c.Pipeline.SimilarityThreshold > maxSimilarityThreshold {
		return ErrInvalidSimilarityThreshold
	}

	return c.validateSink()
}

func (c *Config) validateSink() error {
	switch c.Sink.Backend {
	case "file":
		if c.Sink.Output == "" {
			return ErrMissingOutput
		}

		if c.Sink.Format != sink.FormatJSON && c.Sink.Format != sink.FormatYAML {
			return ErrInvalidFormat
		}
	case "redis":
		if c.Sink.RedisAddr == "" {
			return ErrMissingRedisAddr
		}
	case "badger":
	default:
		return ErrUnknownBackend
	}

	return nil
}
