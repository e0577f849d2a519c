package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/githarvest/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Pipeline.Workers)
	assert.Equal(t, 50, cfg.Pipeline.SimilarityThreshold)
	assert.Equal(t, "file", cfg.Sink.Backend)
	assert.Equal(t, "commits.json", cfg.Sink.Output)
	assert.Equal(t, "json", cfg.Sink.Format)
	assert.False(t, cfg.Sink.Compress)
	assert.Equal(t, "info", cfg.Telemetry.LogLevel)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "githarvest.yaml")

	content := `pipeline:
  workers: 4
  similarity_threshold: 60
sink:
  backend: redis
  redis_addr: localhost:6379
telemetry:
  log_json: true
`

	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 60, cfg.Pipeline.SimilarityThreshold)
	assert.Equal(t, "redis", cfg.Sink.Backend)
	assert.Equal(t, "localhost:6379", cfg.Sink.RedisAddr)
	assert.True(t, cfg.Telemetry.LogJSON)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("GITHARVEST_PIPELINE_WORKERS", "7")
	t.Setenv("GITHARVEST_SINK_FORMAT", "yaml")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Pipeline.Workers)
	assert.Equal(t, "yaml", cfg.Sink.Format)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *config.Config {
		return &config.Config{
			Pipeline: config.PipelineConfig{SimilarityThreshold: 50},
			Sink: config.SinkConfig{
				Backend: "file",
				Output:  "out.json",
				Format:  "json",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr error
	}{
		{
			name:   "valid file backend",
			mutate: func(_ *config.Config) {},
		},
		{
			name: "valid badger backend",
			mutate: func(cfg *config.Config) {
				cfg.Sink.Backend = "badger"
			},
		},
		{
			name: "negative workers",
			mutate: func(cfg *config.Config) {
				cfg.Pipeline.Workers = -1
			},
			wantErr: config.ErrInvalidWorkers,
		},
		{
			name: "threshold too low",
			mutate: func(cfg *config.Config) {
				cfg.Pipeline.SimilarityThreshold = 0
			},
			wantErr: config.ErrInvalidSimilarityThreshold,
		},
		{
			name: "threshold too high",
			mutate: func(cfg *config.Config) {
				cfg.Pipeline.SimilarityThreshold = 101
			},
			wantErr: config.ErrInvalidSimilarityThreshold,
		},
		{
			name: "unknown backend",
			mutate: func(cfg *config.Config) {
				cfg.Sink.Backend = "tape"
			},
			wantErr: config.ErrUnknownBackend,
		},
		{
			name: "file backend without output",
			mutate: func(cfg *config.Config) {
				cfg.Sink.Output = ""
			},
			wantErr: config.ErrMissingOutput,
		},
		{
			name: "file backend with bad format",
			mutate: func(cfg *config.Config) {
				cfg.Sink.Format = "xml"
			},
			wantErr: config.ErrInvalidFormat,
		},
		{
			name: "redis backend without address",
			mutate: func(cfg *config.Config) {
				cfg.Sink.Backend = "redis"
			},
			wantErr: config.ErrMissingRedisAddr,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
		})
	}
}
