package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/epw-weather-service/internal/epw"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/in", cfg.InputDir)
	assert.Equal(t, "data/out", cfg.OutputDir)
	assert.Equal(t, []epw.Format{epw.FormatJSON}, cfg.OutputFormats)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "epw-documents", cfg.KafkaTopic)
	assert.Equal(t, CatalogSQLite, cfg.CatalogDriver)
	assert.Equal(t, "catalog.db", cfg.CatalogDSN)
	assert.Equal(t, 128, cfg.ConvertCacheSize)
	assert.Equal(t, int64(16<<20), cfg.MaxUploadBytes)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INPUT_DIR", "/srv/epw")
	t.Setenv("OUTPUT_DIR", "/srv/out")
	t.Setenv("OUTPUT_FORMATS", "wea, DDY,json,wea")
	t.Setenv("POLL_INTERVAL", "30s")
	t.Setenv("BATCH_SIZE", "4")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "weather-files")
	t.Setenv("CATALOG_DRIVER", "Postgres")
	t.Setenv("CATALOG_DSN", "postgres://epw@localhost/epw?sslmode=disable")
	t.Setenv("CONVERT_CACHE_SIZE", "8")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/epw", cfg.InputDir)
	assert.Equal(t, "/srv/out", cfg.OutputDir)
	assert.Equal(t, []epw.Format{epw.FormatWEA, epw.FormatDDY, epw.FormatJSON}, cfg.OutputFormats)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "weather-files", cfg.KafkaTopic)
	assert.Equal(t, CatalogPostgres, cfg.CatalogDriver)
	assert.Equal(t, 8, cfg.ConvertCacheSize)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "epw.toml")
	content := `
input_dir = "/data/weather"
output_formats = ["epw", "yaml"]
batch_size = 7
shutdown_timeout = "3s"
catalog_driver = "none"
log_level = "warn"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/weather", cfg.InputDir)
	assert.Equal(t, []epw.Format{epw.FormatEPW, epw.FormatYAML}, cfg.OutputFormats)
	assert.Equal(t, 7, cfg.BatchSize)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, CatalogNone, cfg.CatalogDriver)
	assert.Equal(t, "error", cfg.LogLevel, "environment overrides the file")
}

func TestLoad_ConfigFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CONFIG_FILE")
	})

	t.Run("nested table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "epw.toml")
		require.NoError(t, os.WriteFile(path, []byte("[kafka]\ntopic = \"x\"\n"), 0o600))
		t.Setenv("CONFIG_FILE", path)
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nested tables")
	})
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration", "SHUTDOWN_TIMEOUT"},
		{"POLL_INTERVAL", "-1s", "POLL_INTERVAL"},
		{"BATCH_SIZE", "0", "BATCH_SIZE"},
		{"BATCH_SIZE", "9999", "BATCH_SIZE"},
		{"OUTPUT_FORMATS", "json,pdf", "OUTPUT_FORMATS"},
		{"OUTPUT_FORMATS", " , ", "OUTPUT_FORMATS"},
		{"CONVERT_CACHE_SIZE", "0", "CONVERT_CACHE_SIZE"},
		{"MAX_UPLOAD_BYTES", "lots", "MAX_UPLOAD_BYTES"},
		{"CATALOG_DRIVER", "mysql", "CATALOG_DRIVER"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_CatalogDisabled(t *testing.T) {
	t.Setenv("CATALOG_DRIVER", "none")
	t.Setenv("CATALOG_DSN", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, CatalogNone, cfg.CatalogDriver)
}
