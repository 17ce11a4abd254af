package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/epw-weather-service/internal/epw"
)

// Catalog drivers accepted by CATALOG_DRIVER.
const (
	CatalogSQLite   = "sqlite"
	CatalogPostgres = "postgres"
	CatalogNone     = "none"
)

// Config holds all service settings, populated from environment variables
// and an optional TOML file named by CONFIG_FILE.
type Config struct {
	InputDir      string
	OutputDir     string
	OutputFormats []epw.Format
	PollInterval  time.Duration
	BatchSize     int

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	CatalogDriver string
	CatalogDSN    string

	// HTTP conversion API limits.
	ConvertCacheSize int
	MaxUploadBytes   int64
}

// Load reads configuration, applying defaults where unset. Environment
// variables take precedence over the config file.
func Load() (*Config, error) {
	file, err := readFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := file.duration("SHUTDOWN_TIMEOUT", sharedcfg.ParseShutdownTimeout)
	if err != nil {
		return nil, err
	}
	pollInterval, err := parseDuration("POLL_INTERVAL", file.get("POLL_INTERVAL", "5s"))
	if err != nil {
		return nil, err
	}
	batchSize, err := file.batchSize()
	if err != nil {
		return nil, err
	}
	formats, err := parseFormats(file.get("OUTPUT_FORMATS", "json"))
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("CONVERT_CACHE_SIZE", file.get("CONVERT_CACHE_SIZE", "128"))
	if err != nil {
		return nil, err
	}
	maxUpload, err := parsePositiveInt("MAX_UPLOAD_BYTES", file.get("MAX_UPLOAD_BYTES", "16777216"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputDir:      file.get("INPUT_DIR", "data/in"),
		OutputDir:     file.get("OUTPUT_DIR", "data/out"),
		OutputFormats: formats,
		PollInterval:  pollInterval,
		BatchSize:     batchSize,

		HTTPAddr:        file.get("HTTP_ADDR", ":8080"),
		LogLevel:        file.get("LOG_LEVEL", "info"),
		LogFormat:       file.get("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled: file.get("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(file.get("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   file.get("KAFKA_TOPIC", "epw-documents"),

		CatalogDriver: strings.ToLower(file.get("CATALOG_DRIVER", CatalogSQLite)),
		CatalogDSN:    file.get("CATALOG_DSN", "catalog.db"),

		ConvertCacheSize: cacheSize,
		MaxUploadBytes:   int64(maxUpload),
	}

	if cfg.InputDir == "" {
		return nil, errors.New("INPUT_DIR is required")
	}
	if cfg.OutputDir == "" {
		return nil, errors.New("OUTPUT_DIR is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}
	switch cfg.CatalogDriver {
	case CatalogSQLite, CatalogPostgres:
		if cfg.CatalogDSN == "" {
			return nil, errors.New("CATALOG_DSN is required")
		}
	case CatalogNone:
	default:
		return nil, fmt.Errorf("invalid CATALOG_DRIVER %q", cfg.CatalogDriver)
	}

	return cfg, nil
}

// fileValues holds settings read from the TOML file, keyed by the
// environment variable they stand in for.
type fileValues map[string]string

// readFile decodes a flat TOML table. Keys are matched case-insensitively
// against environment variable names, so batch_size sets BATCH_SIZE.
func readFile(path string) (fileValues, error) {
	values := fileValues{}
	if path == "" {
		return values, nil
	}
	var raw map[string]any
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("read CONFIG_FILE %s: %w", path, err)
	}
	for k, v := range raw {
		key := strings.ToUpper(k)
		switch tv := v.(type) {
		case []any:
			parts := make([]string, len(tv))
			for i, item := range tv {
				parts[i] = fmt.Sprint(item)
			}
			values[key] = strings.Join(parts, ",")
		case map[string]any:
			return nil, fmt.Errorf("read CONFIG_FILE %s: key %q: nested tables are not supported", path, k)
		default:
			values[key] = fmt.Sprint(tv)
		}
	}
	return values, nil
}

// get returns the environment value for key, else the file value, else def.
func (f fileValues) get(key, def string) string {
	if v, ok := f[key]; ok && v != "" {
		def = v
	}
	return sharedcfg.EnvOrDefault(key, def)
}

// fromFile reports whether key is set by the file and not by the environment.
func (f fileValues) fromFile(key string) bool {
	_, ok := f[key]
	return ok && os.Getenv(key) == ""
}

func (f fileValues) duration(key string, fromEnv func() (time.Duration, error)) (time.Duration, error) {
	if f.fromFile(key) {
		return parseDuration(key, f[key])
	}
	return fromEnv()
}

func (f fileValues) batchSize() (int, error) {
	if f.fromFile("BATCH_SIZE") {
		return parsePositiveInt("BATCH_SIZE", f["BATCH_SIZE"])
	}
	return sharedcfg.ParseBatchSize()
}

func parseDuration(key, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}

func parsePositiveInt(key, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}

func parseFormats(s string) ([]epw.Format, error) {
	var out []epw.Format
	seen := map[epw.Format]bool{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := epw.ParseFormat(part)
		if err != nil {
			return nil, fmt.Errorf("invalid OUTPUT_FORMATS: %w", err)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("OUTPUT_FORMATS is required")
	}
	return out, nil
}
