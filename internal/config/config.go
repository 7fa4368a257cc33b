package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"stockdash/internal/dataprocessing"
	"stockdash/pkg/contracts/domain"
)

// EnvPrefix namespaces every environment variable, e.g. STOCKDASH_SERVER_PORT.
const EnvPrefix = "STOCKDASH"

// ConfigFileEnv names the variable that points at an explicit YAML file.
const ConfigFileEnv = "STOCKDASH_CONFIG"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Upload    UploadConfig    `yaml:"upload" envconfig:"UPLOAD"`
	Session   SessionConfig   `yaml:"session" envconfig:"SESSION"`
	Normalize NormalizeConfig `yaml:"normalize" envconfig:"NORMALIZE"`
	Layouts   LayoutsConfig   `yaml:"layouts" ignored:"true"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// UploadConfig bounds uploaded reports.
type UploadConfig struct {
	MaxBytes        int64    `yaml:"max_bytes" envconfig:"MAX_BYTES"`
	StockExtensions []string `yaml:"stock_extensions" envconfig:"STOCK_EXTENSIONS"`
	SalesExtensions []string `yaml:"sales_extensions" envconfig:"SALES_EXTENSIONS"`
}

// SessionConfig bounds the in-memory session store.
type SessionConfig struct {
	TTL         time.Duration `yaml:"ttl" envconfig:"TTL"`
	MaxSessions int           `yaml:"max_sessions" envconfig:"MAX_SESSIONS"`
}

// NormalizeConfig tunes the normalization pipelines.
type NormalizeConfig struct {
	// SubtotalMode is one of prefix, regex or any.
	SubtotalMode        string   `yaml:"subtotal_mode" envconfig:"SUBTOTAL_MODE"`
	ControlledQualities []string `yaml:"controlled_qualities" envconfig:"CONTROLLED_QUALITIES"`
	SalesCSVBOM         bool     `yaml:"sales_csv_bom" envconfig:"SALES_CSV_BOM"`
}

// LayoutsConfig overrides the built-in report layouts. Only set fields
// replace the defaults.
type LayoutsConfig struct {
	Stock LayoutConfig `yaml:"stock"`
	Sales LayoutConfig `yaml:"sales"`
}

// LayoutConfig is the YAML form of a layout descriptor.
type LayoutConfig struct {
	SkipRows         []int    `yaml:"skip_rows"`
	SkipColumns      []int    `yaml:"skip_columns"`
	HeaderRow        *int     `yaml:"header_row"`
	ColumnNames      []string `yaml:"column_names"`
	DropEmptyColumns *bool    `yaml:"drop_empty_columns"`
}

// TelemetryConfig selects the OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	// TracesExporter is none or stdout.
	TracesExporter string `yaml:"traces_exporter" envconfig:"TRACES_EXPORTER"`
	// MetricsExporter is none or prometheus.
	MetricsExporter string  `yaml:"metrics_exporter" envconfig:"METRICS_EXPORTER"`
	SampleRate      float64 `yaml:"sample_rate" envconfig:"SAMPLE_RATE"`
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in increasing order of precedence. A .env file in the
// working directory is read into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
	}

	// Fields without a variable keep the file or default value.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return "" // No config file found, use env vars only
}

// Validate rejects configurations the application cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server request timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output %q", c.Logging.Output)
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file path is required for output %q", c.Logging.Output)
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive")
	}
	if err := validateExtensions("stock", c.Upload.StockExtensions, ".xlsx", ".xls"); err != nil {
		return err
	}
	if err := validateExtensions("sales", c.Upload.SalesExtensions, ".xlsx", ".xls", ".csv"); err != nil {
		return err
	}

	if c.Session.TTL < 0 || c.Session.MaxSessions < 0 {
		return fmt.Errorf("session ttl and max sessions must not be negative")
	}

	if _, err := dataprocessing.ParseSubtotalMode(c.Normalize.SubtotalMode); err != nil {
		return err
	}
	if len(c.Normalize.ControlledQualities) == 0 {
		return fmt.Errorf("at least one controlled quality must be specified")
	}

	if _, err := c.StockConfig(); err != nil {
		return err
	}
	if _, err := c.SalesLayout(); err != nil {
		return err
	}

	switch c.Telemetry.TracesExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("invalid traces exporter %q", c.Telemetry.TracesExporter)
	}
	switch c.Telemetry.MetricsExporter {
	case "none", "prometheus":
	default:
		return fmt.Errorf("invalid metrics exporter %q", c.Telemetry.MetricsExporter)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("telemetry sample rate must be within [0, 1]")
	}
	return nil
}

// StockConfig resolves the stock normalizer configuration.
func (c *Config) StockConfig() (dataprocessing.StockConfig, error) {
	mode, err := dataprocessing.ParseSubtotalMode(c.Normalize.SubtotalMode)
	if err != nil {
		return dataprocessing.StockConfig{}, err
	}
	layout := c.Layouts.Stock.apply(dataprocessing.StockLayout())
	if err := layout.Validate(); err != nil {
		return dataprocessing.StockConfig{}, err
	}
	return dataprocessing.StockConfig{
		Layout:              layout,
		Subtotal:            dataprocessing.SubtotalPolicy{Mode: mode},
		ControlledQualities: append([]string(nil), c.Normalize.ControlledQualities...),
	}, nil
}

// SalesLayout resolves the sales layout descriptor.
func (c *Config) SalesLayout() (dataprocessing.Layout, error) {
	layout := c.Layouts.Sales.apply(dataprocessing.SalesLayout())
	if err := layout.Validate(); err != nil {
		return dataprocessing.Layout{}, err
	}
	return layout, nil
}

func (lc LayoutConfig) apply(base dataprocessing.Layout) dataprocessing.Layout {
	if lc.SkipRows != nil {
		base.SkipRows = lc.SkipRows
	}
	if lc.SkipColumns != nil {
		base.SkipColumns = lc.SkipColumns
	}
	if lc.HeaderRow != nil {
		base.HeaderRow = *lc.HeaderRow
	}
	if lc.ColumnNames != nil {
		base.ColumnNames = lc.ColumnNames
	}
	if lc.DropEmptyColumns != nil {
		base.DropEmptyColumns = *lc.DropEmptyColumns
	}
	return base
}

func validateExtensions(kind string, exts []string, allowed ...string) error {
	if len(exts) == 0 {
		return fmt.Errorf("%s upload extensions must not be empty", kind)
	}
	for _, ext := range exts {
		ok := false
		for _, a := range allowed {
			if strings.EqualFold(ext, a) {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("%s upload extension %q is not supported", kind, ext)
		}
	}
	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/stockdash.log",
		},
		Upload: UploadConfig{
			MaxBytes:        32 << 20,
			StockExtensions: []string{".xlsx", ".xls"},
			SalesExtensions: []string{".xlsx", ".xls", ".csv"},
		},
		Session: SessionConfig{
			TTL:         2 * time.Hour,
			MaxSessions: 1000,
		},
		Normalize: NormalizeConfig{
			SubtotalMode:        string(dataprocessing.ModeRegex),
			ControlledQualities: append([]string(nil), domain.ControlledQualities...),
		},
		Telemetry: TelemetryConfig{
			ServiceName:     "stockdash",
			TracesExporter:  "none",
			MetricsExporter: "prometheus",
			SampleRate:      1.0,
		},
	}
}
