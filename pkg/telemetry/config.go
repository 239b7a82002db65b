package telemetry

import (
	"fmt"
	"time"
)

// Config contains the telemetry configuration for communitydesk.
type Config struct {
	// ServiceName is the name of the service for telemetry identification.
	ServiceName string `yaml:"service_name" env:"DESK_SERVICE_NAME" env-default:"communitydesk"`

	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"-"`

	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Tracing contains tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level sets the minimum log level (trace, debug, info, warn, error, fatal).
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=trace debug info warn error fatal"`

	// Format specifies the log format (console, json).
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console" validate:"oneof=console json"`

	// Output specifies where logs are written (stdout, stderr, file path).
	Output string `yaml:"output" env:"LOG_OUTPUT" env-default:"stderr"`

	// EnableCaller adds file:line caller information to logs.
	EnableCaller bool `yaml:"enable_caller" env:"LOG_CALLER" env-default:"false"`
}

// TracingConfig configures tracing of store and sync operations.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	Enabled bool `yaml:"enabled" env:"TRACING_ENABLED" env-default:"false"`

	// Exporter specifies the trace exporter (otlp, stdout, none).
	Exporter string `yaml:"exporter" env:"TRACING_EXPORTER" env-default:"none" validate:"oneof=otlp stdout none"`

	// Endpoint is the OTLP collector endpoint (host:port).
	Endpoint string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Insecure disables TLS for the exporter connection.
	Insecure bool `yaml:"insecure" env:"TRACING_INSECURE" env-default:"true"`

	// ExportTimeout bounds a single export call.
	ExportTimeout time.Duration `yaml:"export_timeout" env:"TRACING_EXPORT_TIMEOUT" env-default:"10s"`
}

// MetricsConfig configures metrics collection. A CLI process is too short
// lived to be scraped, so metrics are written to a textfile on exit for a
// node_exporter textfile collector to pick up.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED" env-default:"false"`

	// TextfilePath is where the metrics are written when the command ends.
	TextfilePath string `yaml:"textfile_path" env:"METRICS_TEXTFILE"`

	// Namespace is the metrics namespace prefix.
	Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE" env-default:"communitydesk"`
}

// DefaultConfig returns a default telemetry configuration.
func DefaultConfig() *Config {
	return &Config{
		ServiceName:    "communitydesk",
		ServiceVersion: "dev",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Tracing: TracingConfig{
			Exporter:      "none",
			Insecure:      true,
			ExportTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Namespace: "communitydesk",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}

	if parseLogLevel(c.Logging.Level).String() != c.Logging.Level {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'console' or 'json')", c.Logging.Format)
	}

	if c.Tracing.Enabled && c.Tracing.Exporter == "otlp" && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing endpoint is required for the otlp exporter")
	}

	if c.Metrics.Enabled && c.Metrics.TextfilePath == "" {
		return fmt.Errorf("metrics textfile path is required when metrics are enabled")
	}

	return nil
}
