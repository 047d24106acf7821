// Package config defines the global configuration structure for the BookBliss
// order notifier. Configuration is loaded once at process initialization and
// is immutable thereafter. It follows 12-Factor App principles by strictly
// separating code from configuration.
//
// Values come from the OS environment, with an optional .env file for local
// development. Any missing required value or invalid format causes startup to
// fail immediately.
package config

import (
	"time"

	"bookbliss/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used throughout configuration to prevent accidental logging of sensitive
// values.
type SecretString = types.SecretString

// Email provider selection values.
const (
	EmailProviderSimulation = "simulation"
	EmailProviderSES        = "ses"
)

// Snapshot backend selection values.
const (
	SnapshotBackendFile     = "file"
	SnapshotBackendPostgres = "postgres"
)

// Config is the top-level configuration struct for the order notifier. It is
// populated once during process initialization and never modified.
// Sub-components receive only the specific config subsets they require.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"bookbliss-notifier"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// Domain Configurations
	Server        ServerConfig
	Database      DatabaseConfig
	Email         EmailConfig
	Notifier      NotifierConfig
	AWS           AWSConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server and public URL configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`
	// TrackingBaseURL is the public tracking page base linked from shipping
	// emails (no trailing slash).
	TrackingBaseURL string `envconfig:"TRACKING_BASE_URL" default:"https://bookbliss.example.com/track" validate:"url"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"20s"`
}

// DatabaseConfig holds database connection and pool tuning parameters.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required,url"`

	// Tuning Parameters
	MaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int32         `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	MaxConnIdleTime time.Duration `envconfig:"DB_MAX_CONN_IDLE_TIME" default:"5m"`
}

// EmailConfig holds email delivery provider and sender identity settings.
type EmailConfig struct {
	Provider    string `envconfig:"EMAIL_PROVIDER" default:"simulation" validate:"oneof=simulation ses"`
	FromAddress string `envconfig:"EMAIL_FROM_ADDRESS" default:"orders@bookbliss.example.com" validate:"email"`
	FromName    string `envconfig:"EMAIL_FROM_NAME" default:"BookBliss Books"`
	// SESConfigSet is the SES configuration set for delivery tracking.
	// Only used when Provider is "ses".
	SESConfigSet string `envconfig:"SES_CONFIGURATION_SET"`
	// SimulatedLatency is slept per send by the simulated provider.
	SimulatedLatency time.Duration `envconfig:"EMAIL_SIMULATED_LATENCY" default:"100ms"`
}

// NotifierConfig holds the per-status notification cadence, the update caps,
// and the snapshot persistence settings. The interval and cap defaults mirror
// the store's standard fulfilment cadence.
type NotifierConfig struct {
	ConfirmedInterval      time.Duration `envconfig:"NOTIFY_CONFIRMED_INTERVAL" default:"30m"`
	ConfirmedCap           int           `envconfig:"NOTIFY_CONFIRMED_CAP" default:"4" validate:"min=1"`
	ProcessingInterval     time.Duration `envconfig:"NOTIFY_PROCESSING_INTERVAL" default:"20m"`
	ProcessingCap          int           `envconfig:"NOTIFY_PROCESSING_CAP" default:"6" validate:"min=1"`
	ShippedInterval        time.Duration `envconfig:"NOTIFY_SHIPPED_INTERVAL" default:"60m"`
	ShippedCap             int           `envconfig:"NOTIFY_SHIPPED_CAP" default:"12" validate:"min=1"`
	OutForDeliveryInterval time.Duration `envconfig:"NOTIFY_OUT_FOR_DELIVERY_INTERVAL" default:"15m"`
	OutForDeliveryCap      int           `envconfig:"NOTIFY_OUT_FOR_DELIVERY_CAP" default:"8" validate:"min=1"`

	// SnapshotBackend selects where the schedule shadow is persisted.
	SnapshotBackend string `envconfig:"SNAPSHOT_BACKEND" default:"file" validate:"oneof=file postgres"`
	// SnapshotPath is the file used when SnapshotBackend is "file".
	SnapshotPath string `envconfig:"SNAPSHOT_PATH" default:"data/schedules.json"`
	// ArchiveDir is where evicted send log entries are archived. Empty
	// disables archiving.
	ArchiveDir string `envconfig:"SEND_LOG_ARCHIVE_DIR"`
	// SendLogCapacity bounds the in-memory send log.
	SendLogCapacity int `envconfig:"SEND_LOG_CAPACITY" default:"100" validate:"min=1"`
}

// AWSConfig holds AWS regional configuration for SES and CloudWatch.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL"`
}

// ObservabilityConfig holds metric emission settings.
type ObservabilityConfig struct {
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"BookBliss/Notifier"`
}
