package config

import "time"

// Config is the root configuration for the Callisto telemetry hub.
type Config struct {
	// Store configures the time-series store.
	Store StoreConfig `yaml:"store"`

	// Server configures the HTTP serving shell.
	Server ServerConfig `yaml:"server"`

	// Hub configures the ingestion pipeline and subscriber registry.
	Hub HubConfig `yaml:"hub"`

	// Exposition configures the scrape renderer.
	Exposition ExpositionConfig `yaml:"exposition"`

	// Maintenance configures the scheduled store maintenance job.
	Maintenance MaintenanceConfig `yaml:"maintenance"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// WatchConfig enables hot-reloading of the exposition thresholds
	// when the config file changes on disk.
	WatchConfig bool `yaml:"watch_config"`
}

// StoreConfig configures the SQLite time-series store.
type StoreConfig struct {
	// Path is the database file location.
	Path string `yaml:"path"`

	// Driver selects the SQL driver: "sqlite3" (cgo) or "sqlite"
	// (pure Go).
	Driver string `yaml:"driver"`

	// BusyTimeout is how long to wait for database locks.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// ServerConfig configures the HTTP shell.
type ServerConfig struct {
	// ListenAddress is the host:port the server binds.
	ListenAddress string `yaml:"listen_address"`

	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// HubConfig configures the ingestion pipeline and subscriber registry.
type HubConfig struct {
	// KeepaliveInterval is how often idle streaming connections emit a
	// keepalive frame.
	KeepaliveInterval time.Duration `yaml:"keepalive_interval"`

	// SubscriberBuffer is the per-subscriber channel depth; subscribers
	// that fall further behind are dropped.
	SubscriberBuffer int `yaml:"subscriber_buffer"`
}

// ExpositionConfig configures the scrape renderer.
type ExpositionConfig struct {
	// Format selects the renderer: "prometheus" or "plain".
	Format string `yaml:"format"`

	// UpThreshold is the freshness window for the services-up gauge.
	UpThreshold time.Duration `yaml:"up_threshold"`

	// Namespace prefixes all exposed metric names.
	Namespace string `yaml:"namespace"`
}

// MaintenanceConfig configures the scheduled store maintenance job.
type MaintenanceConfig struct {
	// CheckpointSchedule is a cron expression for the WAL checkpoint
	// job. Empty disables the job.
	CheckpointSchedule string `yaml:"checkpoint_schedule"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	Format string `yaml:"format"`
}
