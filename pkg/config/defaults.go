package config

import "time"

// Default values for configuration fields.
const (
	// Store defaults
	DefaultStorePath        = "data/metrics.db"
	DefaultStoreDriver      = "sqlite3"
	DefaultStoreBusyTimeout = 5 * time.Second

	// Server defaults: the original deployment served on 8085.
	DefaultListenAddress   = "0.0.0.0:8085"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Hub defaults
	DefaultKeepaliveInterval = 5 * time.Second
	DefaultSubscriberBuffer  = 16

	// Exposition defaults
	DefaultExpositionFormat = "prometheus"
	DefaultUpThreshold      = 90 * time.Second
	DefaultNamespace        = "dashboard"

	// Maintenance defaults: nightly WAL checkpoint.
	DefaultCheckpointSchedule = "0 3 * * *"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills in default values for any unset configuration
// fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DefaultStoreDriver
	}
	if cfg.Store.BusyTimeout == 0 {
		cfg.Store.BusyTimeout = DefaultStoreBusyTimeout
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Hub.KeepaliveInterval == 0 {
		cfg.Hub.KeepaliveInterval = DefaultKeepaliveInterval
	}
	if cfg.Hub.SubscriberBuffer == 0 {
		cfg.Hub.SubscriberBuffer = DefaultSubscriberBuffer
	}

	if cfg.Exposition.Format == "" {
		cfg.Exposition.Format = DefaultExpositionFormat
	}
	if cfg.Exposition.UpThreshold == 0 {
		cfg.Exposition.UpThreshold = DefaultUpThreshold
	}
	if cfg.Exposition.Namespace == "" {
		cfg.Exposition.Namespace = DefaultNamespace
	}

	if cfg.Maintenance.CheckpointSchedule == "" {
		cfg.Maintenance.CheckpointSchedule = DefaultCheckpointSchedule
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}
