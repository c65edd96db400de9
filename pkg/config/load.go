package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified
// path, applies default values and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention CALLISTO_SECTION_FIELD (e.g. CALLISTO_SERVER_LISTEN_ADDRESS)
// and always take precedence over file-based configuration.
//
// A missing file is not an error here: the hub can run entirely on
// defaults plus environment, matching its container deployments.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg = &Config{}
		ApplyDefaults(cfg)
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies CALLISTO_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("CALLISTO_STORE_PATH"); val != "" {
		cfg.Store.Path = val
	}
	if val := os.Getenv("CALLISTO_STORE_DRIVER"); val != "" {
		cfg.Store.Driver = val
	}
	if val := os.Getenv("CALLISTO_STORE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Store.BusyTimeout = d
		}
	}

	if val := os.Getenv("CALLISTO_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("CALLISTO_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("CALLISTO_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("CALLISTO_SERVER_IDLE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.IdleTimeout = d
		}
	}
	if val := os.Getenv("CALLISTO_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	if val := os.Getenv("CALLISTO_HUB_KEEPALIVE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Hub.KeepaliveInterval = d
		}
	}
	if val := os.Getenv("CALLISTO_HUB_SUBSCRIBER_BUFFER"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Hub.SubscriberBuffer = i
		}
	}

	if val := os.Getenv("CALLISTO_EXPOSITION_FORMAT"); val != "" {
		cfg.Exposition.Format = val
	}
	if val := os.Getenv("CALLISTO_EXPOSITION_UP_THRESHOLD"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Exposition.UpThreshold = d
		}
	}
	if val := os.Getenv("CALLISTO_EXPOSITION_NAMESPACE"); val != "" {
		cfg.Exposition.Namespace = val
	}

	if val := os.Getenv("CALLISTO_MAINTENANCE_CHECKPOINT_SCHEDULE"); val != "" {
		cfg.Maintenance.CheckpointSchedule = val
	}

	if val := os.Getenv("CALLISTO_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("CALLISTO_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
	if val := os.Getenv("CALLISTO_WATCH_CONFIG"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.WatchConfig = b
		}
	}
}
