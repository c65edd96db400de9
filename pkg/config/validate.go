package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the field (e.g. "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every validation failure found in a
// configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the entire configuration and returns a
// ValidationError if any rule fails. All errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	if cfg.Store.Path == "" {
		errs = append(errs, FieldError{"store.path", "must not be empty"})
	}
	switch cfg.Store.Driver {
	case "sqlite3", "sqlite":
	default:
		errs = append(errs, FieldError{"store.driver",
			fmt.Sprintf("unsupported driver %q (expected sqlite3 or sqlite)", cfg.Store.Driver)})
	}
	if cfg.Store.BusyTimeout < 0 {
		errs = append(errs, FieldError{"store.busy_timeout", "must not be negative"})
	}

	if _, _, err := net.SplitHostPort(cfg.Server.ListenAddress); err != nil {
		errs = append(errs, FieldError{"server.listen_address",
			fmt.Sprintf("invalid host:port %q: %v", cfg.Server.ListenAddress, err)})
	}

	if cfg.Hub.KeepaliveInterval <= 0 {
		errs = append(errs, FieldError{"hub.keepalive_interval", "must be positive"})
	}
	if cfg.Hub.SubscriberBuffer < 0 {
		errs = append(errs, FieldError{"hub.subscriber_buffer", "must not be negative"})
	}

	switch cfg.Exposition.Format {
	case "prometheus", "plain":
	default:
		errs = append(errs, FieldError{"exposition.format",
			fmt.Sprintf("unsupported format %q (expected prometheus or plain)", cfg.Exposition.Format)})
	}
	if cfg.Exposition.UpThreshold <= 0 {
		errs = append(errs, FieldError{"exposition.up_threshold", "must be positive"})
	}

	if schedule := cfg.Maintenance.CheckpointSchedule; schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			errs = append(errs, FieldError{"maintenance.checkpoint_schedule",
				fmt.Sprintf("invalid cron expression %q: %v", schedule, err)})
		}
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"logging.level",
			fmt.Sprintf("unsupported level %q", cfg.Logging.Level)})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"logging.format",
			fmt.Sprintf("unsupported format %q", cfg.Logging.Format)})
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
