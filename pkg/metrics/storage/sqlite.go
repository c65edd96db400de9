package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // "sqlite3" driver (cgo)
	_ "modernc.org/sqlite"          // "sqlite" driver (pure Go)

	"mercator-hq/callisto/pkg/metrics"
)

// Config contains configuration for the SQLite time-series store.
type Config struct {
	// Path is the database file path.
	Path string

	// Driver selects the SQL driver: "sqlite3" (mattn, cgo) or
	// "sqlite" (modernc, pure Go). Default: "sqlite3".
	Driver string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// MaxOpenConns is the maximum number of open connections.
	// SQLite supports a single writer; default 1.
	MaxOpenConns int
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:         "data/metrics.db",
		Driver:       "sqlite3",
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 1,
	}
}

// Store is the durable, append-only time-series store for samples.
//
// The store has a two-phase lifecycle: Open establishes the connection
// and ensures the schema exists once; every operation afterwards keeps
// a single self-heal branch that re-runs EnsureSchema and retries once
// if the schema was lost underneath it (for example a deleted database
// file on a tmpfs volume). Read operations never surface errors past
// that retry: they degrade to empty results so the serving layer stays
// available. Write operations surface the error.
type Store struct {
	db     *sql.DB
	config *Config
	logger *slog.Logger
}

// Open opens the database, configures the connection pool and ensures
// the schema exists.
func Open(config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Driver == "" {
		config.Driver = "sqlite3"
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}
	if config.MaxOpenConns == 0 {
		config.MaxOpenConns = 1
	}

	logger := slog.Default().With("component", "metrics.storage")

	if dir := filepath.Dir(config.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, metrics.NewStorageError("open", err)
		}
	}

	db, err := sql.Open(config.Driver, dsn(config))
	if err != nil {
		return nil, metrics.NewStorageError("open", err)
	}

	// Single writer; avoids SQLITE_BUSY churn under concurrent ingest.
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetConnMaxLifetime(0)

	s := &Store{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("time-series store opened",
		"path", config.Path,
		"driver", config.Driver,
	)

	return s, nil
}

// dsn builds the driver-specific connection string. Both drivers get
// WAL journaling and the configured busy timeout, but they spell the
// pragmas differently.
func dsn(config *Config) string {
	timeoutMs := config.BusyTimeout.Milliseconds()
	switch config.Driver {
	case "sqlite":
		return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
			config.Path, timeoutMs)
	default:
		return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
			config.Path, timeoutMs)
	}
}

// EnsureSchema creates the samples table and its index if absent. It is
// idempotent and safe to call concurrently and repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return metrics.NewStorageError("ensure_schema", err)
	}
	return nil
}

// withSchemaRetry runs op, and on failure re-ensures the schema and
// retries exactly once. This is the single self-heal policy shared by
// every store operation.
func (s *Store) withSchemaRetry(ctx context.Context, operation string, op func() error) error {
	err := op()
	if err == nil {
		return nil
	}

	s.logger.Warn("store operation failed, re-ensuring schema",
		"operation", operation,
		"error", err,
	)
	if schemaErr := s.EnsureSchema(ctx); schemaErr != nil {
		return metrics.NewStorageError(operation, schemaErr)
	}
	if err = op(); err != nil {
		return metrics.NewStorageError(operation, err)
	}
	return nil
}

// Append inserts one sample row. The sample is immutable afterwards.
func (s *Store) Append(ctx context.Context, sample metrics.Sample) error {
	return s.withSchemaRetry(ctx, "append", func() error {
		_, err := s.db.ExecContext(ctx, InsertSample,
			sample.Service, sample.Uptime, sample.Requests, sample.Timestamp)
		return err
	})
}

// DistinctServices returns the set of service names known to the store.
// Degrades to an empty slice on persistent storage failure.
func (s *Store) DistinctServices(ctx context.Context) []string {
	var services []string
	err := s.withSchemaRetry(ctx, "distinct_services", func() error {
		rows, err := s.db.QueryContext(ctx, SelectDistinctServices)
		if err != nil {
			return err
		}
		defer rows.Close()

		services = services[:0]
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			services = append(services, name)
		}
		return rows.Err()
	})
	if err != nil {
		s.logger.Error("distinct services query degraded to empty", "error", err)
		return nil
	}
	return services
}

// SeriesSince returns the time series for one service from sinceTs
// onwards, ascending by timestamp with insertion order breaking ties.
// An unknown service yields an empty slice, as does a persistent
// storage failure.
func (s *Store) SeriesSince(ctx context.Context, service string, sinceTs int64) []metrics.SeriesPoint {
	var points []metrics.SeriesPoint
	err := s.withSchemaRetry(ctx, "series_since", func() error {
		rows, err := s.db.QueryContext(ctx, SelectSeriesSince, service, sinceTs)
		if err != nil {
			return err
		}
		defer rows.Close()

		points = points[:0]
		for rows.Next() {
			var p metrics.SeriesPoint
			if err := rows.Scan(&p.Timestamp, &p.Uptime, &p.Requests); err != nil {
				return err
			}
			points = append(points, p)
		}
		return rows.Err()
	})
	if err != nil {
		s.logger.Error("series query degraded to empty",
			"service", service,
			"error", err,
		)
		return nil
	}
	return points
}

// LatestPerService returns, for each known service, the row with the
// maximum timestamp; ties on timestamp are broken by latest insertion.
// Degrades to an empty map on persistent storage failure.
func (s *Store) LatestPerService(ctx context.Context) map[string]metrics.LatestEntry {
	latest := make(map[string]metrics.LatestEntry)
	err := s.withSchemaRetry(ctx, "latest_per_service", func() error {
		rows, err := s.db.QueryContext(ctx, SelectLatestPerService)
		if err != nil {
			return err
		}
		defer rows.Close()

		clear(latest)
		for rows.Next() {
			var (
				service string
				entry   metrics.LatestEntry
			)
			if err := rows.Scan(&service, &entry.Uptime, &entry.Requests, &entry.Timestamp); err != nil {
				return err
			}
			latest[service] = entry
		}
		return rows.Err()
	})
	if err != nil {
		s.logger.Error("latest query degraded to empty", "error", err)
		return map[string]metrics.LatestEntry{}
	}
	return latest
}

// RowCount returns the total number of persisted samples, or 0 on
// persistent storage failure.
func (s *Store) RowCount(ctx context.Context) int64 {
	var count int64
	err := s.withSchemaRetry(ctx, "row_count", func() error {
		return s.db.QueryRowContext(ctx, SelectRowCount).Scan(&count)
	})
	if err != nil {
		s.logger.Error("row count query degraded to zero", "error", err)
		return 0
	}
	return count
}

// GlobalLatestTimestamp returns the newest timestamp across all
// services. The second return is false when the store is empty or
// unreachable.
func (s *Store) GlobalLatestTimestamp(ctx context.Context) (int64, bool) {
	var ts sql.NullInt64
	err := s.withSchemaRetry(ctx, "global_latest_timestamp", func() error {
		return s.db.QueryRowContext(ctx, SelectGlobalLatestTS).Scan(&ts)
	})
	if err != nil || !ts.Valid {
		return 0, false
	}
	return ts.Int64, true
}

// Checkpoint truncates the write-ahead log. Used by the maintenance
// scheduler; harmless when the driver is not in WAL mode.
func (s *Store) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return metrics.NewStorageError("checkpoint", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
