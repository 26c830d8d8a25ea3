// Package store provides the relational storage layer for the job pipeline.
//
// It speaks to PostgreSQL (via pgx) for production targets and to SQLite
// (pure Go driver) for local and test targets, through database/sql. All
// statements are written with ? placeholders and rebound to the postgres
// $N form when needed.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "modernc.org/sqlite"             // sqlite driver (pure Go)
)

// Supported target types.
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
)

// Config holds connection settings for a storage target.
type Config struct {
	// Type selects the backend: "postgres" or "sqlite".
	Type string
	// Path is the SQLite database path (":memory:" for in-memory).
	Path string
	// Postgres connection settings.
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Store wraps a database connection for one storage target.
type Store struct {
	db     *sql.DB
	typ    string
	logger *slog.Logger
}

// Open connects to the configured storage target and verifies the
// connection with a ping.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	typ := cfg.Type
	if typ == "" {
		typ = TypeSQLite
	}

	var driver, dsn string
	switch typ {
	case TypePostgres:
		driver = "pgx"
		dsn = buildPostgresDSN(cfg)
		logger.Debug("opening postgres database", "host", cfg.Host, "database", cfg.Database)
	case TypeSQLite:
		driver = "sqlite"
		dsn = buildSQLiteDSN(cfg.Path)
		logger.Debug("opening sqlite database", "path", cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported target type: %q", cfg.Type)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if typ == TypeSQLite {
		// SQLite is single-writer; a single pooled connection also keeps
		// an in-memory database visible across statements.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, typ: typ, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Type returns the storage target type.
func (s *Store) Type() string {
	return s.typ
}

// Count returns the row count of a table. Used for run summaries and tests;
// table names come from code, never from input.
func (s *Store) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// buildPostgresDSN constructs a key=value PostgreSQL connection string.
func buildPostgresDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s", host, port, cfg.Database, sslmode)
	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}

// buildSQLiteDSN constructs a SQLite DSN with foreign keys enabled.
func buildSQLiteDSN(path string) string {
	if path == "" || path == ":memory:" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
}

// rebind rewrites ? placeholders to the $N form required by postgres.
// SQLite statements pass through unchanged.
func (s *Store) rebind(query string) string {
	if s.typ != TypePostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
