package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/phrazzld/kanjidrill/internal/store"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Dialect identifies the SQL database behind a KV.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect maps a configured storage driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unknown sql driver %q: only 'sqlite' and 'postgres' are supported", driver)
	}
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Dialect) gooseDialect() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// placeholder returns the n-th (1-based) bind parameter for the dialect.
func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// OpenDB opens and pings a database for the dialect.
func OpenDB(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	if dialect == DialectSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", MapError(err))
	}

	if dialect == DialectSQLite {
		// One writer at a time; SQLite serializes writes anyway.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", MapError(err))
	}
	return db, nil
}

// sqliteDSN adds a busy timeout and WAL journaling unless pragmas are already set.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// KV stores values in the kv_entries table.
type KV struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

var _ store.KV = (*KV)(nil)

// NewKV wraps an open, migrated database.
func NewKV(db *sql.DB, dialect Dialect, logger *slog.Logger) *KV {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil for sqldb.KV")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KV{
		db:      db,
		dialect: dialect,
		logger:  logger.With(slog.String("component", "sqldb"), slog.String("dialect", string(dialect))),
	}
}

// Open connects to the database, applies pending migrations and returns a KV.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*KV, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, err
	}
	db, err := OpenDB(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, dialect, "up", logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewKV(db, dialect, logger), nil
}

// DB exposes the underlying pool, e.g. for migration commands.
func (k *KV) DB() *sql.DB {
	return k.db
}

// Dialect returns the KV's SQL dialect.
func (k *KV) Dialect() Dialect {
	return k.dialect
}

func (k *KV) selectQuery() string {
	return "SELECT entry_value FROM kv_entries WHERE entry_key = " + k.dialect.placeholder(1)
}

func (k *KV) upsertQuery() string {
	return fmt.Sprintf(`INSERT INTO kv_entries (entry_key, entry_value, updated_at)
VALUES (%s, %s, CURRENT_TIMESTAMP)
ON CONFLICT (entry_key) DO UPDATE SET entry_value = excluded.entry_value, updated_at = CURRENT_TIMESTAMP`,
		k.dialect.placeholder(1), k.dialect.placeholder(2))
}

func (k *KV) deleteQuery() string {
	return "DELETE FROM kv_entries WHERE entry_key = " + k.dialect.placeholder(1)
}

// Get implements store.KV.
func (k *KV) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	if err := k.db.QueryRowContext(ctx, k.selectQuery(), key).Scan(&value); err != nil {
		return nil, MapError(err)
	}
	return []byte(value), nil
}

// Set implements store.KV.
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	return k.upsert(ctx, k.db, key, value)
}

// SetMany implements store.KV. All entries are written in one transaction.
func (k *KV) SetMany(ctx context.Context, entries map[string][]byte) error {
	return RunInTransaction(ctx, k.db, func(ctx context.Context, tx *sql.Tx) error {
		for key, value := range entries {
			if err := k.upsert(ctx, tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete implements store.KV.
func (k *KV) Delete(ctx context.Context, keys ...string) error {
	return RunInTransaction(ctx, k.db, func(ctx context.Context, tx *sql.Tx) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, k.deleteQuery(), key); err != nil {
				return MapError(err)
			}
		}
		return nil
	})
}

// Ping implements store.KV.
func (k *KV) Ping(ctx context.Context) error {
	if err := k.db.PingContext(ctx); err != nil {
		if IsConnectionError(err) {
			k.logger.Warn("database unreachable", slog.String("error", err.Error()))
		}
		return MapError(err)
	}
	return nil
}

// Close implements store.KV.
func (k *KV) Close() error {
	return k.db.Close()
}

func (k *KV) upsert(ctx context.Context, q DBTX, key string, value []byte) error {
	if _, err := q.ExecContext(ctx, k.upsertQuery(), key, string(value)); err != nil {
		return MapError(err)
	}
	return nil
}
