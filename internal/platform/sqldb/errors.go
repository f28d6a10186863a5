package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/kanjidrill/internal/store"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PostgreSQL error code classes and codes treated as an unreachable medium.
const (
	pgClassConnection        = "08"
	pgClassInsufficientSpace = "53"
	pgAdminShutdown          = "57P01"
	pgCannotConnectNow       = "57P03"
)

// MapError maps a database error onto the store's error vocabulary:
// missing rows become store.ErrKeyNotFound, damaged database files become
// store.ErrCorruptData and everything else store.ErrStorageUnavailable.
// The original error is kept in the chain.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", store.ErrKeyNotFound, err)
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
			return fmt.Errorf("%w: %w", store.ErrCorruptData, err)
		}
	}

	return fmt.Errorf("%w: %w", store.ErrStorageUnavailable, err)
}

// IsConnectionError reports whether err means the database could not be
// reached at all, as opposed to a failed statement.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, pgClassConnection) ||
			strings.HasPrefix(pgErr.Code, pgClassInsufficientSpace) ||
			pgErr.Code == pgAdminShutdown ||
			pgErr.Code == pgCannotConnectNow
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN,
			sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL, sqlite3.SQLITE_READONLY:
			return true
		}
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
