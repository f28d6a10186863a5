// Package sqldb implements the store.KV medium on top of database/sql.
//
// Values live in a single kv_entries table whose schema is managed by goose
// migrations embedded in the binary. SQLite (modernc.org/sqlite, no cgo) is
// the default local driver; PostgreSQL is reached through the pgx stdlib
// adapter. Multi-key writes run inside one transaction.
package sqldb
