package sqldb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/phrazzld/kanjidrill/internal/platform/logger"
	"github.com/phrazzld/kanjidrill/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *KV {
	t.Helper()
	log, _ := logger.GetTestLogger(t)
	kv, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "kanjidrill.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

// openPostgres connects to the database named by KANJIDRILL_TEST_POSTGRES_DSN.
func openPostgres(t *testing.T) *KV {
	t.Helper()
	dsn := os.Getenv("KANJIDRILL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("KANJIDRILL_TEST_POSTGRES_DSN not set")
	}
	kv, err := Open(context.Background(), "postgres", dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = kv.DB().Exec("DELETE FROM kv_entries WHERE entry_key LIKE 'sqldbtest:%'")
		_ = kv.Close()
	})
	return kv
}

func TestParseDialect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		driver  string
		want    Dialect
		wantErr bool
	}{
		{"sqlite", DialectSQLite, false},
		{"SQLite3", DialectSQLite, false},
		{"postgres", DialectPostgres, false},
		{"pgx", DialectPostgres, false},
		{"mysql", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			got, err := ParseDialect(tt.driver)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceholders(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "?", DialectSQLite.placeholder(2))
	assert.Equal(t, "$2", DialectPostgres.placeholder(2))
}

func TestSQLiteDSN(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", sqliteDSN("a.db"))
	assert.Equal(t, "a.db?mode=ro&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", sqliteDSN("a.db?mode=ro"))
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)", sqliteDSN("a.db?_pragma=foreign_keys(1)"))
}

func exerciseKV(t *testing.T, kv *KV) {
	ctx := context.Background()

	_, err := kv.Get(ctx, "sqldbtest:missing")
	assert.ErrorIs(t, err, store.ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, "sqldbtest:a", []byte(`{"x":1}`)))
	got, err := kv.Get(ctx, "sqldbtest:a")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(got))

	require.NoError(t, kv.Set(ctx, "sqldbtest:a", []byte(`{"x":2}`)), "upsert replaces")
	got, err = kv.Get(ctx, "sqldbtest:a")
	require.NoError(t, err)
	assert.Equal(t, `{"x":2}`, string(got))

	require.NoError(t, kv.SetMany(ctx, map[string][]byte{
		"sqldbtest:b": []byte("[]"),
		"sqldbtest:c": []byte("1.0"),
	}))
	got, err = kv.Get(ctx, "sqldbtest:c")
	require.NoError(t, err)
	assert.Equal(t, "1.0", string(got))

	require.NoError(t, kv.Delete(ctx, "sqldbtest:a", "sqldbtest:b", "sqldbtest:never"))
	_, err = kv.Get(ctx, "sqldbtest:a")
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
	_, err = kv.Get(ctx, "sqldbtest:c")
	assert.NoError(t, err)

	assert.NoError(t, kv.Ping(ctx))
}

func TestKV_SQLite(t *testing.T) {
	t.Parallel()
	exerciseKV(t, openSQLite(t))
}

func TestKV_Postgres(t *testing.T) {
	exerciseKV(t, openPostgres(t))
}

func TestKV_ClosedDatabaseIsUnavailable(t *testing.T) {
	t.Parallel()
	kv := openSQLite(t)
	require.NoError(t, kv.Close())

	_, err := kv.Get(context.Background(), "k")
	assert.ErrorIs(t, err, store.ErrStorageUnavailable)
	assert.ErrorIs(t, kv.Set(context.Background(), "k", []byte("v")), store.ErrStorageUnavailable)
}

func TestMigrate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	kv := openSQLite(t)

	version, err := SchemaVersion(ctx, kv.DB(), kv.Dialect())
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	require.NoError(t, Migrate(ctx, kv.DB(), kv.Dialect(), "up", nil), "up is idempotent")
	require.NoError(t, Migrate(ctx, kv.DB(), kv.Dialect(), "status", nil))

	require.NoError(t, Migrate(ctx, kv.DB(), kv.Dialect(), "reset", nil))
	version, err = SchemaVersion(ctx, kv.DB(), kv.Dialect())
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	_, err = kv.Get(ctx, "k")
	assert.Error(t, err, "table is gone after reset")

	assert.Error(t, Migrate(ctx, kv.DB(), kv.Dialect(), "sideways", nil))
}

func TestMapError(t *testing.T) {
	t.Parallel()
	assert.NoError(t, MapError(nil))

	base := errors.New("boom")
	mapped := MapError(base)
	assert.ErrorIs(t, mapped, store.ErrStorageUnavailable)
	assert.ErrorIs(t, mapped, base)
}

func TestIsConnectionError(t *testing.T) {
	t.Parallel()
	assert.False(t, IsConnectionError(nil))
	assert.False(t, IsConnectionError(errors.New("syntax error")))
	assert.True(t, IsConnectionError(context.DeadlineExceeded))
}

func TestStoreOnSQLite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "kanjidrill.db")

	kv, err := Open(ctx, "sqlite", path, nil)
	require.NoError(t, err)
	s := store.New(kv, "kanjidrill", nil)
	require.NoError(t, s.Init(ctx))

	excluded, err := s.ToggleExclusion(ctx, 3, 7)
	require.NoError(t, err)
	assert.True(t, excluded)
	require.NoError(t, kv.Close())

	// Data survives reopening the file.
	kv, err = Open(ctx, "sqlite", path, nil)
	require.NoError(t, err)
	defer kv.Close()
	s = store.New(kv, "kanjidrill", nil)
	require.NoError(t, s.Init(ctx))
	assert.Equal(t, []int{7}, s.GetExclusions(ctx, 3))
}
