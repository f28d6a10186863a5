package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/kanjidrill/internal/config"
	"github.com/phrazzld/kanjidrill/internal/domain"
	"github.com/phrazzld/kanjidrill/internal/platform/logger"
	"github.com/phrazzld/kanjidrill/internal/service/review"
	"github.com/phrazzld/kanjidrill/internal/service/stats"
	"github.com/phrazzld/kanjidrill/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useSQLite points the configuration at a fresh database file.
func useSQLite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("KANJIDRILL_STORAGE_DRIVER", "sqlite")
	t.Setenv("KANJIDRILL_STORAGE_DSN", filepath.Join(dir, "kanjidrill.db"))
	t.Setenv("KANJIDRILL_SERVER_LOG_LEVEL", "error")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, strings.Join(args, " "))
	return out
}

func TestCommands_EndToEnd(t *testing.T) {
	dir := useSQLite(t)

	var result review.Result
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "record", "3", "7", "--rating", "good")), &result))
	assert.Equal(t, 1, result.Card.TotalReviews)
	assert.NotEqual(t, domain.StateNew, result.Card.Memory.State)
	assert.True(t, result.Entry.IsCorrect)

	var info review.CardInfo
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "card", "3", "7")), &info))
	assert.False(t, info.IsNew)
	assert.Equal(t, 1, info.Card.TotalReviews)

	var logs []domain.ReviewLogEntry
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "card", "3", "7", "--logs")), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, domain.RatingGood, logs[0].Rating)

	assert.Contains(t, mustRun(t, "exclude", "3", "9"), `"excluded": true`)
	assert.JSONEq(t, `[9]`, mustRun(t, "exclude", "3"))

	// 7 was just reviewed and is not due; 9 is excluded.
	assert.JSONEq(t, `[8]`, mustRun(t, "study", "3", "--candidates", "7,8,9"))
	assert.JSONEq(t, `[]`, mustRun(t, "study", "3", "--candidates", "8", "--max-new", "0"))

	var st stats.Statistics
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "stats")), &st))
	assert.Equal(t, 1, st.TotalCards)
	assert.Equal(t, 1, st.TotalReviews)

	snapshot := filepath.Join(dir, "snapshot.json")
	mustRun(t, "export", "-o", snapshot)
	mustRun(t, "reset", "--yes")

	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "stats")), &st))
	assert.Zero(t, st.TotalCards)

	mustRun(t, "import", snapshot)
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "stats", "--set", "3")), &st))
	assert.Equal(t, 1, st.TotalCards)
	assert.JSONEq(t, `[9]`, mustRun(t, "exclude", "3"))
}

func TestRecordCommand_DerivesRating(t *testing.T) {
	useSQLite(t)

	var result review.Result
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "record", "1", "1", "--correct", "--confidence", "high")), &result))
	assert.Equal(t, domain.RatingEasy, result.Entry.Rating)

	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "record", "1", "2", "--correct=false")), &result))
	assert.Equal(t, domain.RatingAgain, result.Entry.Rating)
	assert.False(t, result.Entry.IsCorrect)
}

func TestCommands_RejectInvalidInput(t *testing.T) {
	useSQLite(t)

	tests := []struct {
		name string
		args []string
	}{
		{"record_without_rating", []string{"record", "1", "1"}},
		{"record_unknown_rating", []string{"record", "1", "1", "--rating", "meh"}},
		{"negative_item", []string{"record", "1", "--rating", "good", "--", "-1"}},
		{"non_numeric_set", []string{"card", "x", "1"}},
		{"postpone_new_card", []string{"card", "1", "5", "--postpone", "2"}},
		{"negative_budget", []string{"study", "1", "--candidates", "1", "--max-new", "-1"}},
		{"reset_without_confirmation", []string{"reset"}},
		{"import_missing_file", []string{"import", "/nonexistent/snapshot.json"}},
		{"unknown_migration", []string{"migrate", "sideways"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestMigrateCommand(t *testing.T) {
	useSQLite(t)

	out := mustRun(t, "migrate")
	assert.JSONEq(t, `{"command":"up","version":2}`, out)

	out = mustRun(t, "migrate", "down")
	assert.JSONEq(t, `{"command":"down","version":1}`, out)

	t.Setenv("KANJIDRILL_STORAGE_DRIVER", "memory")
	_, err := run(t, "migrate")
	assert.Error(t, err)
}

func TestOpenKV_FallsBackToMemory(t *testing.T) {
	log := logger.New(&bytes.Buffer{}, "error", "json")
	ctx := context.Background()

	kv := openKV(ctx, config.StorageConfig{Driver: "memory"}, log)
	assert.IsType(t, &store.MemoryKV{}, kv)

	kv = openKV(ctx, config.StorageConfig{
		Driver: "postgres",
		DSN:    "postgres://kanji@127.0.0.1:1/drill?connect_timeout=1",
	}, log)
	assert.IsType(t, &store.MemoryKV{}, kv)

	kv = openKV(ctx, config.StorageConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "k.db")}, log)
	_, inMemory := kv.(*store.MemoryKV)
	assert.False(t, inMemory)
	require.NoError(t, kv.Close())
}

func TestNewApplication_RejectsInvalidScheduler(t *testing.T) {
	log := logger.New(&bytes.Buffer{}, "error", "json")
	cfg := &config.Config{
		Storage:   config.StorageConfig{Driver: "memory", Namespace: "test"},
		Scheduler: config.SchedulerConfig{RelearningSteps: []time.Duration{25 * time.Hour}},
	}

	_, err := newApplication(context.Background(), cfg, log)
	assert.Error(t, err)

	cfg.Scheduler.RelearningSteps = []time.Duration{10 * time.Minute}
	app, err := newApplication(context.Background(), cfg, log)
	require.NoError(t, err)
	defer app.cleanup()
	assert.NotNil(t, app.newRouter())
}
