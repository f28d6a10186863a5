package logger_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/kanjidrill/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"Warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.ParseLevel(tt.input))
		})
	}
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	t.Parallel()
	buf := &logger.TestLogBuffer{}
	log := logger.New(buf, "warn", "json")

	log.Info("hidden")
	log.Warn("visible", slog.String("component", "test"))

	assert.NotContains(t, buf.String(), "hidden")
	logger.AssertLogContains(t, buf, "visible")
	logger.AssertLogField(t, buf, "component", "test")
}

func TestNew_InvalidLevelWarns(t *testing.T) {
	t.Parallel()
	buf := &logger.TestLogBuffer{}
	logger.New(buf, "loud", "json")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "loud", entries[0]["configured_level"])
}

func TestNew_TextFormat(t *testing.T) {
	t.Parallel()
	buf := &logger.TestLogBuffer{}
	log := logger.New(buf, "info", "text")
	log.Info("plain message")

	out := buf.String()
	assert.True(t, strings.Contains(out, "msg=\"plain message\""), out)
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()
	defaultLogger := slog.Default()
	customLogger, _ := logger.GetTestLogger(t)

	tests := []struct {
		name     string
		ctx      context.Context
		expected *slog.Logger
	}{
		{
			name:     "nil_context_returns_default",
			ctx:      nil,
			expected: defaultLogger,
		},
		{
			name:     "context_without_logger_returns_default",
			ctx:      context.Background(),
			expected: defaultLogger,
		},
		{
			name:     "context_with_logger_returns_context_logger",
			ctx:      logger.WithLogger(context.Background(), customLogger),
			expected: customLogger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			//nolint:staticcheck // nil context is part of the contract under test
			result := logger.FromContextOrDefault(tt.ctx, defaultLogger)
			assert.Same(t, tt.expected, result)
		})
	}
}

func TestWithLogger_NilPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		logger.WithLogger(context.Background(), nil)
	})
}

func TestWithRequestID(t *testing.T) {
	t.Parallel()
	log, buf := logger.GetTestLogger(t)

	ctx := logger.WithLogger(context.Background(), log)
	ctx = logger.WithRequestID(ctx, "req-123")

	assert.Equal(t, "req-123", logger.RequestIDFromContext(ctx))
	logger.FromContext(ctx).Info("handled")
	logger.AssertLogField(t, buf, "request_id", "req-123")

	assert.Empty(t, logger.RequestIDFromContext(context.Background()))
}
