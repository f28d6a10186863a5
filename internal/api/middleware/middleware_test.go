package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/kanjidrill/internal/api/shared"
	"github.com/phrazzld/kanjidrill/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var seen string
	handler := NewTraceMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.GetTraceID(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get("X-Trace-ID"))
	assert.Contains(t, buf.String(), `"msg":"inside handler"`)
	assert.Contains(t, buf.String(), `"trace_id":"`+seen+`"`)
}

func TestTraceMiddleware_CarriesRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	var reqID string
	handler := chimw.RequestID(NewTraceMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID = logger.RequestIDFromContext(r.Context())
		logger.FromContext(r.Context()).Info("inside handler")
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	require.NotEmpty(t, reqID)
	assert.Contains(t, buf.String(), `"request_id":"`+reqID+`"`)
}

type request struct {
	method, path string
	status       int
}

type requestLog struct{ requests []request }

func (l *requestLog) RecordHTTPRequest(method, path string, status int, _ float64) {
	l.requests = append(l.requests, request{method, path, status})
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	t.Parallel()

	rec := &requestLog{}
	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(rec))
	r.Get("/api/sets/{setId}/due", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	for _, path := range []string{"/api/sets/3/due", "/api/sets/9/due", "/health", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, rec.requests, 4)
	assert.Equal(t, request{http.MethodGet, "/api/sets/{setId}/due", http.StatusTeapot}, rec.requests[0])
	assert.Equal(t, rec.requests[0], rec.requests[1])
	assert.Equal(t, request{http.MethodGet, "/health", http.StatusOK}, rec.requests[2])
	assert.Equal(t, http.StatusNotFound, rec.requests[3].status)
}
