package server

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dangun/myaccount/internal/config"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorHandler_WithStackTrace(t *testing.T) {
	// --- Setup ---
	e := echo.New()

	// 1. Capture log output
	// We temporarily redirect slog's output to a buffer to inspect it.
	var logBuffer bytes.Buffer
	// Create a new logger that writes to our buffer
	handler := slog.NewTextHandler(&logBuffer, &slog.HandlerOptions{
		AddSource: true,
	})
	logger := slog.New(handler)
	// Store the original default logger and defer its restoration
	originalLogger := slog.Default()
	slog.SetDefault(logger)
	defer slog.SetDefault(originalLogger)

	// 2. Set up the error handler we want to test
	setupErrorHandling(e)

	// 3. Define a route that will always produce an unhandled error
	e.GET("/test-unhandled-error", func(c echo.Context) error {
		// This is the kind of error that should trigger our stack trace logging.
		return errors.New("a deliberate unhandled error occurred")
	})

	// --- Act ---
	req := httptest.NewRequest(http.MethodGet, "/test-unhandled-error", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	// --- Assert ---
	// First, check that the HTTP response is correct (a 500 error)
	require.Equal(t, http.StatusInternalServerError, rec.Code, "Expected a 500 Internal Server Error response")

	// Now, check the captured log output
	logOutput := logBuffer.String()

	// Assert that the log contains the key pieces of information
	assert.Contains(t, logOutput, "Internal Server Error (Unhandled)", "Log message should indicate an unhandled error")
	assert.Contains(t, logOutput, "error=\"a deliberate unhandled error occurred\"", "Log should contain the original error message")
	assert.Contains(t, logOutput, "stack_trace=", "Log must contain the stack_trace field")

	// A good stack trace will contain the path to the Go runtime and this test file.
	// This is a strong indicator that a real stack trace was captured.
	assert.Contains(t, logOutput, "runtime/debug/stack.go", "Stack trace should originate from the debug package")
	assert.Contains(t, logOutput, "internal/server/server_test.go", "Stack trace should point back to this test file")
}

// syncBuffer is a bytes.Buffer safe for the auditor goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestServer(t *testing.T) (*Server, *syncBuffer) {
	t.Helper()
	backend := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(backend.Close)

	cfg := &config.Config{
		AppAddr:       ":0",
		BackendURL:    backend.URL,
		SessionSecret: "a-very-secret-key-for-testing-!",
		TokenBackend:  "cookie",
		LoginPath:     config.DefaultLoginPath,
		ListingPath:   config.DefaultListingPath,
		HomePath:      config.DefaultHomePath,
		GuardInFlight: true,
	}
	require.NoError(t, cfg.Validate())

	logs := &syncBuffer{}
	s, err := NewWithConfig(cfg, slog.New(slog.NewTextHandler(logs, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, logs
}

func TestServerRoutes(t *testing.T) {
	s, logs := newTestServer(t)

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("my page without a token sends to login and is recorded", func(t *testing.T) {
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/my-page", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `href="`+config.DefaultLoginPath+`"`)

		assert.Eventually(t, func() bool {
			out := logs.String()
			return strings.Contains(out, "account event") && strings.Contains(out, "flow=guard")
		}, time.Second, 10*time.Millisecond)

		metrics := httptest.NewRecorder()
		s.E.ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, metrics.Code)
		assert.Contains(t, metrics.Body.String(), `myaccount_flow_outcomes_total{flow="guard",outcome="unauthenticated"} 1`)
	})
}

func TestOnlyActionsAreRateLimited(t *testing.T) {
	s, _ := newTestServer(t)

	send := func(method, path string) int {
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "198.51.100.7:4000"
		rec := httptest.NewRecorder()
		s.E.ServeHTTP(rec, req)
		return rec.Code
	}

	denied := 0
	for i := 0; i < actionBurst+5; i++ {
		if send(http.MethodPost, "/my-page/posts") == http.StatusTooManyRequests {
			denied++
		}
	}
	assert.Positive(t, denied, "actions beyond the burst are refused")

	assert.NotEqual(t, http.StatusTooManyRequests, send(http.MethodGet, "/my-page"))
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/health"))
}
