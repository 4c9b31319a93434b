package integration_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/fintrack/internal/config"
	apphttp "github.com/geocoder89/fintrack/internal/http"
	"github.com/geocoder89/fintrack/internal/http/handlers"
	"github.com/geocoder89/fintrack/internal/observability"
	"github.com/geocoder89/fintrack/internal/session"
	"github.com/geocoder89/fintrack/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const cookieName = "session_id"

func testConfig() config.Config {
	cfg := config.Config{
		Env:           "test",
		CORSOrigins:   []string{"http://localhost:5173"},
		PhonePrefixes: validation.DefaultPhonePrefixes,
		MaxBodyBytes:  1 << 20,
	}
	cfg.Session.Secret = "test-secret-key"
	cfg.Session.TTL = time.Hour
	cfg.Session.CookieName = cookieName
	return cfg
}

type stores struct {
	users        handlers.UserStore
	transactions handlers.TransactionStore
}

// newRouter wires the full middleware stack around the given stores with
// in-memory sessions and a private metrics registry.
func newRouter(t *testing.T, s stores) (*gin.Engine, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := testConfig()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	router, err := apphttp.NewRouter(logger, cfg, apphttp.Deps{
		Users:        s.users,
		Transactions: s.transactions,
		Sessions:     session.NewManager(session.NewMemoryBackend(), cfg.Session.Secret, cfg.Session.TTL, prom),
		Prom:         prom,
		Gatherer:     reg,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	return router, reg
}

func extractSessionCookie(t *testing.T, response *http.Response) *http.Cookie {
	t.Helper()

	for _, c := range response.Cookies() {
		if c.Name == cookieName && c.Value != "" {
			return c
		}
	}

	t.Fatalf("%s cookie not found in response", cookieName)

	return nil
}

// doRequest runs a request and returns the recorder and the parsed response
// for cookies.
func doRequest(router http.Handler, method, path string, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, *http.Response) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" && (method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch) {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w, w.Result()
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

func httptestRecorder(router http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}
