package integration_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/geocoder89/fintrack/internal/repo/memory"
)

func memoryStores(t *testing.T) stores {
	s := memory.NewStore(nil)
	return stores{users: s.Users(), transactions: s.Transactions()}
}

func TestAPI_MemoryStore(t *testing.T) {
	runScenarios(t, memoryStores)
}

func TestAPI_Welcome(t *testing.T) {
	router, _ := newRouter(t, memoryStores(t))

	w, _ := doRequest(router, http.MethodGet, "/welcome", "")
	if w.Code != http.StatusOK || w.Body.String() != `{"message":"Transactions enabled!"}` {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}

	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("security headers missing")
	}

	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id missing")
	}
}

func TestAPI_RejectsNonJSONWrites(t *testing.T) {
	router, _ := newRouter(t, memoryStores(t))

	req := strings.NewReader("first_name=Lenny")
	r, _ := http.NewRequest(http.MethodPost, "/users", req)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptestRecorder(router, r)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", w.Code)
	}
}

func TestAPI_CORSPreflight(t *testing.T) {
	router, _ := newRouter(t, memoryStores(t))

	r, _ := http.NewRequest(http.MethodOptions, "/users/1", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	r.Header.Set("Access-Control-Request-Method", "PATCH")

	w := httptestRecorder(router, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}

	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PATCH") {
		t.Fatalf("PATCH not allowed: %q", got)
	}

	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("credentials must be allowed for the session cookie")
	}
}

func TestAPI_MetricsCountLogins(t *testing.T) {
	router, reg := newRouter(t, memoryStores(t))

	doRequest(router, http.MethodPost, "/signup", lennySignup)
	doRequest(router, http.MethodPost, "/login", `{"email":"lennyronaldo@gmail.com","password":"nope"}`)

	w, _ := doRequest(router, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if !strings.Contains(w.Body.String(), `fintrack_auth_login_attempts_total{result="failure"} 1`) {
		t.Fatalf("login failure not counted:\n%s", w.Body.String())
	}

	families, err := reg.Gather()
	if err != nil || len(families) == 0 {
		t.Fatalf("gather: %v", err)
	}
}
