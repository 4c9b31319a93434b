package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/http/handlers"
	"github.com/geocoder89/fintrack/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

const cookieName = "session_id"

func newAuthRouter(users handlers.UserStore, sessions *fakeSessions) *gin.Engine {
	cfg := config.Config{Env: "test"}
	cfg.Session.CookieName = cookieName

	sm := middlewares.NewSessionMiddleware(sessions, cookieName)
	h := handlers.NewAuthHandler(users, sessions, nil, nil, cfg)

	r := gin.New()
	r.Use(sm.LoadSession())
	r.POST("/signup", h.SignUp)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/me", sm.RequireSession(), h.Me)
	return r
}

func doRequest(r http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}

	t.Fatalf("no %s cookie in response, headers=%v", cookieName, w.Header())
	return nil
}

const signupBody = `{"first_name":"Lenny","last_name":"Ronaldo","email":"lennyronaldo@gmail.com","phone_number":"0723020507","password":"password123"}`

func TestSignUp_CreatesUserAndStartsSession(t *testing.T) {
	_, users, _ := newFakes()
	sessions := newFakeSessions()
	r := newAuthRouter(users, sessions)

	w := doRequest(r, http.MethodPost, "/signup", signupBody)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, want 201, body=%s", w.Code, w.Body.String())
	}

	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("response must not carry password material: %s", w.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["email"] != "lennyronaldo@gmail.com" || got["id"] != float64(1) {
		t.Fatalf("unexpected body %v", got)
	}

	c := sessionCookie(t, w)
	if !c.HttpOnly || c.Value == "" {
		t.Fatalf("expected an HttpOnly session cookie, got %+v", c)
	}

	me := doRequest(r, http.MethodGet, "/me", "", c)
	if me.Code != http.StatusOK {
		t.Fatalf("GET /me after signup: got %d, body=%s", me.Code, me.Body.String())
	}
}

func TestSignUp_RejectsInvalidAndDuplicate(t *testing.T) {
	_, users, _ := newFakes()
	r := newAuthRouter(users, newFakeSessions())

	bad := strings.Replace(signupBody, "0723020507", "0823020507", 1)
	if w := doRequest(r, http.MethodPost, "/signup", bad); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid phone: got %d, want 400", w.Code)
	}

	if w := doRequest(r, http.MethodPost, "/signup", signupBody); w.Code != http.StatusCreated {
		t.Fatalf("first signup: got %d", w.Code)
	}

	w := doRequest(r, http.MethodPost, "/signup", signupBody)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate email: got %d, want 409, body=%s", w.Code, w.Body.String())
	}
}

func TestSignUp_SessionFailure(t *testing.T) {
	_, users, _ := newFakes()
	sessions := newFakeSessions()
	sessions.startErr = errBoom
	r := newAuthRouter(users, sessions)

	w := doRequest(r, http.MethodPost, "/signup", signupBody)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), errBoom.Error()) {
		t.Fatalf("internal error leaked: %s", w.Body.String())
	}
}

func TestLogin(t *testing.T) {
	_, users, _ := newFakes()
	seedUser(users, "lennyronaldo@gmail.com")
	r := newAuthRouter(users, newFakeSessions())

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantBody string
	}{
		{
			name:     "correct credentials",
			body:     `{"email":"lennyronaldo@gmail.com","password":"password123"}`,
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password",
			body:     `{"email":"lennyronaldo@gmail.com","password":"nope"}`,
			wantCode: http.StatusUnauthorized,
			wantBody: `{"error":"Invalid email or password"}`,
		},
		{
			name:     "unknown email",
			body:     `{"email":"ghost@gmail.com","password":"password123"}`,
			wantCode: http.StatusUnauthorized,
			wantBody: `{"error":"Invalid email or password"}`,
		},
		{
			name:     "missing password",
			body:     `{"email":"lennyronaldo@gmail.com"}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/login", tt.body)

			if w.Code != tt.wantCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantCode, w.Body.String())
			}

			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Fatalf("got body %s, want %s", w.Body.String(), tt.wantBody)
			}

			if tt.wantCode == http.StatusOK {
				sessionCookie(t, w)
			}
		})
	}
}

func TestLogin_StoreFailureIsNotAnAuthFailure(t *testing.T) {
	_, users, _ := newFakes()
	users.getErr = errBoom
	r := newAuthRouter(users, newFakeSessions())

	w := doRequest(r, http.MethodPost, "/login", `{"email":"a@b.co","password":"x"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got %d, want 500", w.Code)
	}
}

func TestLogin_ReplacesExistingSession(t *testing.T) {
	_, users, _ := newFakes()
	seedUser(users, "lennyronaldo@gmail.com")
	sessions := newFakeSessions()
	r := newAuthRouter(users, sessions)

	body := `{"email":"lennyronaldo@gmail.com","password":"password123"}`
	first := sessionCookie(t, doRequest(r, http.MethodPost, "/login", body))
	second := sessionCookie(t, doRequest(r, http.MethodPost, "/login", body, first))

	if first.Value == second.Value {
		t.Fatalf("expected a fresh token")
	}

	if len(sessions.ended) != 1 || sessions.ended[0] != first.Value {
		t.Fatalf("old session should be ended, ended=%v", sessions.ended)
	}
}

func TestLogout_IsIdempotent(t *testing.T) {
	_, users, _ := newFakes()
	seedUser(users, "lennyronaldo@gmail.com")
	r := newAuthRouter(users, newFakeSessions())

	login := doRequest(r, http.MethodPost, "/login", `{"email":"lennyronaldo@gmail.com","password":"password123"}`)
	c := sessionCookie(t, login)

	for i := 0; i < 2; i++ {
		w := doRequest(r, http.MethodPost, "/logout", "", c)
		if w.Code != http.StatusOK {
			t.Fatalf("logout #%d: got %d", i+1, w.Code)
		}
		if w.Body.String() != `{"message":"Logged out successfully"}` {
			t.Fatalf("unexpected body %s", w.Body.String())
		}
	}

	if w := doRequest(r, http.MethodGet, "/me", "", c); w.Code != http.StatusUnauthorized {
		t.Fatalf("GET /me after logout: got %d, want 401", w.Code)
	}

	if w := doRequest(r, http.MethodPost, "/logout", ""); w.Code != http.StatusOK {
		t.Fatalf("anonymous logout: got %d", w.Code)
	}
}

func TestMe_DeletedUserEndsSession(t *testing.T) {
	_, users, _ := newFakes()
	u := seedUser(users, "lennyronaldo@gmail.com")
	sessions := newFakeSessions()
	r := newAuthRouter(users, sessions)

	c := sessionCookie(t, doRequest(r, http.MethodPost, "/login", `{"email":"lennyronaldo@gmail.com","password":"password123"}`))

	if _, err := users.UsersRepo.Delete(t.Context(), u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if w := doRequest(r, http.MethodGet, "/me", "", c); w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}

	if _, ok := sessions.live[c.Value]; ok {
		t.Fatalf("session for a deleted user should be ended")
	}
}

func doRequestWithHeader(r http.Handler, method, path, key, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set(key, value)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
