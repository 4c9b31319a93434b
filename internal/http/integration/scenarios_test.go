package integration_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/geocoder89/fintrack/internal/domain/user"
)

const lennySignup = `{"first_name":"Lenny","last_name":"Ronaldo","email":"lennyronaldo@gmail.com","phone_number":"0723020507","password":"password123"}`

// runScenarios exercises the public API end to end against whatever store
// newStores returns. Each subtest gets a fresh store.
func runScenarios(t *testing.T, newStores func(t *testing.T) stores) {
	t.Run("signup starts a session and hides the hash", func(t *testing.T) {
		router, _ := newRouter(t, newStores(t))

		w, resp := doRequest(router, http.MethodPost, "/signup", lennySignup)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
		}

		if strings.Contains(w.Body.String(), "password") || strings.Contains(w.Body.String(), "$2a$") {
			t.Fatalf("response leaks password material: %s", w.Body.String())
		}

		cookie := extractSessionCookie(t, resp)

		w, _ = doRequest(router, http.MethodGet, "/me", "", cookie)
		if w.Code != http.StatusOK {
			t.Fatalf("GET /me expected 200, got %d", w.Code)
		}

		var me user.View
		mustReadJSON(t, w, &me)
		if me.Email != "lennyronaldo@gmail.com" || me.PhoneNumber != "0723020507" {
			t.Fatalf("unexpected /me body %+v", me)
		}
	})

	t.Run("login accepts the right password only", func(t *testing.T) {
		router, _ := newRouter(t, newStores(t))

		w, _ := doRequest(router, http.MethodPost, "/signup", lennySignup)
		var created user.View
		mustReadJSON(t, w, &created)

		w, resp := doRequest(router, http.MethodPost, "/login", `{"email":"lennyronaldo@gmail.com","password":"password123"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
		}

		var loggedIn user.View
		mustReadJSON(t, w, &loggedIn)
		if loggedIn.ID != created.ID || loggedIn.Email != created.Email {
			t.Fatalf("login returned %+v, want %+v", loggedIn, created)
		}
		cookie := extractSessionCookie(t, resp)

		w, _ = doRequest(router, http.MethodPost, "/login", `{"email":"lennyronaldo@gmail.com","password":"wrong"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		if w.Body.String() != `{"error":"Invalid email or password"}` {
			t.Fatalf("unexpected 401 body %s", w.Body.String())
		}

		w, _ = doRequest(router, http.MethodPost, "/logout", "", cookie)
		if w.Code != http.StatusOK {
			t.Fatalf("logout expected 200, got %d", w.Code)
		}

		w, _ = doRequest(router, http.MethodGet, "/me", "", cookie)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("GET /me after logout expected 401, got %d", w.Code)
		}

		w, _ = doRequest(router, http.MethodPost, "/logout", "")
		if w.Code != http.StatusOK {
			t.Fatalf("anonymous logout expected 200, got %d", w.Code)
		}
	})

	t.Run("transactions require an existing owner", func(t *testing.T) {
		router, _ := newRouter(t, newStores(t))

		w, _ := doRequest(router, http.MethodPost, "/users", lennySignup)
		var owner user.View
		mustReadJSON(t, w, &owner)

		body := fmt.Sprintf(`{"amount":1500,"transaction_type":"expense","category":"shopping","description":"New clothes at Sarit","user_id":%d}`, owner.ID)
		w, _ = doRequest(router, http.MethodPost, "/transactions", body)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
		}

		var created transaction.Transaction
		mustReadJSON(t, w, &created)
		if created.ID == 0 || created.Date.IsZero() {
			t.Fatalf("expected generated id and date, got %+v", created)
		}

		w, _ = doRequest(router, http.MethodPost, "/transactions", `{"amount":1500,"transaction_type":"expense","user_id":4242}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("orphan transaction expected 400, got %d", w.Code)
		}
	})

	t.Run("deleting a user removes its transactions", func(t *testing.T) {
		router, _ := newRouter(t, newStores(t))

		w, _ := doRequest(router, http.MethodPost, "/users", lennySignup)
		var owner user.View
		mustReadJSON(t, w, &owner)

		other := strings.Replace(strings.Replace(lennySignup, "lennyronaldo", "sarah.kamau", 1), "0723020507", "0712345678", 1)
		w, _ = doRequest(router, http.MethodPost, "/users", other)
		var bystander user.View
		mustReadJSON(t, w, &bystander)

		ids := make(map[int64]bool)
		for i := 1; i <= 3; i++ {
			body := fmt.Sprintf(`{"amount":%d,"transaction_type":"expense","user_id":%d}`, i*100, owner.ID)
			w, _ = doRequest(router, http.MethodPost, "/transactions", body)
			var tx transaction.Transaction
			mustReadJSON(t, w, &tx)
			ids[tx.ID] = true
		}

		doRequest(router, http.MethodPost, "/transactions", fmt.Sprintf(`{"amount":5,"transaction_type":"income","user_id":%d}`, bystander.ID))

		w, _ = doRequest(router, http.MethodDelete, fmt.Sprintf("/users/%d", owner.ID), "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
		}

		w, _ = doRequest(router, http.MethodGet, "/transactions", "")
		var left []transaction.Transaction
		mustReadJSON(t, w, &left)

		for _, tx := range left {
			if ids[tx.ID] || tx.UserID == owner.ID {
				t.Fatalf("transaction %d survived its owner", tx.ID)
			}
		}
		if len(left) != 1 {
			t.Fatalf("expected the bystander's transaction to remain, got %+v", left)
		}

		w, _ = doRequest(router, http.MethodGet, fmt.Sprintf("/users/%d", owner.ID), "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("deleted user expected 404, got %d", w.Code)
		}
	})

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		router, _ := newRouter(t, newStores(t))

		w, _ := doRequest(router, http.MethodPost, "/users", lennySignup)
		var u user.View
		mustReadJSON(t, w, &u)

		w, _ = doRequest(router, http.MethodPatch, fmt.Sprintf("/users/%d", u.ID), `{"last_name":"B"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
		}

		var updated user.View
		mustReadJSON(t, w, &updated)
		if updated.FirstName != "Lenny" || updated.LastName != "B" {
			t.Fatalf("unexpected update result %+v", updated)
		}

		w, _ = doRequest(router, http.MethodPatch, fmt.Sprintf("/users/%d", u.ID), `{"password":"new-password"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("password change expected 200, got %d", w.Code)
		}

		w, _ = doRequest(router, http.MethodPost, "/login", `{"email":"lennyronaldo@gmail.com","password":"new-password"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("login with new password expected 200, got %d", w.Code)
		}
	})
}
