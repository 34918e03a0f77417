package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestSessionMiddleware_WithValidCookie(t *testing.T) {
	m := NewSessionMiddleware("test-secret")
	id := uuid.NewString()

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		got, ok := GetSessionIDFromContext(r.Context())
		if !ok {
			t.Fatalf("session id not in context")
		}
		if got != id {
			t.Fatalf("session id from context = %s, want %s", got, id)
		}
	})

	w := httptest.NewRecorder()
	m.SetSessionCookie(w, id)
	resCookies := w.Result().Cookies()
	if len(resCookies) == 0 {
		t.Fatalf("no cookies set by SetSessionCookie")
	}

	r := httptest.NewRequest(http.MethodGet, "/checkout", nil)
	r.AddCookie(resCookies[0])

	rec := httptest.NewRecorder()
	m.Middleware(next).ServeHTTP(rec, r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("valid session must not be reissued")
	}
}

func TestSessionMiddleware_WithoutCookieIssuesSession(t *testing.T) {
	m := NewSessionMiddleware("test-secret")

	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetSessionIDFromContext(r.Context())
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	m.Middleware(next).ServeHTTP(w, r)

	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("session id %q is not a uuid", got)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName {
		t.Fatalf("expected new session cookie, got %+v", cookies)
	}
}

func TestSessionMiddleware_ForgedCookie(t *testing.T) {
	m := NewSessionMiddleware("test-secret")
	other := NewSessionMiddleware("other-secret")
	id := uuid.NewString()

	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetSessionIDFromContext(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: sessionCookieName, Value: other.sign(id)})
	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)

	if got == id {
		t.Fatalf("forged cookie must not be accepted")
	}

	for _, v := range []string{"", "no-dot", "not-a-uuid.abc"} {
		if _, ok := m.parseCookie(v); ok {
			t.Fatalf("parseCookie(%q) must fail", v)
		}
	}
}
