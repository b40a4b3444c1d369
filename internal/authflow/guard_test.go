package authflow

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"authrelay/internal/session"
)

func guardRequest(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Host = "relay.example"
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestIsCrossOrigin(t *testing.T) {
	cases := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin header", "", false},
		{"same origin", "https://relay.example", false},
		{"same origin http", "http://relay.example", false},
		{"case-insensitive host", "https://RELAY.example", false},
		{"different host", "https://evil.example", true},
		{"different port", "https://relay.example:8443", true},
		{"subdomain", "https://sub.relay.example", true},
		{"opaque null origin", "null", true},
		{"garbage", "::::", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCrossOrigin(guardRequest(tc.origin)); got != tc.want {
				t.Fatalf("origin %q: got %v, want %v", tc.origin, got, tc.want)
			}
		})
	}
}

func TestGuardCookies_StripsAllThreeOnCrossOrigin(t *testing.T) {
	r := guardRequest("https://evil.example")
	r.AddCookie(&http.Cookie{Name: session.CookieToken, Value: "t1"})
	r.AddCookie(&http.Cookie{Name: session.CookieRefreshToken, Value: "r1"})
	r.AddCookie(&http.Cookie{Name: session.CookieVerifier, Value: "v1"})
	view := session.NewView(r, session.Config{})

	if !GuardCookies(r, view) {
		t.Fatalf("expected cross-origin detection")
	}
	if _, ok := view.Token(); ok {
		t.Fatalf("token must be stripped")
	}
	if _, ok := view.RefreshToken(); ok {
		t.Fatalf("refresh token must be stripped")
	}
	if _, ok := view.Verifier(); ok {
		t.Fatalf("verifier must be stripped")
	}
}

func TestGuardCookies_LeavesFirstPartyRequestsAlone(t *testing.T) {
	r := guardRequest("")
	r.AddCookie(&http.Cookie{Name: session.CookieToken, Value: "t1"})
	view := session.NewView(r, session.Config{})

	if GuardCookies(r, view) {
		t.Fatalf("no Origin header must not be treated as cross-origin")
	}
	if _, ok := view.Token(); !ok {
		t.Fatalf("token must survive")
	}
}
