package authflow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"authrelay/internal/backend"
	"authrelay/internal/session"
	"authrelay/internal/tokens"
)

func navRequest(target, accept string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	if accept != "" {
		r.Header.Set("Accept", accept)
	}
	return r
}

func TestShouldExchange(t *testing.T) {
	htmlAccept := "text/html,application/xhtml+xml"
	cases := []struct {
		name string
		req  *http.Request
		want bool
	}{
		{"qualifying navigation", navRequest("/cb?code=abc123", htmlAccept), true},
		{"no code param", navRequest("/cb?state=x", htmlAccept), false},
		{"empty code", navRequest("/cb?code=", htmlAccept), false},
		{"json accept", navRequest("/cb?code=abc123", "application/json"), false},
		{"missing accept", navRequest("/cb?code=abc123", ""), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldExchange(tc.req); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}

	post := httptest.NewRequest(http.MethodPost, "/cb?code=abc123", nil)
	post.Header.Set("Accept", htmlAccept)
	if ShouldExchange(post) {
		t.Fatalf("POST must not qualify")
	}
}

func TestExchange_SuccessSetsCookiesAndStripsCode(t *testing.T) {
	inv := &fakeInvoker{res: backend.Result{
		Kind:   backend.KindTokens,
		Tokens: &tokens.Pair{Token: "t2", RefreshToken: "r2"},
	}}
	r := navRequest("/cb?code=abc123", "text/html")
	r.AddCookie(&http.Cookie{Name: session.CookieVerifier, Value: "v1"})
	view := session.NewView(r, session.Config{})

	target, err := NewExchanger(inv).Exchange(context.Background(), r, view)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if target != "/cb" {
		t.Fatalf("expected code-stripped target /cb, got %q", target)
	}

	if inv.lastAction != backend.ActionSignIn {
		t.Fatalf("unexpected action %q", inv.lastAction)
	}
	params, ok := inv.lastArgs["params"].(map[string]any)
	if !ok || params["code"] != "abc123" {
		t.Fatalf("unexpected params: %v", inv.lastArgs["params"])
	}
	if inv.lastArgs["verifier"] != "v1" {
		t.Fatalf("expected stored verifier, got %v", inv.lastArgs["verifier"])
	}

	w := httptest.NewRecorder()
	view.Apply(w)
	got := map[string]string{}
	for _, ck := range w.Result().Cookies() {
		got[ck.Name] = ck.Value
	}
	if got[session.CookieToken] != "t2" || got[session.CookieRefreshToken] != "r2" {
		t.Fatalf("expected new pair staged, got %v", got)
	}
}

func TestExchange_KeepsOtherQueryParams(t *testing.T) {
	inv := &fakeInvoker{res: backend.Result{
		Kind:   backend.KindTokens,
		Tokens: &tokens.Pair{Token: "t2", RefreshToken: "r2"},
	}}
	r := navRequest("/cb?code=abc123&state=s1", "text/html")
	view := session.NewView(r, session.Config{})

	target, err := NewExchanger(inv).Exchange(context.Background(), r, view)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if target != "/cb?state=s1" {
		t.Fatalf("expected state to survive, got %q", target)
	}
}

func TestExchange_MissingVerifierStillAttempts(t *testing.T) {
	inv := &fakeInvoker{res: backend.Result{
		Kind:   backend.KindTokens,
		Tokens: &tokens.Pair{Token: "t2", RefreshToken: "r2"},
	}}
	r := navRequest("/cb?code=abc123", "text/html")
	view := session.NewView(r, session.Config{})

	if _, err := NewExchanger(inv).Exchange(context.Background(), r, view); err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if !inv.called {
		t.Fatalf("exchange must be attempted without a verifier")
	}
	if _, present := inv.lastArgs["verifier"]; present {
		t.Fatalf("verifier arg must be omitted when the cookie is absent")
	}
}

func TestExchange_FailureClearsCookiesButRedirects(t *testing.T) {
	cases := []struct {
		name string
		inv  *fakeInvoker
	}{
		{"transport error", &fakeInvoker{err: errors.New("connection refused")}},
		{"tokens null", &fakeInvoker{res: backend.Result{Kind: backend.KindTokens}}},
		{"no tokens field", &fakeInvoker{res: backend.Result{Kind: backend.KindEmpty}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := navRequest("/cb?code=abc123", "text/html")
			r.AddCookie(&http.Cookie{Name: session.CookieToken, Value: "t1"})
			r.AddCookie(&http.Cookie{Name: session.CookieRefreshToken, Value: "r1"})
			r.AddCookie(&http.Cookie{Name: session.CookieVerifier, Value: "v1"})
			view := session.NewView(r, session.Config{})

			target, err := NewExchanger(tc.inv).Exchange(context.Background(), r, view)
			if err == nil {
				t.Fatalf("expected an error for logging")
			}
			if target != "/cb" {
				t.Fatalf("failure must still redirect to the cleaned URL, got %q", target)
			}

			w := httptest.NewRecorder()
			view.Apply(w)
			for _, ck := range w.Result().Cookies() {
				if ck.MaxAge >= 0 {
					t.Fatalf("expected %s cleared, got %+v", ck.Name, ck)
				}
			}
			if n := len(w.Result().Cookies()); n != 3 {
				t.Fatalf("expected all three cookies cleared, got %d", n)
			}
		})
	}
}
