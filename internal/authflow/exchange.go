package authflow

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"authrelay/internal/backend"
	"authrelay/internal/session"
)

// ShouldExchange reports whether the request is a qualifying navigation
// for authorization-code exchange: a GET that accepts HTML and carries a
// code query parameter.
func ShouldExchange(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if !strings.Contains(r.Header.Get("Accept"), "text/html") {
		return false
	}
	return r.URL.Query().Get("code") != ""
}

// strippedURL is the request URL with the code parameter removed and all
// other parameters kept.
func strippedURL(u *url.URL) string {
	clean := *u
	q := clean.Query()
	q.Del("code")
	clean.RawQuery = q.Encode()
	return clean.String()
}

// Exchanger completes a redirect-based sign-in by trading the one-time
// authorization code (plus the stored verifier) for a token pair.
type Exchanger struct {
	invoker backend.Invoker
}

func NewExchanger(invoker backend.Invoker) *Exchanger {
	return &Exchanger{invoker: invoker}
}

// Exchange performs the code exchange and stages the resulting cookie
// writes on the view. The returned target is always the code-stripped URL;
// the user lands there exactly once whether or not the exchange worked.
// The error reports why authentication failed, for logging only.
func (e *Exchanger) Exchange(ctx context.Context, r *http.Request, view *session.View) (string, error) {
	target := strippedURL(r.URL)

	args := map[string]any{
		"params": map[string]any{"code": r.URL.Query().Get("code")},
	}
	// The verifier may legitimately be absent (e.g. the challenge started
	// on another device); the backend decides whether to accept that.
	if verifier, ok := view.Verifier(); ok {
		args["verifier"] = verifier
	}

	res, err := e.invoker.Invoke(ctx, backend.ActionSignIn, args, backend.CallOptions{})
	if err == nil && res.Kind == backend.KindTokens && res.Tokens != nil {
		view.SetPair(*res.Tokens)
		return target, nil
	}

	view.ClearAll()
	if err == nil {
		err = backend.ErrBadShape
		if res.Kind == backend.KindTokens {
			// tokens: null — a clean rejection, not a shape fault.
			err = errExchangeRejected
		}
	}
	return target, err
}

var errExchangeRejected = errors.New("authflow: backend rejected the authorization code")
