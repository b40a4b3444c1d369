package authflow

import (
	"net/http"
	"net/url"
	"strings"

	"authrelay/internal/session"
)

// IsCrossOrigin reports whether the request carries an Origin header that
// does not match the serving host. Requests without an Origin header
// (regular navigations, same-origin fetches in older browsers) are
// first-party. An unparseable Origin ("null", garbage) is untrusted.
func IsCrossOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return true
	}
	return !strings.EqualFold(u.Host, r.Host)
}

// GuardCookies strips all auth cookies from the in-flight view when the
// request is cross-origin, before any other component reads them. It never
// touches the response; the browser keeps its first-party cookies.
func GuardCookies(r *http.Request, view *session.View) bool {
	if !IsCrossOrigin(r) {
		return false
	}
	view.Strip()
	return true
}
