package session

import (
	"net/http"

	"authrelay/internal/tokens"

	"github.com/gin-gonic/gin"
)

// Cookie names for the three session secrets. Each has an independent
// lifecycle; there is no combined session cookie.
const (
	CookieToken        = "auth_token"
	CookieRefreshToken = "auth_refresh_token"
	CookieVerifier     = "auth_verifier"
)

// Config controls Set-Cookie attributes. HttpOnly, SameSite=Lax and
// Path=/ are fixed; browsers must never see these values from script.
type Config struct {
	Domain string
	Secure bool
}

// View is the request-scoped mutable view over the three auth cookies.
//
// A View is created once per request, from the request's Cookie header.
// Reads always reflect in-flight mutations (Strip), so a component
// running after the CORS guard never observes cookies the guard removed.
// Writes and clears are staged and only hit the response on Apply.
//
// Views are not safe for concurrent use; one request owns one View.
type View struct {
	cfg    Config
	values map[string]*string
	dirty  map[string]bool
}

func NewView(r *http.Request, cfg Config) *View {
	v := &View{
		cfg:    cfg,
		values: make(map[string]*string, 3),
		dirty:  make(map[string]bool, 3),
	}
	for _, name := range []string{CookieToken, CookieRefreshToken, CookieVerifier} {
		if ck, err := r.Cookie(name); err == nil {
			val := ck.Value
			v.values[name] = &val
		}
	}
	return v
}

func (v *View) get(name string) (string, bool) {
	p := v.values[name]
	if p == nil {
		return "", false
	}
	return *p, true
}

func (v *View) Token() (string, bool)        { return v.get(CookieToken) }
func (v *View) RefreshToken() (string, bool) { return v.get(CookieRefreshToken) }
func (v *View) Verifier() (string, bool)     { return v.get(CookieVerifier) }

func (v *View) set(name, value string) {
	val := value
	v.values[name] = &val
	v.dirty[name] = true
}

func (v *View) clear(name string) {
	v.values[name] = nil
	v.dirty[name] = true
}

// SetPair stages both auth cookies from a token pair.
func (v *View) SetPair(p tokens.Pair) {
	v.set(CookieToken, p.Token)
	v.set(CookieRefreshToken, p.RefreshToken)
}

// SetVerifier stages the one-time exchange verifier.
func (v *View) SetVerifier(verifier string) {
	v.set(CookieVerifier, verifier)
}

// ClearAll stages deletion of all three cookies on the response.
func (v *View) ClearAll() {
	v.clear(CookieToken)
	v.clear(CookieRefreshToken)
	v.clear(CookieVerifier)
}

// Strip removes all three values from the in-flight view without touching
// the response. Used by the CORS guard: downstream reads see no session,
// but the browser's first-party cookies stay intact.
func (v *View) Strip() {
	v.values[CookieToken] = nil
	v.values[CookieRefreshToken] = nil
	v.values[CookieVerifier] = nil
}

// Apply writes all staged mutations as Set-Cookie headers.
func (v *View) Apply(w http.ResponseWriter) {
	for _, name := range []string{CookieToken, CookieRefreshToken, CookieVerifier} {
		if !v.dirty[name] {
			continue
		}
		ck := &http.Cookie{
			Name:     name,
			Path:     "/",
			Domain:   v.cfg.Domain,
			Secure:   v.cfg.Secure,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		if p := v.values[name]; p != nil {
			ck.Value = *p
		} else {
			ck.MaxAge = -1
		}
		http.SetCookie(w, ck)
	}
}

const ginKey = "session_view"

// WithGin stores the view on the gin context for downstream handlers.
func WithGin(c *gin.Context, v *View) {
	c.Set(ginKey, v)
}

// FromGin pulls the request's view from gin context, if present.
func FromGin(c *gin.Context) (*View, bool) {
	if raw, ok := c.Get(ginKey); ok {
		if v, ok := raw.(*View); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
