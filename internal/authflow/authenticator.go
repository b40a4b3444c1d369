package authflow

import (
	"context"
	"net"
	"net/http"

	"authrelay/internal/audit"
	"authrelay/internal/backend"
	"authrelay/internal/session"
	"authrelay/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Decision is what the hosting request pipeline merges into the response
// it was already building: either a redirect (code exchange happened) or
// a refresh outcome whose cookie effects are already staged on the view.
type Decision struct {
	// Redirect, when non-empty, short-circuits the request with a 302.
	Redirect string

	Outcome Outcome
}

// Authenticator runs the per-request pipeline: CORS guard, proactive
// refresh, and (for qualifying GET navigations) authorization-code
// exchange.
type Authenticator struct {
	sched *Scheduler
	exch  *Exchanger
	audit *audit.Service
}

// New builds an Authenticator. auditSvc may be nil.
func New(invoker backend.Invoker, auditSvc *audit.Service) *Authenticator {
	return &Authenticator{
		sched: NewScheduler(invoker),
		exch:  NewExchanger(invoker),
		audit: auditSvc,
	}
}

// Authenticate runs the pipeline once for the given request, staging all
// cookie effects on the view. It never fails the request: authentication
// ambiguity resolves toward "signed out".
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request, view *session.View) Decision {
	log := logger.From(ctx)

	GuardCookies(r, view)

	out, err := a.sched.Evaluate(ctx, view)
	if err != nil {
		// Backend invariant violation; for navigations availability wins,
		// so degrade to signed-out instead of failing the request.
		log.Error("token refresh fault", "err", err)
	}
	switch out.Kind {
	case OutcomeInvalid:
		// Keep the in-flight verifier across the cleanup: a navigation
		// arriving mid-OAuth with broken auth cookies can still complete
		// its code exchange.
		verifier, hadVerifier := view.Verifier()
		view.ClearAll()
		if hadVerifier && ShouldExchange(r) {
			view.SetVerifier(verifier)
		}
		_ = a.audit.Record(ctx, audit.EventTypeRefresh, false, clientIP(r), "session invalidated")
	case OutcomeRefreshed:
		view.SetPair(*out.Tokens)
		_ = a.audit.Record(ctx, audit.EventTypeRefresh, true, clientIP(r), "")
	}

	if !ShouldExchange(r) {
		return Decision{Outcome: out}
	}

	target, xerr := a.exch.Exchange(ctx, r, view)
	if xerr != nil {
		log.Warn("code exchange failed", "err", xerr)
	}
	_ = a.audit.Record(ctx, audit.EventTypeCodeExchange, xerr == nil, clientIP(r), "")
	return Decision{Redirect: target, Outcome: out}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Middleware adapts the authenticator to gin: it builds the request's
// cookie view, runs the pipeline, applies staged cookies, and either
// redirects or hands the view to downstream handlers.
func Middleware(a *Authenticator, cookies session.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		view := session.NewView(c.Request, cookies)

		d := a.Authenticate(c.Request.Context(), c.Request, view)
		view.Apply(c.Writer)

		if d.Redirect != "" {
			c.Redirect(http.StatusFound, d.Redirect)
			c.Abort()
			return
		}

		session.WithGin(c, view)
		c.Next()
	}
}
