package proxy

import (
	"net/http"

	"authrelay/internal/audit"
	"authrelay/internal/authflow"
	"authrelay/internal/backend"
	"authrelay/internal/session"
	"authrelay/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler is the client-facing action proxy. It brokers auth:signIn and
// auth:signOut between browser fetches and the backend, substituting the
// cookie-held refresh token for the client's placeholder and attaching the
// cookie-held access token as the bearer credential.
//
// Keep it thin: parse/validate input, call the invoker, shape the result.
type Handler struct {
	Invoker backend.Invoker
	Cookies session.Config
	Audit   *audit.Service
}

type actionRequest struct {
	Action string         `json:"action"`
	Args   map[string]any `json:"args"`
}

func (h Handler) Handle(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		return
	}
	// Reject silently: a cross-origin page learns nothing about session
	// state, not even whether one exists.
	if authflow.IsCrossOrigin(c.Request) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "cross-origin request rejected"})
		return
	}

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	action := backend.Action(req.Action)
	if action != backend.ActionSignIn && action != backend.ActionSignOut {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
		return
	}

	view := session.NewView(c.Request, h.Cookies)
	args := req.Args
	if args == nil {
		args = map[string]any{}
	}
	opts := backend.CallOptions{}

	_, wantsStoredRefresh := args["refreshToken"]
	if action == backend.ActionSignIn && wantsStoredRefresh {
		// The client sent the placeholder: swap in the real secret. With no
		// stored secret there is no session to resume; answer as a clean
		// "not signed in" rather than an error.
		real, ok := view.RefreshToken()
		if !ok {
			c.JSON(http.StatusOK, gin.H{"tokens": nil})
			return
		}
		args["refreshToken"] = real
	} else {
		// Server-held identity rides along without client involvement.
		if tok, ok := view.Token(); ok {
			opts.Token = tok
		}
	}

	eventType := audit.EventTypeSignIn
	if action == backend.ActionSignOut {
		eventType = audit.EventTypeSignOut
	}

	res, err := h.Invoker.Invoke(c.Request.Context(), action, args, opts)
	if err != nil {
		logger.FromGin(c).Error("proxy action failed", "action", string(action), "err", err)
		_ = h.Audit.Record(c.Request.Context(), eventType, false, c.ClientIP(), "backend call failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "backend action failed"})
		return
	}
	_ = h.Audit.Record(c.Request.Context(), eventType, true, c.ClientIP(), "")

	switch res.Kind {
	case backend.KindRedirect:
		view.SetVerifier(res.Verifier)
		view.Apply(c.Writer)
		c.JSON(http.StatusOK, gin.H{"redirect": res.Redirect})
	case backend.KindTokens:
		if res.Tokens != nil {
			view.SetPair(*res.Tokens)
			view.Apply(c.Writer)
			c.JSON(http.StatusOK, gin.H{"tokens": res.Tokens.ForClient()})
			return
		}
		view.ClearAll()
		view.Apply(c.Writer)
		c.JSON(http.StatusOK, gin.H{"tokens": nil})
	default:
		// Bodyless success (signOut): the session is over either way.
		view.ClearAll()
		view.Apply(c.Writer)
		c.JSON(http.StatusOK, nil)
	}
}
