package main

import (
	"net/http"

	"authrelay/internal/config"
	"authrelay/internal/proxy"
	"authrelay/internal/session"

	"github.com/gin-gonic/gin"
)

type appDeps struct {
	cfg     config.Config
	proxy   proxy.Handler
	authMW  gin.HandlerFunc
	limitMW gin.HandlerFunc
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps appDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Client-facing action proxy. Registered with Any so the handler can
	// answer non-POST methods with 405 instead of gin's default 404.
	r.Any(deps.cfg.Proxy.Path, deps.limitMW, deps.proxy.Handle)

	// Authenticated surface: every request runs the CORS guard, proactive
	// refresh, and (for qualifying GET navigations) the code exchange.
	r.GET("/session", deps.authMW, func(c *gin.Context) {
		authenticated := false
		if view, ok := session.FromGin(c); ok {
			_, authenticated = view.Token()
		}
		c.JSON(http.StatusOK, gin.H{"authenticated": authenticated})
	})

	// OAuth/magic-link callbacks land on arbitrary app paths; run the
	// authenticator there too so the code exchange can redirect before the
	// 404 is produced.
	r.NoRoute(deps.authMW, func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
}
