package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"authrelay/internal/audit"
	"authrelay/internal/authflow"
	"authrelay/internal/backend"
	"authrelay/internal/config"
	"authrelay/internal/proxy"
	"authrelay/internal/ratelimit"
	"authrelay/internal/session"
	"authrelay/pkg/logger"
	"authrelay/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	invoker := backend.NewClient(cfg.Backend.URL, cfg.Backend.ActionTimeout)
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	cookies := session.Config{
		Domain: cfg.Proxy.CookieDomain,
		Secure: cfg.SecureCookies(),
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, appDeps{
		cfg: cfg,
		proxy: proxy.Handler{
			Invoker: invoker,
			Cookies: cookies,
			Audit:   auditSvc,
		},
		authMW:  authflow.Middleware(authflow.New(invoker, auditSvc), cookies),
		limitMW: ratelimit.Middleware(ratelimit.NewLimiter(ratelimit.NewRedisStore(rdb), cfg.Limit.ProxyPerMinute)),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("relay listening", "addr", srv.Addr, "env", cfg.App.Env, "proxy_path", cfg.Proxy.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
