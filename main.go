package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sidememo/sidememo/handlers"
	"github.com/sidememo/sidememo/internal/config"
	"github.com/sidememo/sidememo/internal/database"
	"github.com/sidememo/sidememo/internal/memo/handler"
	"github.com/sidememo/sidememo/internal/memo/service"
	"github.com/sidememo/sidememo/internal/panel"
	"github.com/sidememo/sidememo/internal/shell"
	"github.com/sidememo/sidememo/pkg/logger"
	"github.com/sidememo/sidememo/pkg/metrics"
	"github.com/sidememo/sidememo/pkg/middleware"
)

var startTime = time.Now()

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level)
	defer func() { _ = log.Sync() }()
	log.Debugf("startup: LOG_LEVEL=%s", log.LevelString())
	log.Infof("config loaded: backend=%s debounce=%s rate_limit=%v", cfg.Storage.Backend, cfg.Panel.Debounce, cfg.RateLimit.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	area, err := database.OpenArea(ctx, cfg, log)
	if err != nil {
		log.Fatalf("failed to open storage area: %v", err)
	}
	defer area.Close()

	store := service.New(area, service.WithKey(cfg.Storage.Key), service.WithLogger(log.With("component", "store")))

	sh := shell.New(area, log.With("component", "shell"))
	sh.EnsureDefaults(ctx)

	ctrl := panel.New(store,
		panel.WithDebounce(cfg.Panel.Debounce),
		panel.WithLogger(log.With("component", "panel")),
	)
	ctrl.Start(ctx)
	defer ctrl.Close()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && area.Redis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(area.Redis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// ready once the initial memo load has finished
	r.GET("/ready", func(c *gin.Context) {
		deps := map[string]bool{"storage": !ctrl.Snapshot().Loading}
		status, code := "ready", http.StatusOK
		if !deps["storage"] {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "backend": area.Backend, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handler.RegisterMemoRoutes(r, store)
	handlers.RegisterPanelRoutes(r, ctrl)
	handlers.RegisterShellRoutes(r, sh)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Infof("sidememo panel server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// pending auto-saves are persisted before exit
	if err := ctrl.Flush(shutdownCtx); err != nil {
		log.Warnf("final flush failed: %v", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("shutdown: %v", err)
	}
}
