package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sidememo/sidememo/internal/config"
	"github.com/sidememo/sidememo/internal/database"
	"github.com/sidememo/sidememo/internal/memo/handler"
	"github.com/sidememo/sidememo/internal/memo/service"
	"github.com/sidememo/sidememo/pkg/logger"
)

// Store-only service: exposes /api/memos without the panel controller.
func main() {
	log := logger.New(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if v := os.Getenv("MEMO_SERVICE_PORT"); v != "" {
		cfg.Server.Port = v
	}

	r := gin.New()
	r.Use(gin.Recovery())

	area, err := database.OpenArea(context.Background(), cfg, log)
	if err != nil {
		log.Warnf("cannot open %s area (%v), using memory-backed store", cfg.Storage.Backend, err)
		cfg.Storage.Backend = "memory"
		area, _ = database.OpenArea(context.Background(), cfg, log)
	}
	defer area.Close()

	svc := service.New(area, service.WithKey(cfg.Storage.Key), service.WithLogger(log))
	handler.RegisterMemoRoutes(r, svc)

	log.Infof("memo service listening on %s:%s", cfg.Server.Host, cfg.Server.Port)
	if err := r.Run(cfg.Server.Host + ":" + cfg.Server.Port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
