package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatsapp-crm-gateway/internal/api"
	"whatsapp-crm-gateway/internal/config"
	"whatsapp-crm-gateway/internal/database"
	"whatsapp-crm-gateway/internal/gateway"
	"whatsapp-crm-gateway/internal/logging"
	"whatsapp-crm-gateway/internal/poller"
	"whatsapp-crm-gateway/internal/store"
	"whatsapp-crm-gateway/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.Init(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitGorm(cfg)
	if err := database.SeedDefaultTenant(database.GormDB, cfg); err != nil {
		log.Fatalf("Failed to seed default tenant: %v", err)
	}
	tenants := store.NewTenantStore(database.GormDB)

	table := gateway.DefaultTable()
	if cfg.CandidatesFile != "" {
		var err error
		if table, err = gateway.LoadTable(cfg.CandidatesFile); err != nil {
			log.Fatalf("Failed to load candidates: %v", err)
		}
		logger.Info("extra endpoint candidates loaded", "file", cfg.CandidatesFile)
	}

	registry := gateway.NewRegistry(tenants,
		gateway.WithTable(table),
		gateway.WithAttemptTimeout(cfg.ProbeTimeout),
		gateway.WithRetries(cfg.ProbeRetries),
		gateway.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	statusPoller := &poller.StatusPoller{
		Gateways: registry,
		Tenants:  enabledTenants(tenants),
		Notifier: hub,
		Interval: cfg.StatusPollInterval,
		Logger:   logger,
	}
	if cfg.StatusPollInterval > 0 {
		go statusPoller.Run(ctx)
	}

	r := api.NewRouter(api.RouterConfig{
		DefaultTenant:  cfg.DefaultTenant,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger,
	}, api.NewGatewayHandler(registry, hub))

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("server starting", "port", cfg.Port, "default_tenant", cfg.DefaultTenant)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to run server: %v", err)
	}
	logger.Info("server stopped")
}

func enabledTenants(s *store.TenantStore) func(context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		list, err := s.List(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(list))
		for _, t := range list {
			if t.Enabled {
				ids = append(ids, t.ID)
			}
		}
		return ids, nil
	}
}

