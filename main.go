package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/finbuddy/chat-relay/internal/adapter/advice"
	"github.com/finbuddy/chat-relay/internal/adapter/whatsapp"
	"github.com/finbuddy/chat-relay/internal/config"
	"github.com/finbuddy/chat-relay/internal/metrics"
	"github.com/finbuddy/chat-relay/internal/ratelimit"
	"github.com/finbuddy/chat-relay/internal/service"
	"github.com/finbuddy/chat-relay/internal/session"
	"github.com/finbuddy/chat-relay/internal/store"
	transport "github.com/finbuddy/chat-relay/internal/transport/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	logger.Info("starting chat relay",
		"port", cfg.HTTPPort,
		"redis", cfg.RedisAddr,
		"rate_limit", cfg.RateLimitRequests,
		"rate_window", cfg.RateLimitWindow.String(),
		"session_ttl", cfg.SessionTTL.String(),
	)

	// Initialize store
	st, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer st.Close()
	logger.Info("redis connection established")

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize components
	limiter := ratelimit.New(st, cfg.RateLimitRequests, cfg.RateLimitWindow, m)
	sessions := session.NewManager(st, cfg.SessionTTL, m, logger)
	sender := whatsapp.NewClient(cfg.WhatsAppBaseURL, cfg.MetaToken, cfg.PhoneNumberID, cfg.SendTimeout, m)
	advisor := advice.NewClient("", cfg.OpenRouterAPIKey, cfg.AdviceModel, cfg.AdviceTimeout)
	svc := service.New(sessions, sender, advisor, m, logger)

	// Initialize HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	h := transport.NewHandler(svc, limiter, st, registry, cfg.VerifyToken, logger)
	h.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("webhook endpoint started", "port", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down chat relay")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server gracefully", "error", err)
	}

	logger.Info("chat relay stopped")
}
