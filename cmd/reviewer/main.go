package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/audit"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/client"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/infra"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/reviewer"
)

func main() {
	decimal.MarshalJSONWithoutQuotes = true

	// 1. Инфраструктура и ресурсы
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	var auditor audit.Logger = audit.Nop{}
	if cfg.Audit.Enabled {
		var sink audit.Sink = audit.NewFileSink(cfg.Reviewer.AuditLog)
		if cfg.Audit.Monitoring {
			sink = audit.MultiSink{sink, audit.NewZapSink(logger)}
		}
		trail := audit.NewTrail(sink, logger)
		trail.Start()
		defer trail.Stop()
		auditor = trail
	}

	// Контекст жизни фоновой сверки
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Домен
	store := reviewer.NewFlagStore()
	sellerClient := client.NewSeller(cfg.Reviewer.SellerURL, cfg.Client.Timeout, logger)

	reg := prometheus.NewRegistry()
	metrics := reviewer.NewMetrics(reg)
	service := reviewer.NewService(store, sellerClient, auditor, metrics, logger)

	// Сверка компенсирует потерянные fire-and-forget уведомления
	if cfg.Reviewer.ReconcileInterval > 0 {
		rec := reviewer.NewReconciler(service, cfg.Reviewer.ReconcileInterval, logger)
		go rec.Run(appCtx)
	}

	// 3. HTTP Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Reviewer.Port),
		Handler:      reviewer.NewServer(logger, reviewer.NewHandler(service), reg),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// 4. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("reviewer service started",
			zap.String("addr", srv.Addr),
			zap.String("seller_url", cfg.Reviewer.SellerURL),
			zap.Duration("reconcile_interval", cfg.Reviewer.ReconcileInterval),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("reviewer service stopping")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}
	logger.Info("reviewer service exited properly")
}
