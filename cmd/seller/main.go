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
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/fuzz"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/infra"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/policy"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/seller"
)

func main() {
	// Денежные суммы сериализуются числами, как их ждут клиенты
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

	// Audit trail: батчами в append-only файл
	var auditor audit.Logger = audit.Nop{}
	if cfg.Audit.Enabled {
		var sink audit.Sink = audit.NewFileSink(cfg.Seller.AuditLog)
		if cfg.Audit.Monitoring {
			sink = audit.MultiSink{sink, audit.NewZapSink(logger)}
		}
		trail := audit.NewTrail(sink, logger)
		trail.Start()
		defer trail.Stop()
		auditor = trail
	}

	// 2. Домен
	catalog := seller.SeedCatalog()
	policies := policy.NewStore()
	engine := policy.NewEngine(policies, policy.SellerFields, logger)

	errorGate := fuzz.Disabled()
	if cfg.Seller.SimulateErrors {
		errorGate = fuzz.NewGate(cfg.Seller.ErrorFuzzProbability, nil)
	}
	reviewGate := fuzz.NewGate(cfg.Seller.ReviewFuzzProbability, nil)

	reviewerClient := client.NewReviewer(cfg.Seller.ReviewerURL, cfg.Client.Timeout, logger)

	reg := prometheus.NewRegistry()
	metrics := seller.NewMetrics(reg)

	ledger := seller.NewOrderLedger(
		seller.Config{
			ProgressiveConfirmation: cfg.Seller.ProgressiveConfirmation,
			SimulateErrors:          cfg.Seller.SimulateErrors,
		},
		catalog,
		engine,
		errorGate, reviewGate,
		reviewerClient,
		auditor,
		metrics,
		logger,
	)

	// 3. HTTP Server
	orderHandler := seller.NewHandler(ledger, catalog)
	policyHandler := policy.NewHandler(policies, policy.SellerFields, "seller", auditor)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Seller.Port),
		Handler:      seller.NewServer(logger, orderHandler, policyHandler, reg),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// 4. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("seller service started",
			zap.String("addr", srv.Addr),
			zap.Bool("progressive_confirmation", cfg.Seller.ProgressiveConfirmation),
			zap.Bool("simulate_errors", cfg.Seller.SimulateErrors),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("seller service stopping")

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}
	logger.Info("seller service exited properly")
}
