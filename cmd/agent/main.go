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

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/agent"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/audit"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/client"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/infra"
	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/policy"
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
		var sink audit.Sink = audit.NewFileSink(cfg.Agent.AuditLog)
		if cfg.Audit.Monitoring {
			sink = audit.MultiSink{sink, audit.NewZapSink(logger)}
		}
		trail := audit.NewTrail(sink, logger)
		trail.Start()
		defer trail.Stop()
		auditor = trail
	}

	// Контекст жизни процесса: от него живет автономный цикл
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Домен
	wallet := agent.NewWallet()
	holds := agent.NewHeldOrders()
	policies := policy.NewStore()
	engine := policy.NewEngine(policies, policy.AgentFields, logger)
	sellerClient := client.NewSeller(cfg.Agent.SellerURL, cfg.Client.Timeout, logger)

	service := agent.NewService(wallet, holds, engine, sellerClient, auditor, logger)
	loop := agent.NewLoop(agent.LoopConfig{
		MinDelay:    cfg.Agent.Loop.MinDelay,
		MaxDelay:    cfg.Agent.Loop.MaxDelay,
		MaxQuantity: cfg.Agent.Loop.MaxQuantity,
	}, service, logger, nil)

	// 3. HTTP Server
	reg := prometheus.NewRegistry()
	handler := agent.NewHandler(appCtx, service, wallet, loop,
		decimal.NewFromFloat(cfg.Agent.StartingBalance))
	policyHandler := policy.NewHandler(policies, policy.AgentFields, "agent", auditor)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Agent.Port),
		Handler:      agent.NewServer(logger, handler, policyHandler, reg),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// 4. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("agent service started",
			zap.String("addr", srv.Addr),
			zap.String("seller_url", cfg.Agent.SellerURL),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("agent service stopping")

	// Останавливаем автономный цикл до остановки сервера
	if loop.Running() {
		loop.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server shutdown failed", zap.Error(err))
	}
	logger.Info("agent service exited properly")
}
