package agent

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/policy"
)

// Server собирает роутер агента: кошелек, заказы, политики, автономный режим.
type Server struct {
	router *chi.Mux
	logger *zap.Logger

	handler  *Handler
	policies *policy.Handler
}

func NewServer(
	logger *zap.Logger,
	handler *Handler,
	policies *policy.Handler,
	registry *prometheus.Registry,
) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger.Named("agent-api"),
		handler:  handler,
		policies: policies,
	}

	s.routes(registry)
	return s
}

func (s *Server) routes(registry *prometheus.Registry) {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handler.Health)
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Счет и кошелек
	r.Post("/account", s.handler.CreateAccount)
	r.Get("/account", s.handler.GetAccount)
	r.Post("/wallet/add", s.handler.Deposit)
	r.Post("/wallet/withdraw", s.handler.Withdraw)

	// Заказы
	r.Post("/order", s.handler.PlaceOrder)
	r.Post("/order/approve", s.handler.ApproveHeld)
	r.Get("/orders/pending", s.handler.Pending)

	// Автономный режим
	r.Post("/agent/start", s.handler.StartLoop)
	r.Post("/agent/stop", s.handler.StopLoop)
	r.Get("/agent/status", s.handler.LoopStatus)

	// Политики агента (CRUD)
	r.Mount("/policies", s.policies.Routes())
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
