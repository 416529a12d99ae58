package seller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/agentoverlay/ueta-agent-error-handling-demos-sub000/internal/policy"
)

// Server собирает роутер продавца: заказы, каталог, политики, метрики.
type Server struct {
	router *chi.Mux
	logger *zap.Logger

	orders   *Handler
	policies *policy.Handler
}

func NewServer(
	logger *zap.Logger,
	orders *Handler,
	policies *policy.Handler,
	registry *prometheus.Registry,
) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger.Named("seller-api"),
		orders:   orders,
		policies: policies,
	}

	s.routes(registry)
	return s
}

func (s *Server) routes(registry *prometheus.Registry) {
	r := s.router

	// --- Инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.orders.Health)
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Каталог товаров
	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.orders.ListProducts)
		r.Post("/", s.orders.AddProduct)
		r.Route("/{sku}", func(r chi.Router) {
			r.Put("/", s.orders.UpdateProduct)
			r.Delete("/", s.orders.DeleteProduct)
		})
	})

	// Жизненный цикл заказов
	r.Post("/order", s.orders.PlaceOrder)
	r.Post("/approve", s.orders.Approve)
	r.Post("/revert", s.orders.Revert)
	r.Get("/pending", s.orders.Pending)
	r.Get("/orders", s.orders.ListOrders)
	r.Get("/orders/{status}", s.orders.ListOrdersByStatus)
	r.Get("/stats", s.orders.Stats)

	// Политики продавца (CRUD)
	r.Mount("/policies", s.policies.Routes())
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
