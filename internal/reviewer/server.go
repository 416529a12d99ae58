package reviewer

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server собирает роутер ревьюера.
type Server struct {
	router  *chi.Mux
	logger  *zap.Logger
	handler *Handler
}

func NewServer(logger *zap.Logger, handler *Handler, registry *prometheus.Registry) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		logger:  logger.Named("reviewer-api"),
		handler: handler,
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

	r.Post("/flag", s.handler.Flag)
	r.Get("/flags", s.handler.ListFlags)
	r.Post("/approve", s.handler.Approve)
	r.Post("/revert", s.handler.Revert)
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
