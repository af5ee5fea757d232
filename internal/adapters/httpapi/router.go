package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterOptions struct {
	// AdminAuth guards GET /subscribers. Nil leaves the listing open.
	AdminAuth func(http.Handler) http.Handler
	Logger    *zap.Logger
}

// NewRouter constructs the API HTTP router.
func NewRouter(s *Server) http.Handler {
	return NewRouterWithOptions(s, RouterOptions{})
}

func NewRouterWithOptions(s *Server, opts RouterOptions) http.Handler {
	log := opts.Logger
	if log == nil {
		log = s.Log
	}
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(log))
	r.Use(CORS)
	r.Use(Recoverer(log))

	// Infra endpoints (health checks and scraping).
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", s.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/", s.Info)
	r.Post("/subscribe", s.Subscribe)
	r.Group(func(r chi.Router) {
		if opts.AdminAuth != nil {
			r.Use(opts.AdminAuth)
		}
		r.Get("/subscribers", s.ListSubscribers)
	})

	// Unknown paths and known paths with the wrong method look the same to callers.
	r.NotFound(s.NotFound)
	r.MethodNotAllowed(s.NotFound)
	return r
}
