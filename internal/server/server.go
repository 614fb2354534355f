package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/alfagnish/mergington-activities/internal/catalog"
	"github.com/alfagnish/mergington-activities/internal/config"
	"github.com/alfagnish/mergington-activities/internal/events"
	"github.com/alfagnish/mergington-activities/internal/handlers"
	"github.com/alfagnish/mergington-activities/internal/metrics"
)

// IndexPath is where GET / redirects to.
const IndexPath = "/static/index.html"

// Deps are the long-lived collaborators shared by all handlers.
type Deps struct {
	Catalog  *catalog.Catalog
	Hub      *events.Hub
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// New creates a fully-configured chi router with all route groups,
// middleware, and handlers wired together.
func New(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// ── Middleware ───────────────────────────────────────────
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(requestLogger(deps.Logger, deps.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// ── Handlers ────────────────────────────────────────────
	activitiesH := handlers.NewActivitiesHandler(deps.Catalog, deps.Metrics, deps.Logger)
	systemH := handlers.NewSystemHandler(cfg, deps.Catalog, deps.Hub)
	wsH := handlers.NewWSHandler(deps.Catalog, deps.Hub, deps.Logger)

	// ── Routes ──────────────────────────────────────────────
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, IndexPath, http.StatusTemporaryRedirect)
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	r.Route("/activities", activitiesH.Routes)
	r.Route("/ws", wsH.Routes)
	r.Route("/api/system", systemH.Routes)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))

	return r
}

// requestLogger logs each HTTP request with method, path, status code, and
// duration, and records its latency under the matched route pattern.
func requestLogger(log *zap.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.ObserveRequest(r.Method, route, status, duration)

			// Static assets are noisy; only API traffic is logged.
			if strings.HasPrefix(r.URL.Path, "/static/") {
				return
			}
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Duration("duration", duration.Round(time.Millisecond)),
			)
		})
	}
}
