package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finwell/internal/platform/metrics"
	dErrors "finwell/pkg/domain-errors"
	"finwell/pkg/platform/httputil"
	authmw "finwell/pkg/platform/middleware/auth"
	"finwell/pkg/platform/middleware/callback"
	request "finwell/pkg/platform/middleware/request"
	"finwell/pkg/platform/middleware/requesttime"
)

// Mount registers a group of routes on a router.
type Mount func(r chi.Router)

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Routes groups the handlers by the guard they sit behind.
type Routes struct {
	// Public routes need no credentials.
	Public []Mount
	// Authenticated routes require a bearer token.
	Authenticated []Mount
	// Callbacks are reserved for the oracle relayer.
	Callbacks []Mount
}

// Config carries the router's cross-cutting dependencies.
type Config struct {
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Tokens      authmw.TokenValidator
	OracleToken string
	Health      map[string]HealthCheck
	// RateLimit runs after authentication so budgets are per caller.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter wires all endpoints behind the shared middleware stack. Every
// request gets a request id and a pinned request time before any handler runs.
func NewRouter(cfg Config, routes Routes) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/healthz", healthHandler(cfg.Health, logger))
	r.Handle("/metrics", promhttp.Handler())

	for _, mount := range routes.Public {
		mount(r)
	}
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.Tokens, logger))
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}
		for _, mount := range routes.Authenticated {
			mount(r)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(callback.RequireOracleToken(cfg.OracleToken, logger))
		for _, mount := range routes.Callbacks {
			mount(r)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "health check failed",
					"check", name,
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				resp.Status = "degraded"
				resp.Checks[name] = "unavailable"
				continue
			}
			resp.Checks[name] = "ok"
		}
		if resp.Status != "ok" {
			httputil.WriteJSON(w, httputil.StatusFor(dErrors.CodeUnavailable), resp)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}
