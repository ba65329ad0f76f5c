package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"finwell/internal/ratelimit"
	"finwell/pkg/platform/httputil"
	request "finwell/pkg/platform/middleware/request"
	"finwell/pkg/requestcontext"
)

// Middleware enforces per-caller budgets on the authenticated API.
type Middleware struct {
	store    ratelimit.Store
	limits   ratelimit.Limits
	logger   *slog.Logger
	metrics  *ratelimit.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the middleware into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithMetrics(metrics *ratelimit.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

func New(store ratelimit.Store, limits ratelimit.Limits, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{store: store, limits: limits, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.disabled {
		m.logger.Info("rate limiting disabled")
	}
	return m
}

// ClassOf picks the budget a request draws from.
func ClassOf(r *http.Request) ratelimit.Class {
	switch {
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		return ratelimit.ClassRead
	case strings.HasSuffix(r.URL.Path, "/decryption"):
		return ratelimit.ClassDecryption
	default:
		return ratelimit.ClassWrite
	}
}

// subject identifies who is charged: the authenticated caller, or the client
// address when the route is public.
func subject(r *http.Request) string {
	if caller := requestcontext.Caller(r.Context()); !caller.IsNil() {
		return caller.String()
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Limit charges every request against its class budget. Store failures let
// the request through.
func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}
		class := ClassOf(r)
		limit, ok := m.limits[class]
		if !ok || limit.Requests <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		who := subject(r)
		result, err := m.store.AllowN(ctx, ratelimit.Key(class, who), 1, limit.Requests, limit.Window)
		if err != nil {
			m.metrics.Observe(class, "error")
			m.logger.ErrorContext(ctx, "failed to check rate limit",
				"error", err,
				"class", string(class),
				"request_id", request.GetRequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if !result.Allowed {
			m.metrics.Observe(class, "limited")
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"class", string(class),
				"subject", who,
				"request_id", request.GetRequestID(ctx),
			)
			writeRateLimitExceeded(w, class, result)
			return
		}
		m.metrics.Observe(class, "allowed")
		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

type exceededResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	Class       string `json:"class"`
	RetryAfter  int    `json:"retry_after"`
}

func writeRateLimitExceeded(w http.ResponseWriter, class ratelimit.Class, result *ratelimit.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, exceededResponse{
		Error:       "rate_limit_exceeded",
		Description: "too many " + string(class) + " requests, try again later",
		Class:       string(class),
		RetryAfter:  result.RetryAfter,
	})
}
