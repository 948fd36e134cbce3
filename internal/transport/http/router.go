package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"homeloan/internal/platform/metrics"
	"homeloan/pkg/platform/httputil"
	"homeloan/pkg/platform/middleware/admin"
	authmw "homeloan/pkg/platform/middleware/auth"
	"homeloan/pkg/platform/middleware/metadata"
	request "homeloan/pkg/platform/middleware/request"
	"homeloan/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Routes groups mount functions by how their callers authenticate.
type Routes struct {
	// User routes run behind bearer token authentication.
	User []func(chi.Router)
	// Service routes are called by the payment gateway and schedulers and run
	// behind the admin token.
	Service []func(chi.Router)
}

// Config carries what the router needs beyond the routes themselves.
type Config struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Validator  authmw.JWTValidator
	AdminToken string
	Health     map[string]HealthCheck
	// Clock pins request time. Nil uses the wall clock.
	Clock func() time.Time
}

// NewRouter wires the public surface: request scoping middleware, the two
// authenticated route groups, and the unauthenticated ops endpoints.
func NewRouter(cfg Config, routes Routes) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recover(logger))
	r.Use(metadata.ClientMetadata)
	if cfg.Clock != nil {
		r.Use(requesttime.MiddlewareWithClock(cfg.Clock))
	} else {
		r.Use(requesttime.Middleware)
	}
	r.Use(cfg.Metrics.Middleware)

	r.Get("/health", healthHandler(cfg.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(cfg.Validator, nil, logger))
		for _, mount := range routes.User {
			mount(r)
		}
	})
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(cfg.AdminToken, logger))
		for _, mount := range routes.Service {
			mount(r)
		}
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		results := make(map[string]string, len(checks))
		g, gctx := errgroup.WithContext(ctx)
		type result struct {
			name string
			err  error
		}
		out := make(chan result, len(checks))
		for name, check := range checks {
			g.Go(func() error {
				out <- result{name: name, err: check(gctx)}
				return nil
			})
		}
		_ = g.Wait()
		close(out)
		down := false
		for res := range out {
			if res.err != nil {
				down = true
				results[res.name] = "down"
				continue
			}
			results[res.name] = "ok"
		}

		resp := healthResponse{Status: "ok", Checks: results}
		status := http.StatusOK
		if down {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
