package app

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kedai-dimesem/storefront/internal/audit"
	"github.com/kedai-dimesem/storefront/internal/auth"
	"github.com/kedai-dimesem/storefront/internal/cart"
	"github.com/kedai-dimesem/storefront/internal/catalog"
	"github.com/kedai-dimesem/storefront/internal/checkout"
	"github.com/kedai-dimesem/storefront/internal/observability"
	"github.com/kedai-dimesem/storefront/internal/platform/httpx"
	"github.com/kedai-dimesem/storefront/internal/reporting"
	"github.com/kedai-dimesem/storefront/internal/shared"
	"github.com/kedai-dimesem/storefront/internal/users"
	"github.com/kedai-dimesem/storefront/jobs"
)

// HealthCheck probes one dependency for /healthz.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	Guard            auth.Guard
	AuthHandler      *auth.Handler
	CatalogHandler   *catalog.Handler
	CartHandler      *cart.Handler
	CheckoutHandler  *checkout.Handler
	UsersHandler     *users.Handler
	ReportingHandler *reporting.Handler
	AuditHandler     *audit.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
	UploadDir        string
	HealthChecks     map[string]HealthCheck
}

// NewRouter constructs the chi.Router with storefront defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", healthHandler(params.HealthChecks))

	guard := params.Guard
	if guard.Logger == nil {
		guard.Logger = params.Logger
	}
	loginLimit := 10
	if params.Config != nil {
		loginLimit = params.Config.LoginLimitPerMinute
	}

	r.Route("/api", func(api chi.Router) {
		if params.AuthHandler != nil {
			params.AuthHandler.MountRoutes(api, LoginLimiter(loginLimit))
		}
		if params.CatalogHandler != nil {
			params.CatalogHandler.MountPublic(api)
		}

		api.Group(func(user chi.Router) {
			user.Use(guard.RequireAuthenticated)
			if params.CartHandler != nil {
				params.CartHandler.MountRoutes(user)
			}
		})

		// Owner-or-admin routes compare against the current database role.
		api.Group(func(owner chi.Router) {
			owner.Use(guard.RequireFreshRole)
			if params.CheckoutHandler != nil {
				params.CheckoutHandler.MountCustomer(owner)
			}
			if params.ReportingHandler != nil {
				params.ReportingHandler.MountCustomer(owner)
			}
		})

		api.Group(func(admin chi.Router) {
			admin.Use(guard.RequireAdmin)
			if params.CatalogHandler != nil {
				params.CatalogHandler.MountAdmin(admin)
			}
			if params.CheckoutHandler != nil {
				params.CheckoutHandler.MountAdmin(admin)
			}
			if params.ReportingHandler != nil {
				params.ReportingHandler.MountAdmin(admin)
			}
			if params.AuditHandler != nil {
				params.AuditHandler.MountRoutes(admin)
			}
			if params.UsersHandler != nil {
				admin.Route("/users", params.UsersHandler.MountRoutes)
			}
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.UploadDir != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(params.UploadDir)))
		r.Handle("/uploads/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler serves uploaded files with a one hour browser cache and
// hides directory listings.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			httpx.Error(w, http.StatusNotFound, "file not found")
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		status := http.StatusOK
		report := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		httpx.JSON(w, status, map[string]any{"status": overall, "checks": report})
	}
}
