package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
	"github.com/tokoprima/tokoprima/internal/accounting/gl"
	"github.com/tokoprima/tokoprima/internal/accounting/journals"
	"github.com/tokoprima/tokoprima/internal/accounting/periods"
	"github.com/tokoprima/tokoprima/internal/accounting/reports"
	closehttp "github.com/tokoprima/tokoprima/internal/close/http"
	"github.com/tokoprima/tokoprima/internal/observability"
	"github.com/tokoprima/tokoprima/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	AccountsHandler *accounts.Handler
	PeriodsHandler  *periods.Handler
	JournalsHandler *journals.Handler
	LedgerHandler   *gl.Handler
	ReportsHandler  *reports.Handler
	CloseHandler    *closehttp.Handler
	JobsHandler     *jobs.Handler
	Metrics         *observability.Metrics
	Pool            *pgxpool.Pool
}

// NewRouter constructs the chi.Router with Tokoprima defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		code := http.StatusOK
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				params.Logger.Error("healthz database ping failed", slog.Any("error", err))
				status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
	})

	r.Route("/accounting", func(r chi.Router) {
		if params.AccountsHandler != nil {
			params.AccountsHandler.MountRoutes(r)
		}
		if params.PeriodsHandler != nil {
			params.PeriodsHandler.MountRoutes(r)
		}
		if params.JournalsHandler != nil {
			params.JournalsHandler.MountRoutes(r)
		}
		if params.LedgerHandler != nil {
			params.LedgerHandler.MountRoutes(r)
		}
		if params.ReportsHandler != nil {
			params.ReportsHandler.MountRoutes(r)
		}
		if params.CloseHandler != nil {
			params.CloseHandler.MountRoutes(r)
		}
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
