package app

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taller-erp/taller-erp/internal/customers"
	"github.com/taller-erp/taller-erp/internal/observability"
	"github.com/taller-erp/taller-erp/internal/portal"
	"github.com/taller-erp/taller-erp/internal/quotes"
	"github.com/taller-erp/taller-erp/internal/repairorders"
	"github.com/taller-erp/taller-erp/internal/sales"
	"github.com/taller-erp/taller-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	CustomerHandler *customers.Handler
	RepairHandler   *repairorders.Handler
	QuoteHandler    *quotes.Handler
	SaleHandler     *sales.Handler
	PortalHandler   *portal.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with Taller defaults.
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
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/customers", params.CustomerHandler.MountRoutes)
		r.Route("/repairs", params.RepairHandler.MountRoutes)
		r.Route("/quotes", params.QuoteHandler.MountRoutes)
		r.Route("/sales", params.SaleHandler.MountRoutes)
	})

	if params.PortalHandler != nil {
		r.Route("/"+params.Config.PortalPrefix, params.PortalHandler.MountRoutes)
	}

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	// Staged media handed to the messaging gateway is served from the local
	// asset store until the sweep job removes it.
	tmpDir := filepath.Join(params.Config.AssetDir, "tmp")
	r.Handle("/assets/tmp/*", http.StripPrefix("/assets/tmp/", http.FileServer(http.Dir(tmpDir))))

	return r
}
