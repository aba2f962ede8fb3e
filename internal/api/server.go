// Package api serves the pricing engine and its stores over JSON HTTP.
package api

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Simplici0/printprice/internal/capital"
	"github.com/Simplici0/printprice/internal/catalog"
	"github.com/Simplici0/printprice/internal/jobs"
	"github.com/Simplici0/printprice/internal/obs"
	"github.com/Simplici0/printprice/internal/sales"
	"github.com/Simplici0/printprice/internal/settings"
)

const defaultPageSize = 50

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	DB       *sql.DB
	Settings settings.Layers
	Jobs     *jobs.Store
	Catalog  *catalog.Store
	Sales    *sales.Store
	Capital  *capital.Store
	Logger   zerolog.Logger

	// Metrics and Gatherer are optional; /metrics uses the default gatherer
	// when Gatherer is nil.
	Metrics  *obs.Metrics
	Gatherer prometheus.Gatherer

	AllowedOrigins []string
	JobsPageSize   int
}

// Server holds the handlers.
type Server struct {
	db       *sql.DB
	settings settings.Layers
	jobs     *jobs.Store
	catalog  *catalog.Store
	sales    *sales.Store
	capital  *capital.Store
	logger   zerolog.Logger
	metrics  *obs.Metrics
	gatherer prometheus.Gatherer
	origins  []string
	pageSize int
	validate *validator.Validate
}

// New returns a Server using d.
func New(d Deps) *Server {
	pageSize := d.JobsPageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Server{
		db:       d.DB,
		settings: d.Settings,
		jobs:     d.Jobs,
		catalog:  d.Catalog,
		sales:    d.Sales,
		capital:  d.Capital,
		logger:   d.Logger,
		metrics:  d.Metrics,
		gatherer: d.Gatherer,
		origins:  d.AllowedOrigins,
		pageSize: pageSize,
		validate: newValidator(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(obs.RequestLogger{Logger: s.logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	} else {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/quote", s.handleQuote)
		r.Post("/quote/price", s.handleQuotePrice)
		r.Post("/slicer", s.handleSlicer)

		r.Get("/settings", s.handleSettingsGet)
		r.Put("/settings", s.handleSettingsPut)
		r.Get("/settings/draft", s.handleSettingsDraft)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.handleJobsList)
			r.Post("/", s.handleJobsCreate)
			r.Get("/{id}", s.handleJobsGet)
			r.Patch("/{id}", s.handleJobsUpdate)
			r.Delete("/{id}", s.handleJobsDelete)
			r.Post("/{id}/toggle", s.handleJobsToggle)
			r.Get("/{id}/text", s.handleJobsText)
			r.Post("/{id}/product", s.handleJobsToProduct)
		})

		r.Get("/materials", s.handleMaterialsList)
		r.Post("/materials", s.handleMaterialsCreate)
		r.Put("/materials/{id}", s.handleMaterialsUpdate)
		for _, kind := range []catalog.RateKind{catalog.Packaging, catalog.Shipping} {
			r.Get("/"+string(kind), s.handleRatesList(kind))
			r.Post("/"+string(kind), s.handleRatesCreate(kind))
			r.Put("/"+string(kind)+"/{id}", s.handleRatesUpdate(kind))
		}

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handleProductsList)
			r.Post("/", s.handleProductsCreate)
			r.Get("/{id}", s.handleProductsGet)
			r.Put("/{id}", s.handleProductsUpdate)
			r.Delete("/{id}", s.handleProductsDelete)
		})
		r.Post("/checkout", s.handleCheckout)
		r.Get("/sales", s.handleSalesList)
		r.Patch("/sales/{id}", s.handleSalesUpdate)
		r.Delete("/sales/{id}", s.handleSalesDelete)

		r.Route("/capital", func(r chi.Router) {
			r.Get("/", s.handleCapitalList)
			r.Post("/", s.handleCapitalCreate)
			r.Get("/{id}", s.handleCapitalGet)
			r.Patch("/{id}", s.handleCapitalUpdate)
			r.Delete("/{id}", s.handleCapitalDelete)
		})
		r.Get("/dashboard", s.handleDashboard)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable", nil)
			return
		}
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// limitParam reads a positive ?limit= value, falling back to def.
func limitParam(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, badRequest("limit must be a positive integer", err)
	}
	return n, nil
}

func int64Param(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid "+name, err)
	}
	return id, nil
}
