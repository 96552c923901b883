package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/asakaida/purosesu/internal/infrastructure/logging"
	"github.com/asakaida/purosesu/internal/infrastructure/metrics"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck() error
}

// RouterConfig carries everything the router needs to wire the routes.
type RouterConfig struct {
	Process     *ProcessHandler
	Departments *CatalogHandler
	Locations   *CatalogHandler
	Resources   *CatalogHandler
	Roles       *CatalogHandler
	Users       *UserHandler

	Health    HealthChecker
	Log       *logrus.Logger
	Collector *metrics.Collector
	Exporter  *metrics.PrometheusExporter
}

// NewRouter builds the API router with logging and metrics middleware.
func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(logging.RequestLogger(cfg.Log))
	if cfg.Collector != nil {
		r.Use(metrics.Middleware(cfg.Collector, cfg.Exporter))
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health.HealthCheck(); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	registerProcessRoutes(r, cfg.Process)
	registerCatalogRoutes(r, "/departments", cfg.Departments)
	registerCatalogRoutes(r, "/locations", cfg.Locations)
	registerCatalogRoutes(r, "/resources", cfg.Resources)
	registerCatalogRoutes(r, "/roles", cfg.Roles)
	registerUserRoutes(r, cfg.Users)

	return r
}

func registerProcessRoutes(r *mux.Router, h *ProcessHandler) {
	r.HandleFunc("/processes", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/processes", h.List).Methods(http.MethodGet)
	r.HandleFunc("/processes/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/processes/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/processes/{id}", h.Delete).Methods(http.MethodDelete)
}

func registerCatalogRoutes(r *mux.Router, route string, h *CatalogHandler) {
	r.HandleFunc(route, h.Create).Methods(http.MethodPost)
	r.HandleFunc(route, h.List).Methods(http.MethodGet)
	r.HandleFunc(route+"/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc(route+"/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc(route+"/{id}", h.Delete).Methods(http.MethodDelete)
}

func registerUserRoutes(r *mux.Router, h *UserHandler) {
	r.HandleFunc("/users", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/users", h.List).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/users/{id}", h.Delete).Methods(http.MethodDelete)
}
