// Package api serves paginated item listings over HTTP.
package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jdholdren/pageturn/internal/pageturn"
	"github.com/jdholdren/pageturn/internal/paginate"
	"github.com/jdholdren/pageturn/internal/serverutil"
)

type (
	// Server serves the item collection one page at a time.
	Server struct {
		*http.Server

		repo     pageturn.ItemRepository
		fetcher  paginate.Fetcher[pageturn.Item]
		pageCfg  paginate.Config
		validate *validator.Validate
		metrics  *metrics
	}

	ServerConfig struct {
		Port       int
		CorsOrigin string
		Pagination paginate.Config
	}
)

// NewServer wires the routes. Metrics are registered on reg and exposed from /metrics.
func NewServer(config ServerConfig, repo pageturn.ItemRepository, reg *prometheus.Registry) (*Server, error) {
	validate := serverutil.NewValidator()
	if err := registerValidations(validate); err != nil {
		return nil, fmt.Errorf("error registering validations: %s", err)
	}

	m, err := newMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("error registering metrics: %s", err)
	}

	r := serverutil.ErrRouter{Router: mux.NewRouter()}
	srvr := Server{
		repo:     repo,
		fetcher:  m.instrument(repo),
		pageCfg:  config.Pagination,
		validate: validate,
		metrics:  m,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			Handler: handlers.CORS(
				handlers.AllowedOrigins([]string{config.CorsOrigin}),
				handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
				handlers.AllowedHeaders([]string{"content-type"}),
				handlers.ExposedHeaders([]string{serverutil.RequestIDHeader}),
			)(r),
		},
	}

	r.Use(serverutil.RequestIDMiddleware)
	r.Use(serverutil.AccessLogMiddleware) // Log everything
	r.Use(m.middleware)

	r.HandleFuncE("/api/items", srvr.getItems).Methods(http.MethodGet)
	r.HandleFuncE("/api/items/{itemID}", srvr.getItem).Methods(http.MethodGet)
	r.HandleFuncE("/healthz", srvr.getHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	slog.Debug("configured api server", "port", config.Port)

	return &srvr, nil
}
