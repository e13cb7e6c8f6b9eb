/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acronis/go-actionserver/endpoints"
	"github.com/acronis/go-actionserver/httpserver/middleware"
	"github.com/acronis/go-actionserver/log"
	"github.com/acronis/go-actionserver/restapi"
)

// Routes of the action server.
const (
	RouteHealth  = "/health"
	RouteActions = "/actions"
	RouteWebhook = "/webhook"
	RouteMetrics = "/metrics"
)

// systemEndpoints is a list of endpoints which are not involved in metrics collecting and logging of successful requests.
var systemEndpoints = []string{RouteMetrics, RouteHealth}

// RouterOpts represents options for creating chi.Router.
type RouterOpts struct {
	// Runner executes actions for the webhook calls.
	Runner ActionRunner
	// Endpoints is put into the context of every webhook call.
	Endpoints *endpoints.Config
	// CORSOrigins is a list of allowed origins ("*" allows all). CORS headers are not sent if it's empty.
	CORSOrigins []string
	// MaxBodySize limits the size of the webhook request body. Zero means no limit.
	MaxBodySize uint64
	Logging     middleware.LoggingOpts
	// MetricsCollector is used for HTTP request metrics. Metrics are not collected if it's nil.
	MetricsCollector *middleware.HTTPRequestMetricsCollector
	// MetricsHandler is a custom handler for the /metrics endpoint. promhttp.Handler() is used if nil.
	MetricsHandler http.Handler
	HealthCheck    HealthCheck
}

// NewRouter creates a new chi.Router with the action server routes and middlewares.
func NewRouter(logger log.FieldLogger, opts RouterOpts) chi.Router {
	router := chi.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(rw, r.WithContext(middleware.NewContextWithRequestStartTime(r.Context(), time.Now())))
		})
	})
	router.Use(middleware.RequestID())

	loggingOpts := opts.Logging
	if loggingOpts.ExcludedEndpoints == nil {
		loggingOpts.ExcludedEndpoints = systemEndpoints
	}
	router.Use(middleware.LoggingWithOpts(logger, loggingOpts))
	router.Use(middleware.Recovery())

	if opts.MetricsCollector != nil {
		router.Use(middleware.HTTPRequestMetricsWithOpts(opts.MetricsCollector, GetChiRoutePattern,
			middleware.HTTPRequestMetricsOpts{ExcludedEndpoints: systemEndpoints}))
	}

	if len(opts.CORSOrigins) != 0 {
		router.Use(cors.New(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler)
	}

	router.NotFound(func(rw http.ResponseWriter, r *http.Request) {
		restapi.RespondError(rw, http.StatusNotFound,
			restapi.NewError(restapi.ErrCodeNotFound, restapi.ErrMessageNotFound), middleware.GetLoggerFromContext(r.Context()))
	})
	router.MethodNotAllowed(func(rw http.ResponseWriter, r *http.Request) {
		restapi.RespondError(rw, http.StatusMethodNotAllowed,
			restapi.NewError(restapi.ErrCodeMethodNotAllowed, restapi.ErrMessageMethodNotAllowed),
			middleware.GetLoggerFromContext(r.Context()))
	})

	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.Method(http.MethodGet, RouteMetrics, metricsHandler)
	router.Method(http.MethodGet, RouteHealth, NewHealthCheckHandler(opts.HealthCheck))
	router.Method(http.MethodGet, RouteActions, &actionsHandler{runner: opts.Runner})

	webhook := http.Handler(&webhookHandler{runner: opts.Runner, endpoints: opts.Endpoints})
	if opts.MaxBodySize > 0 {
		webhook = middleware.RequestBodyLimit(opts.MaxBodySize)(webhook)
	}
	router.Method(http.MethodPost, RouteWebhook, webhook)

	return router
}

// GetChiRoutePattern extracts chi route pattern from request.
func GetChiRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}

	routePath := r.URL.RawPath
	if routePath == "" {
		routePath = r.URL.Path
	}

	tctx := chi.NewRouteContext()
	if rctx.Routes == nil || !rctx.Routes.Match(tctx, r.Method, routePath) {
		return ""
	}
	return tctx.RoutePattern()
}
