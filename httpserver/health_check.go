/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/acronis/go-actionserver/httpserver/middleware"
	"github.com/acronis/go-actionserver/log"
	"github.com/acronis/go-actionserver/restapi"
)

// StatusClientClosedRequest is a special HTTP status code used by Nginx to show that the client
// closed the request before the server could send a response
const StatusClientClosedRequest = 499

// Health statuses reported in the response body.
const (
	HealthStatusOK   = "ok"
	HealthStatusFail = "fail"
)

// HealthCheckResult maps component names to their health. True means the component is healthy.
type HealthCheckResult = map[string]bool

// HealthCheck is a function that reports health of the server components.
type HealthCheck = func(ctx context.Context) (HealthCheckResult, error)

type healthCheckResponseData struct {
	Status     string          `json:"status"`
	Components map[string]bool `json:"components,omitempty"`
}

// HealthCheckHandler implements http.Handler and does health-check of the action server.
type HealthCheckHandler struct {
	healthCheckFn HealthCheck
}

// NewHealthCheckHandler creates a new http.Handler for doing health-check.
// Passing function will be called inside handler and should return statuses of server components.
// The response body is {"status":"ok"} when all components are healthy.
func NewHealthCheckHandler(fn HealthCheck) *HealthCheckHandler {
	if fn == nil {
		fn = func(ctx context.Context) (HealthCheckResult, error) {
			return nil, ctx.Err()
		}
	}
	return &HealthCheckHandler{fn}
}

// ServeHTTP serves heath-check HTTP request.
func (h *HealthCheckHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())

	hcResult, err := h.healthCheckFn(r.Context())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			rw.WriteHeader(StatusClientClosedRequest)
			return
		}
		if logger != nil {
			logger.Error("error while checking health", log.Error(err))
		}
		restapi.RespondInternalError(rw, logger)
		return
	}

	respData := healthCheckResponseData{Status: HealthStatusOK}
	respStatus := http.StatusOK
	for name, healthy := range hcResult {
		if !healthy {
			respData.Status = HealthStatusFail
			respData.Components = hcResult
			respStatus = http.StatusServiceUnavailable
			if logger != nil {
				logger.Warn("component is unhealthy", log.String("component", name))
			}
		}
	}
	restapi.RespondCodeAndJSON(rw, respStatus, respData, logger)
}
