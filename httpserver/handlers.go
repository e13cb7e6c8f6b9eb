/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/acronis/go-actionserver/action"
	"github.com/acronis/go-actionserver/endpoints"
	"github.com/acronis/go-actionserver/httpserver/middleware"
	"github.com/acronis/go-actionserver/log"
	"github.com/acronis/go-actionserver/restapi"
)

// ActionRunner runs actions of the loaded action package.
type ActionRunner interface {
	Run(ctx context.Context, req *action.Request) (*action.Response, error)
	ActionNames() []string
}

type actionInfo struct {
	Name string `json:"name"`
}

type actionsHandler struct {
	runner ActionRunner
}

func (h *actionsHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	infos := []actionInfo{}
	if h.runner != nil {
		for _, name := range h.runner.ActionNames() {
			infos = append(infos, actionInfo{Name: name})
		}
	}
	restapi.RespondJSON(rw, infos, middleware.GetLoggerFromContext(r.Context()))
}

type webhookHandler struct {
	runner    ActionRunner
	endpoints *endpoints.Config
}

func (h *webhookHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())

	var req action.Request
	if err := restapi.DecodeRequestJSON(r, &req); err != nil {
		restapi.RespondMalformedRequestOrInternalError(rw, err, logger)
		return
	}
	if lp := middleware.GetLoggingParamsFromContext(r.Context()); lp != nil && req.NextAction != "" {
		lp.ExtendFields(log.String("action", req.NextAction))
	}

	if h.runner == nil {
		respondActionError(rw, &action.NotFoundError{ActionName: req.NextAction}, logger)
		return
	}

	ctx := r.Context()
	if h.endpoints != nil {
		ctx = endpoints.NewContext(ctx, h.endpoints)
	}
	resp, err := h.runner.Run(ctx, &req)
	if err != nil {
		respondActionError(rw, err, logger)
		return
	}
	restapi.RespondJSON(rw, resp, logger)
}

func respondActionError(rw http.ResponseWriter, err error, logger log.FieldLogger) {
	var notFoundErr *action.NotFoundError
	var rejectionErr *action.RejectionError
	switch {
	case errors.As(err, &notFoundErr):
		restapi.RespondError(rw, http.StatusNotFound,
			restapi.NewError(restapi.ErrCodeActionNotFound, notFoundErr.Error()).WithActionName(notFoundErr.ActionName), logger)
	case errors.As(err, &rejectionErr):
		restapi.RespondError(rw, http.StatusBadRequest,
			restapi.NewError(restapi.ErrCodeActionRejected, rejectionErr.Error()).WithActionName(rejectionErr.ActionName), logger)
	case errors.Is(err, action.ErrMissingActionName):
		restapi.RespondMalformedRequestError(rw, &restapi.MalformedRequestError{
			HTTPStatusCode: http.StatusBadRequest,
			Message:        "Field \"next_action\" is required.",
		}, logger)
	default:
		if logger != nil {
			logger.Error("failed to run action", log.Error(err))
		}
		restapi.RespondInternalError(rw, logger)
	}
}
