/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCodeFromStatus(t *testing.T) {
	tests := map[int]string{
		http.StatusInternalServerError:   ErrCodeInternal,
		http.StatusNotFound:              ErrCodeNotFound,
		http.StatusMethodNotAllowed:      ErrCodeMethodNotAllowed,
		http.StatusBadRequest:            "badRequest",
		http.StatusRequestEntityTooLarge: "requestEntityTooLarge",
		http.StatusUnsupportedMediaType:  "unsupportedMediaType",
		http.StatusMultiStatus:           "multiStatus",
	}
	for httpCode, wantCode := range tests {
		require.Equal(t, wantCode, errorCodeFromStatus(httpCode), "HTTP code %d", httpCode)
	}
}

func TestError_JSON(t *testing.T) {
	apiErr := NewError(ErrCodeActionRejected, "Custom action 'action_greet' rejected execution.").
		WithActionName("action_greet")
	data, err := json.Marshal(apiErr)
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"Custom action 'action_greet' rejected execution.","action_name":"action_greet"}`, string(data))

	data, err = json.Marshal(NewInternalError())
	require.NoError(t, err)
	require.JSONEq(t, `{"error":"Internal error."}`, string(data))
}
