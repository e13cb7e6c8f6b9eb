/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-actionserver/log"
	"github.com/acronis/go-actionserver/log/logtest"
	"github.com/acronis/go-actionserver/testutil"
)

type responseRecorderReturnedErrorOnWrite struct {
	*httptest.ResponseRecorder
}

func (rw *responseRecorderReturnedErrorOnWrite) Write(_ []byte) (int, error) {
	return 0, fmt.Errorf("error on write")
}

func TestRespondJSON(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		type actionInfo struct {
			Name string `json:"name"`
		}
		resp := httptest.NewRecorder()
		logger := logtest.NewRecorder()
		infos := []actionInfo{{"action_greet"}, {"action_goodbye"}}
		require.Empty(t, resp.Header().Get("Content-Type"))
		RespondJSON(resp, infos, logger)
		testutil.RequireJSONInRecorder(t, resp, &infos, &[]actionInfo{})
		require.Empty(t, logger.Entries())
		require.Equal(t, ContentTypeAppJSON, resp.Header().Get("Content-Type"))
	})

	t.Run("marshaling error", func(t *testing.T) {
		resp := httptest.NewRecorder()
		RespondJSON(resp, make(chan bool), nil)
		require.Equal(t, http.StatusInternalServerError, resp.Code)
		testutil.RequireEmptyBodyInRecorder(t, resp)

		resp = httptest.NewRecorder()
		logger := logtest.NewRecorder()
		RespondJSON(resp, make(chan bool), logger)
		require.Equal(t, http.StatusInternalServerError, resp.Code)
		testutil.RequireEmptyBodyInRecorder(t, resp)
		require.Len(t, logger.Entries(), 1)
		require.Equal(t, log.LevelError, logger.Entries()[0].Level)
	})

	t.Run("writing error", func(t *testing.T) {
		resp := &responseRecorderReturnedErrorOnWrite{httptest.NewRecorder()}
		logger := logtest.NewRecorder()
		RespondJSON(resp, "foo", logger)
		require.Len(t, logger.Entries(), 1)
		require.Equal(t, log.LevelError, logger.Entries()[0].Level)
	})

	t.Run("html is not escaped", func(t *testing.T) {
		resp := httptest.NewRecorder()
		RespondJSON(resp, map[string]string{"text": "<b>hi</b>"}, nil)
		require.Equal(t, `{"text":"<b>hi</b>"}`, resp.Body.String())
	})

	t.Run("nil data", func(t *testing.T) {
		resp := httptest.NewRecorder()
		RespondCodeAndJSON(resp, http.StatusNoContent, nil, nil)
		require.Equal(t, http.StatusNoContent, resp.Code)
		testutil.RequireEmptyBodyInRecorder(t, resp)
	})
}

func TestRespondError(t *testing.T) {
	t.Run("action not found", func(t *testing.T) {
		resp := httptest.NewRecorder()
		logger := logtest.NewRecorder()
		apiErr := NewError(ErrCodeActionNotFound, "No registered action found for name 'action_unknown'.").
			WithActionName("action_unknown")
		RespondError(resp, http.StatusNotFound, apiErr, logger)

		require.Equal(t, http.StatusNotFound, resp.Code)
		testutil.RequireStringJSONInRecorder(t, resp,
			`{"error":"No registered action found for name 'action_unknown'.","action_name":"action_unknown"}`)

		require.Len(t, logger.Entries(), 1)
		entry := logger.Entries()[0]
		require.Equal(t, log.LevelError, entry.Level)
		codeField, found := entry.FindField("error_code")
		require.True(t, found)
		require.Equal(t, ErrCodeActionNotFound, string(codeField.Bytes))
		actionField, found := entry.FindField("action")
		require.True(t, found)
		require.Equal(t, "action_unknown", string(actionField.Bytes))
	})

	t.Run("without action name", func(t *testing.T) {
		resp := httptest.NewRecorder()
		RespondError(resp, http.StatusBadRequest, NewError("badRequest", "Bad input."), nil)
		require.Equal(t, http.StatusBadRequest, resp.Code)
		testutil.RequireStringJSONInRecorder(t, resp, `{"error":"Bad input."}`)
	})
}

func TestRespondInternalError(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondInternalError(resp, nil)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
	testutil.RequireStringJSONInRecorder(t, resp, `{"error":"Internal error."}`)
}

func TestRespondMalformedRequestOrInternalError(t *testing.T) {
	t.Run("internal error", func(t *testing.T) {
		resp := httptest.NewRecorder()
		logger := logtest.NewRecorder()
		RespondMalformedRequestOrInternalError(resp, errors.New("unexpected error"), logger)
		require.Equal(t, http.StatusInternalServerError, resp.Code)
		testutil.RequireStringJSONInRecorder(t, resp, `{"error":"Internal error."}`)
		_, found := logger.FindEntry("unexpected error while handling request")
		require.True(t, found)
	})

	t.Run("malformed error", func(t *testing.T) {
		resp := httptest.NewRecorder()
		logger := logtest.NewRecorder()
		RespondMalformedRequestOrInternalError(resp, fmt.Errorf("decode: %w", NewTooLargeMalformedRequestError(1024*1024)), logger)
		require.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
		testutil.RequireStringJSONInRecorder(t, resp, `{"error":"Request body must not be larger than 1M."}`)
		entry, found := logger.FindEntry("error in response")
		require.True(t, found)
		codeField, _ := entry.FindField("error_code")
		require.Equal(t, "requestEntityTooLarge", string(codeField.Bytes))
	})
}
