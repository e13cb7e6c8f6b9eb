/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type cannedResponse struct {
	code        int
	contentType string
	body        string
}

func (c cannedResponse) record() *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, nil)
	return rec
}

func (c cannedResponse) ServeHTTP(rw http.ResponseWriter, _ *http.Request) {
	if c.contentType != "" {
		rw.Header().Set("Content-Type", c.contentType)
	}
	rw.WriteHeader(c.code)
	_, _ = rw.Write([]byte(c.body))
}

func TestRequireErrorInRecorderAndResponse(t *testing.T) {
	tests := []struct {
		name           string
		resp           cannedResponse
		wantCode       int
		wantActionName string
		wantFailed     bool
	}{
		{
			name: "action not found",
			resp: cannedResponse{http.StatusNotFound, contentTypeAppJSON,
				`{"error":"No registered action found for name 'action_a'.","action_name":"action_a"}`},
			wantCode:       http.StatusNotFound,
			wantActionName: "action_a",
		},
		{
			name:     "malformed request",
			resp:     cannedResponse{http.StatusBadRequest, contentTypeAppJSON, `{"error":"Request body must not be empty."}`},
			wantCode: http.StatusBadRequest,
		},
		{
			name:           "other status code",
			resp:           cannedResponse{http.StatusBadRequest, contentTypeAppJSON, `{"error":"bad","action_name":"action_a"}`},
			wantCode:       http.StatusNotFound,
			wantActionName: "action_a",
			wantFailed:     true,
		},
		{
			name:           "not JSON",
			resp:           cannedResponse{http.StatusNotFound, "text/html", `{"error":"not found","action_name":"action_a"}`},
			wantCode:       http.StatusNotFound,
			wantActionName: "action_a",
			wantFailed:     true,
		},
		{
			name:           "other action",
			resp:           cannedResponse{http.StatusNotFound, contentTypeAppJSON, `{"error":"not found","action_name":"action_b"}`},
			wantCode:       http.StatusNotFound,
			wantActionName: "action_a",
			wantFailed:     true,
		},
		{
			name:           "no error message",
			resp:           cannedResponse{http.StatusNotFound, contentTypeAppJSON, `{"action_name":"action_a"}`},
			wantCode:       http.StatusNotFound,
			wantActionName: "action_a",
			wantFailed:     true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/recorder", func(t *testing.T) {
			mockT := &MockT{}
			RequireErrorInRecorder(mockT, tt.resp.record(), tt.wantCode, tt.wantActionName)
			require.Equal(t, tt.wantFailed, mockT.Failed)
		})
		t.Run(tt.name+"/response", func(t *testing.T) {
			srv := httptest.NewServer(tt.resp)
			defer srv.Close()
			resp, err := http.Get(srv.URL)
			require.NoError(t, err)
			defer func() { require.NoError(t, resp.Body.Close()) }()

			mockT := &MockT{}
			RequireErrorInResponse(mockT, resp, tt.wantCode, tt.wantActionName)
			require.Equal(t, tt.wantFailed, mockT.Failed)
		})
	}
}

func TestRequireJSONInRecorder(t *testing.T) {
	type actionInfo struct {
		Name string `json:"name"`
	}
	want := []actionInfo{{Name: "action_greet"}}

	tests := []struct {
		name       string
		resp       cannedResponse
		wantFailed bool
	}{
		{name: "equal", resp: cannedResponse{http.StatusOK, contentTypeAppJSON, `[{"name":"action_greet"}]`}},
		{name: "not equal", resp: cannedResponse{http.StatusOK, contentTypeAppJSON, `[{"name":"action_bye"}]`}, wantFailed: true},
		{name: "invalid JSON", resp: cannedResponse{http.StatusOK, contentTypeAppJSON, `[{"name":}]`}, wantFailed: true},
		{name: "not JSON", resp: cannedResponse{http.StatusOK, "text/plain", `[{"name":"action_greet"}]`}, wantFailed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []actionInfo
			mockT := &MockT{}
			RequireJSONInRecorder(mockT, tt.resp.record(), &want, &got)
			require.Equal(t, tt.wantFailed, mockT.Failed)
		})
	}
}

func TestRequireStringJSON(t *testing.T) {
	resp := cannedResponse{http.StatusOK, contentTypeAppJSON, `{"status":"ok"}`}

	mockT := &MockT{}
	RequireStringJSONInRecorder(mockT, resp.record(), `{"status":"ok"}`)
	require.False(t, mockT.Failed)

	mockT = &MockT{}
	RequireStringJSONInRecorder(mockT, resp.record(), `{"status": "ok"}`)
	require.True(t, mockT.Failed)

	srv := httptest.NewServer(resp)
	defer srv.Close()
	httpResp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { require.NoError(t, httpResp.Body.Close()) }()
	mockT = &MockT{}
	RequireStringJSONInResponse(mockT, httpResp, `{"status":"ok"}`)
	require.False(t, mockT.Failed)
}

func TestRequireEmptyBodyInRecorder(t *testing.T) {
	mockT := &MockT{}
	RequireEmptyBodyInRecorder(mockT, cannedResponse{code: http.StatusNoContent}.record())
	require.False(t, mockT.Failed)

	mockT = &MockT{}
	RequireEmptyBodyInRecorder(mockT, cannedResponse{http.StatusOK, contentTypeAppJSON, `{}`}.record())
	require.True(t, mockT.Failed)
}
