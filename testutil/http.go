/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/stretchr/testify/require"
)

const contentTypeAppJSON = "application/json"

// httpResult is the part of an HTTP response checked by the helpers below,
// it may come either from httptest.ResponseRecorder or from a real http.Response.
type httpResult struct {
	code   int
	header http.Header
	body   io.Reader
}

func fromRecorder(rec *httptest.ResponseRecorder) httpResult {
	return httpResult{rec.Code, rec.Header(), rec.Body}
}

func fromResponse(resp *http.Response) httpResult {
	return httpResult{resp.StatusCode, resp.Header, resp.Body}
}

func (r httpResult) requireJSONBody(t require.TestingT) []byte {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, contentTypeAppJSON, r.header.Get("Content-Type"))
	data, err := io.ReadAll(r.body)
	require.NoError(t, err)
	return data
}

// RequireErrorInRecorder asserts that the recorded response is an action server error
// with the given status code and "action_name" field.
func RequireErrorInRecorder(t require.TestingT, rec *httptest.ResponseRecorder, wantHTTPCode int, wantActionName string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	requireError(t, fromRecorder(rec), wantHTTPCode, wantActionName)
}

// RequireErrorInResponse is like RequireErrorInRecorder but for a response received over the network.
func RequireErrorInResponse(t require.TestingT, resp *http.Response, wantHTTPCode int, wantActionName string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	requireError(t, fromResponse(resp), wantHTTPCode, wantActionName)
}

func requireError(t require.TestingT, r httpResult, wantHTTPCode int, wantActionName string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, wantHTTPCode, r.code)
	var errBody struct {
		Error      *string `json:"error"`
		ActionName string  `json:"action_name"`
	}
	require.NoError(t, json.Unmarshal(r.requireJSONBody(t), &errBody))
	require.NotNil(t, errBody.Error, "error message is missing")
	require.Equal(t, wantActionName, errBody.ActionName)
}

// RequireEmptyBodyInRecorder asserts that the recorded response has no body.
func RequireEmptyBodyInRecorder(t require.TestingT, rec *httptest.ResponseRecorder) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Zero(t, rec.Body.Len(), "response body should be empty")
}

// RequireJSONInRecorder decodes the recorded JSON body into dest and compares it with want.
func RequireJSONInRecorder(t require.TestingT, rec *httptest.ResponseRecorder, want, dest interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.NoError(t, json.Unmarshal(fromRecorder(rec).requireJSONBody(t), dest))
	require.Equal(t, want, dest)
}

// RequireStringJSONInRecorder asserts that the recorded body is exactly the given JSON string.
func RequireStringJSONInRecorder(t require.TestingT, rec *httptest.ResponseRecorder, want string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, want, string(fromRecorder(rec).requireJSONBody(t)))
}

// RequireStringJSONInResponse is like RequireStringJSONInRecorder but for a response received over the network.
func RequireStringJSONInResponse(t require.TestingT, resp *http.Response, want string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, want, string(fromResponse(resp).requireJSONBody(t)))
}
