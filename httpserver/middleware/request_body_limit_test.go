/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-actionserver/testutil"
)

// webhookReader reads the whole body as the webhook handler does.
type webhookReader struct {
	calls int
	read  int
}

func (h *webhookReader) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	h.calls++
	data, err := io.ReadAll(r.Body)
	h.read = len(data)
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		rw.WriteHeader(http.StatusRequestEntityTooLarge)
	case err != nil:
		rw.WriteHeader(http.StatusInternalServerError)
	default:
		rw.WriteHeader(http.StatusOK)
	}
}

func TestRequestBodyLimit(t *testing.T) {
	tests := []struct {
		name          string
		limit         uint64
		body          string
		chunked       bool
		wantCode      int
		wantNextCalls int
	}{
		{name: "content length over limit", limit: 32, body: strings.Repeat("a", 64), wantCode: http.StatusRequestEntityTooLarge},
		{name: "content length at limit", limit: 32, body: strings.Repeat("a", 32), wantCode: http.StatusOK, wantNextCalls: 1},
		{name: "chunked under limit", limit: 32, body: strings.Repeat("a", 10), chunked: true, wantCode: http.StatusOK, wantNextCalls: 1},
		{name: "chunked at limit", limit: 32, body: strings.Repeat("a", 32), chunked: true, wantCode: http.StatusOK, wantNextCalls: 1},
		{
			name: "chunked over limit", limit: 32, body: strings.Repeat("a", 33), chunked: true,
			wantCode: http.StatusRequestEntityTooLarge, wantNextCalls: 1,
		},
		{name: "zero limit with body", limit: 0, body: "a", chunked: true, wantCode: http.StatusRequestEntityTooLarge, wantNextCalls: 1},
		{name: "zero limit without body", limit: 0, body: "", chunked: true, wantCode: http.StatusOK, wantNextCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &webhookReader{}
			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(tt.body))
			if tt.chunked {
				req.ContentLength = -1
			}
			resp := httptest.NewRecorder()
			RequestBodyLimit(tt.limit)(next).ServeHTTP(resp, req)

			require.Equal(t, tt.wantCode, resp.Code)
			require.Equal(t, tt.wantNextCalls, next.calls)
			if next.calls > 0 {
				require.LessOrEqual(t, next.read, int(tt.limit))
			} else {
				testutil.RequireErrorInRecorder(t, resp, http.StatusRequestEntityTooLarge, "")
			}
		})
	}
}
