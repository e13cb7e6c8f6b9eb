/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"

	"github.com/rs/xid"
)

// Headers carrying the request ids.
const (
	HeaderRequestID         = "X-Request-ID"
	HeaderInternalRequestID = "X-Int-Request-ID"
)

// MaxRequestIDLength is the maximum length of X-Request-ID accepted from the assistant.
// Longer values are replaced with a generated id.
const MaxRequestIDLength = 128

// RequestIDOpts represents an options for RequestID middleware.
type RequestIDOpts struct {
	GenerateID         func() string
	GenerateInternalID func() string
}

// NewRequestID generates a new request id (xid, 20 characters).
func NewRequestID() string {
	return xid.New().String()
}

// RequestID is a middleware that takes the id of the webhook call from X-Request-ID header or generates a new one.
// Another id (internal) is always generated for the call.
// Both ids are put into the request context and returned in X-Request-ID and X-Int-Request-ID response headers.
func RequestID() func(next http.Handler) http.Handler {
	return RequestIDWithOpts(RequestIDOpts{})
}

// RequestIDWithOpts is a more configurable version of RequestID middleware.
func RequestIDWithOpts(opts RequestIDOpts) func(next http.Handler) http.Handler {
	if opts.GenerateID == nil {
		opts.GenerateID = NewRequestID
	}
	if opts.GenerateInternalID == nil {
		opts.GenerateInternalID = NewRequestID
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" || len(requestID) > MaxRequestIDLength {
				requestID = opts.GenerateID()
			}
			internalRequestID := opts.GenerateInternalID()

			rw.Header().Set(HeaderRequestID, requestID)
			rw.Header().Set(HeaderInternalRequestID, internalRequestID)

			ctx := NewContextWithRequestID(r.Context(), requestID)
			ctx = NewContextWithInternalRequestID(ctx, internalRequestID)
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}
