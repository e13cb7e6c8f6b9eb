/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package interceptor

import (
	"context"

	"github.com/rs/xid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Metadata keys carrying the request ids.
const (
	MetadataKeyRequestID         = "x-request-id"
	MetadataKeyInternalRequestID = "x-int-request-id"
)

type requestIDOptions struct {
	generateID         func() string
	generateInternalID func() string
}

// RequestIDOption is a function type for configuring RequestIDUnaryInterceptor.
type RequestIDOption func(*requestIDOptions)

func newID() string {
	return xid.New().String()
}

// WithRequestIDGenerator sets the function for generating request IDs.
func WithRequestIDGenerator(generator func() string) RequestIDOption {
	return func(opts *requestIDOptions) {
		opts.generateID = generator
	}
}

// WithInternalRequestIDGenerator sets the function for generating internal request IDs.
func WithInternalRequestIDGenerator(generator func() string) RequestIDOption {
	return func(opts *requestIDOptions) {
		opts.generateInternalID = generator
	}
}

// RequestIDUnaryInterceptor takes the request id from the x-request-id metadata of the incoming call
// or generates a new one. An internal request id is always generated.
// Both ids are put into the context and sent back in the response header metadata.
func RequestIDUnaryInterceptor(options ...RequestIDOption) grpc.UnaryServerInterceptor {
	opts := requestIDOptions{generateID: newID, generateInternalID: newID}
	for _, option := range options {
		option(&opts)
	}

	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		var requestID string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(MetadataKeyRequestID); len(values) > 0 {
				requestID = values[0]
			}
		}
		if requestID == "" {
			requestID = opts.generateID()
		}
		internalRequestID := opts.generateInternalID()

		if err := grpc.SetHeader(ctx, metadata.Pairs(
			MetadataKeyRequestID, requestID,
			MetadataKeyInternalRequestID, internalRequestID,
		)); err != nil {
			return nil, err
		}

		ctx = NewContextWithRequestID(ctx, requestID)
		ctx = NewContextWithInternalRequestID(ctx, internalRequestID)
		return handler(ctx, req)
	}
}
