/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package interceptor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/interop/grpc_testing"
	"google.golang.org/grpc/metadata"
)

func TestRequestIDUnaryInterceptor(t *testing.T) {
	tests := []struct {
		name              string
		md                metadata.MD
		options           []RequestIDOption
		wantRequestID     string
		wantGeneratedXIDs bool
	}{
		{
			name:              "request id is generated with xid",
			wantGeneratedXIDs: true,
		},
		{
			name:              "request id is taken from metadata",
			md:                metadata.Pairs(MetadataKeyRequestID, "existing-request-id"),
			wantRequestID:     "existing-request-id",
			wantGeneratedXIDs: true,
		},
		{
			name: "custom generators",
			options: []RequestIDOption{
				WithRequestIDGenerator(func() string { return "custom-request-id" }),
				WithInternalRequestIDGenerator(func() string { return "custom-internal-request-id" }),
			},
			wantRequestID: "custom-request-id",
		},
	}
	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			svc, client, closeSvc, err := startTestService(
				[]grpc.ServerOption{grpc.UnaryInterceptor(RequestIDUnaryInterceptor(tt.options...))})
			require.NoError(t, err)
			defer func() { require.NoError(t, closeSvc()) }()

			ctx := context.Background()
			if tt.md != nil {
				ctx = metadata.NewOutgoingContext(ctx, tt.md)
			}
			var respHeader metadata.MD
			_, err = client.UnaryCall(ctx, &grpc_testing.SimpleRequest{}, grpc.Header(&respHeader))
			require.NoError(t, err)

			reqID := GetRequestIDFromContext(svc.lastCtx)
			intReqID := GetInternalRequestIDFromContext(svc.lastCtx)
			require.Equal(t, []string{reqID}, respHeader.Get(MetadataKeyRequestID))
			require.Equal(t, []string{intReqID}, respHeader.Get(MetadataKeyInternalRequestID))
			if tt.wantRequestID != "" {
				require.Equal(t, tt.wantRequestID, reqID)
			}
			if tt.wantGeneratedXIDs {
				require.Len(t, intReqID, 20)
				if tt.wantRequestID == "" {
					require.Len(t, reqID, 20)
					require.NotEqual(t, reqID, intReqID)
				}
			} else {
				require.Equal(t, "custom-internal-request-id", intReqID)
			}
		})
	}
}
