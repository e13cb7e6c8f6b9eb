/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package interceptor

import (
	"context"
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/interop/grpc_testing"
)

type testService struct {
	grpc_testing.UnimplementedTestServiceServer
	lastCtx          context.Context
	unaryCallHandler func(ctx context.Context, req *grpc_testing.SimpleRequest) (*grpc_testing.SimpleResponse, error)
}

func (s *testService) UnaryCall(ctx context.Context, req *grpc_testing.SimpleRequest) (*grpc_testing.SimpleResponse, error) {
	s.lastCtx = ctx
	if s.unaryCallHandler != nil {
		return s.unaryCallHandler(ctx, req)
	}
	return &grpc_testing.SimpleResponse{Payload: &grpc_testing.Payload{Body: []byte("test")}}, nil
}

func (s *testService) SwitchUnaryCallHandler(
	handler func(ctx context.Context, req *grpc_testing.SimpleRequest) (*grpc_testing.SimpleResponse, error),
) {
	s.unaryCallHandler = handler
}

func (s *testService) Reset() {
	s.lastCtx = nil
	s.unaryCallHandler = nil
}

func startTestService(
	serverOpts []grpc.ServerOption, clientOpts ...grpc.DialOption,
) (svc *testService, client grpc_testing.TestServiceClient, closeFn func() error, err error) {
	svc = &testService{}
	srv := grpc.NewServer(serverOpts...)
	grpc_testing.RegisterTestServiceServer(srv, svc)

	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("listen: %w", err)
	}
	serveResult := make(chan error, 1)
	go func() {
		serveResult <- srv.Serve(ln)
	}()

	clientOpts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, clientOpts...)
	clientConn, err := grpc.NewClient(ln.Addr().String(), clientOpts...)
	if err != nil {
		srv.Stop()
		return nil, nil, nil, errors.Join(fmt.Errorf("dial: %w", err), <-serveResult)
	}
	return svc, grpc_testing.NewTestServiceClient(clientConn), func() error {
		closeErr := clientConn.Close()
		srv.GracefulStop()
		return errors.Join(closeErr, <-serveResult)
	}, nil
}
