/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package interceptor

import (
	"context"
	"fmt"
	"runtime"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/acronis/go-actionserver/log"
)

// RecoveryDefaultStackSize defines the default size of stack part which will be logged.
const RecoveryDefaultStackSize = 8192

// InternalError is the error returned when a panic is recovered.
var InternalError = status.Error(codes.Internal, "Internal error")

type recoveryOptions struct {
	stackSize int
}

// RecoveryOption is a function type for configuring RecoveryUnaryInterceptor.
type RecoveryOption func(*recoveryOptions)

// WithRecoveryStackSize sets the stack size for logging stack traces. Zero disables stack logging.
func WithRecoveryStackSize(size int) RecoveryOption {
	return func(opts *recoveryOptions) {
		opts.stackSize = size
	}
}

// RecoveryUnaryInterceptor recovers from panics in action handlers and returns InternalError.
// The panic is logged with the logger from the context (see LoggingUnaryInterceptor).
func RecoveryUnaryInterceptor(options ...RecoveryOption) grpc.UnaryServerInterceptor {
	opts := recoveryOptions{stackSize: RecoveryDefaultStackSize}
	for _, option := range options {
		option(&opts)
	}
	return func(
		ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler,
	) (resp interface{}, err error) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if logger := GetLoggerFromContext(ctx); logger != nil {
				var logFields []log.Field
				if opts.stackSize > 0 {
					stack := make([]byte, opts.stackSize)
					stack = stack[:runtime.Stack(stack, false)]
					logFields = append(logFields, log.Bytes("stack", stack))
				}
				logger.Error(fmt.Sprintf("Panic: %+v", p), logFields...)
			}
			resp, err = nil, InternalError
		}()
		return handler(ctx, req)
	}
}
