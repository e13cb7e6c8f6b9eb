/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package interceptor

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/acronis/go-actionserver/log"
)

const headerUserAgentKey = "user-agent"

const defaultSlowCallThreshold = 1 * time.Second

// LoggingOption represents a configuration option for the logging interceptor.
type LoggingOption func(*loggingOptions)

type loggingOptions struct {
	callStart         bool
	excludedMethods   []string
	slowCallThreshold time.Duration
}

// WithLoggingCallStart enables logging of call start events.
func WithLoggingCallStart(logCallStart bool) LoggingOption {
	return func(opts *loggingOptions) {
		opts.callStart = logCallStart
	}
}

// WithLoggingExcludedMethods specifies full gRPC method names (e.g., /grpc.health.v1.Health/Check)
// that are logged only when they fail.
func WithLoggingExcludedMethods(methods ...string) LoggingOption {
	return func(opts *loggingOptions) {
		opts.excludedMethods = methods
	}
}

// WithLoggingSlowCallThreshold sets the threshold for slow call detection.
func WithLoggingSlowCallThreshold(threshold time.Duration) LoggingOption {
	return func(opts *loggingOptions) {
		if threshold > 0 {
			opts.slowCallThreshold = threshold
		}
	}
}

// LoggingUnaryInterceptor logs the end (and optionally the start) of each unary call.
// It puts the logger enriched with request ids into the context of the call.
func LoggingUnaryInterceptor(logger log.FieldLogger, options ...LoggingOption) grpc.UnaryServerInterceptor {
	opts := &loggingOptions{slowCallThreshold: defaultSlowCallThreshold}
	for _, option := range options {
		option(opts)
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		startTime := GetCallStartTimeFromContext(ctx)
		if startTime.IsZero() {
			startTime = time.Now()
			ctx = NewContextWithCallStartTime(ctx, startTime)
		}

		loggerForNext := logger.With(
			log.String("request_id", GetRequestIDFromContext(ctx)),
			log.String("int_request_id", GetInternalRequestIDFromContext(ctx)),
		)
		logFields := buildCallInfoLogFields(ctx, info.FullMethod)
		callLogger := loggerForNext.With(logFields...)

		noLog := isLoggingDisabled(info.FullMethod, opts.excludedMethods)
		if opts.callStart && !noLog {
			callLogger.Info("gRPC call started")
		}

		lp := &LoggingParams{}
		ctx = NewContextWithLoggingParams(NewContextWithLogger(ctx, loggerForNext), lp)

		resp, err := handler(ctx, req)
		duration := time.Since(startTime)

		grpcCode := status.Code(err)
		if noLog && grpcCode == codes.OK {
			return resp, err
		}

		finishFields := []log.Field{
			log.String("grpc_code", grpcCode.String()),
			log.Int64("duration_ms", duration.Milliseconds()),
		}
		if err != nil {
			finishFields = append(finishFields, log.String("grpc_error", status.Convert(err).Message()))
		}
		finishFields = append(finishFields, lp.getFields()...)
		msg := fmt.Sprintf("gRPC call finished in %.3fs", duration.Seconds())
		if duration >= opts.slowCallThreshold {
			callLogger.Warn(msg, append(finishFields, log.Bool("slow_request", true))...)
		} else {
			callLogger.Info(msg, finishFields...)
		}
		return resp, err
	}
}

func buildCallInfoLogFields(ctx context.Context, fullMethod string) []log.Field {
	service, method := splitFullMethodName(fullMethod)
	var remoteAddr, remoteAddrIP string
	var remoteAddrPort int
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		remoteAddr = p.Addr.String()
		if addrIP, addrPort, err := net.SplitHostPort(remoteAddr); err == nil {
			remoteAddrIP = addrIP
			if port, pErr := strconv.ParseUint(addrPort, 10, 16); pErr == nil {
				remoteAddrPort = int(port)
			}
		}
	}

	var userAgent string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(headerUserAgentKey); len(values) > 0 {
			userAgent = values[0]
		}
	}

	logFields := []log.Field{
		log.String("grpc_service", service),
		log.String("grpc_method", method),
		log.String("remote_addr", remoteAddr),
		log.String("user_agent", userAgent),
	}
	if remoteAddrIP != "" {
		logFields = append(logFields, log.String("remote_addr_ip", remoteAddrIP))
		if remoteAddrPort != 0 {
			logFields = append(logFields, log.Int("remote_addr_port", remoteAddrPort))
		}
	}
	return logFields
}

func splitFullMethodName(fullMethod string) (service string, method string) {
	const unknown = "unknown"
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	if i := strings.Index(fullMethod, "/"); i >= 0 {
		return fullMethod[:i], fullMethod[i+1:]
	}
	return unknown, unknown
}

func isLoggingDisabled(fullMethod string, excludedMethods []string) bool {
	for _, method := range excludedMethods {
		if fullMethod == method {
			return true
		}
	}
	return false
}
