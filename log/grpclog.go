/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"fmt"
	"os"

	"google.golang.org/grpc/grpclog"
)

// grpcLogger implements grpclog.LoggerV2 on top of FieldLogger.
// Messages are dropped once the owning Setup is closed.
type grpcLogger struct {
	setup  *Setup
	logger FieldLogger
}

var _ grpclog.LoggerV2 = (*grpcLogger)(nil)

func (l *grpcLogger) log(level Level, msg string) {
	l.setup.mu.RLock()
	defer l.setup.mu.RUnlock()
	if l.setup.logger == nil {
		return
	}
	l.logger.AtLevel(level, func(logFunc LogFunc) {
		logFunc(msg, String("component", "grpc"))
	})
}

func (l *grpcLogger) Info(args ...interface{}) { l.log(LevelInfo, fmt.Sprint(args...)) }

func (l *grpcLogger) Infoln(args ...interface{}) { l.log(LevelInfo, fmt.Sprint(args...)) }

func (l *grpcLogger) Infof(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprintf(format, args...))
}

func (l *grpcLogger) Warning(args ...interface{}) { l.log(LevelWarn, fmt.Sprint(args...)) }

func (l *grpcLogger) Warningln(args ...interface{}) { l.log(LevelWarn, fmt.Sprint(args...)) }

func (l *grpcLogger) Warningf(format string, args ...interface{}) {
	l.log(LevelWarn, fmt.Sprintf(format, args...))
}

func (l *grpcLogger) Error(args ...interface{}) { l.log(LevelError, fmt.Sprint(args...)) }

func (l *grpcLogger) Errorln(args ...interface{}) { l.log(LevelError, fmt.Sprint(args...)) }

func (l *grpcLogger) Errorf(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...))
}

func (l *grpcLogger) Fatal(args ...interface{}) {
	l.log(LevelError, fmt.Sprint(args...))
	os.Exit(1)
}

func (l *grpcLogger) Fatalln(args ...interface{}) {
	l.log(LevelError, fmt.Sprint(args...))
	os.Exit(1)
}

func (l *grpcLogger) Fatalf(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...))
	os.Exit(1)
}

// V reports whether verbosity level l is at least the requested verbose level.
// Verbose gRPC logging is never enabled.
func (l *grpcLogger) V(int) bool {
	return false
}
