/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/acronis/go-actionserver/log"
	"github.com/acronis/go-actionserver/restapi"
)

// RecoveryDefaultStackSize is the default number of stack trace bytes logged for a panic.
const RecoveryDefaultStackSize = 8192

// RecoveryOpts configures the Recovery middleware.
type RecoveryOpts struct {
	// StackSize limits the logged stack trace, 0 disables it.
	StackSize int
}

type recoveryHandler struct {
	next http.Handler
	opts RecoveryOpts
}

// Recovery is a middleware that recovers from panics in action handlers, logs the panic value and a stacktrace,
// returns 500 HTTP status code and error in body in JSON format.
func Recovery() func(next http.Handler) http.Handler {
	return RecoveryWithOpts(RecoveryOpts{StackSize: RecoveryDefaultStackSize})
}

// RecoveryWithOpts is Recovery with options.
func RecoveryWithOpts(opts RecoveryOpts) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &recoveryHandler{next: next, opts: opts}
	}
}

func (h *recoveryHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		logger := GetLoggerFromContext(r.Context())
		// http.Server silently handles ErrAbortHandler, so it's re-panicked.
		if p == http.ErrAbortHandler { //nolint:errorlint // panic value is compared as is
			if logger != nil {
				logger.Warn("request has been aborted", log.Error(http.ErrAbortHandler))
			}
			panic(p)
		}
		if logger != nil {
			logger.Error(fmt.Sprintf("Panic: %+v", p), h.stackFields()...)
		}
		restapi.RespondInternalError(rw, logger)
	}()

	h.next.ServeHTTP(rw, r)
}

func (h *recoveryHandler) stackFields() []log.Field {
	if h.opts.StackSize == 0 {
		return nil
	}
	buf := make([]byte, h.opts.StackSize)
	return []log.Field{log.Bytes("stack", buf[:runtime.Stack(buf, false)])}
}
