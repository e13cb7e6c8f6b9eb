/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"github.com/acronis/go-actionserver/log"
)

// LoggingParams collects fields that handlers want to see in the "response completed" entry
// (e.g. the name of the executed action).
type LoggingParams struct {
	fields []log.Field
}

// ExtendFields adds fields to the final log entry of the request.
func (lp *LoggingParams) ExtendFields(fields ...log.Field) {
	lp.fields = append(lp.fields, fields...)
}
