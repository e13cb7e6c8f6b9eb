/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Error is the JSON body of an unsuccessful action server response.
// Code is used for logging only and isn't sent to the client.
type Error struct {
	Code       string `json:"-"`
	Message    string `json:"error"`
	ActionName string `json:"action_name,omitempty"`
}

// Error codes.
var (
	ErrCodeInternal         = "internalError"
	ErrCodeNotFound         = "notFound"
	ErrCodeMethodNotAllowed = "methodNotAllowed"
	ErrCodeActionNotFound   = "actionNotFound"
	ErrCodeActionRejected   = "actionRejected"
)

// Error messages.
var (
	ErrMessageInternal         = "Internal error."
	ErrMessageNotFound         = "Not found."
	ErrMessageMethodNotAllowed = "Method not allowed."
)

// NewError returns an Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewInternalError returns an Error that hides the details of an unexpected failure.
func NewInternalError() *Error {
	return NewError(ErrCodeInternal, ErrMessageInternal)
}

// WithActionName binds the error to the action that caused it.
func (e *Error) WithActionName(name string) *Error {
	e.ActionName = name
	return e
}

// errorCodeFromStatus turns the HTTP status text into a lower camel case code
// ("Request Entity Too Large" -> "requestEntityTooLarge").
func errorCodeFromStatus(httpCode int) string {
	if httpCode == http.StatusInternalServerError {
		return ErrCodeInternal
	}
	words := strings.FieldsFunc(http.StatusText(httpCode), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-'
	})
	var sb strings.Builder
	for i, w := range words {
		w = strings.ToLower(w)
		if i > 0 {
			r, size := utf8.DecodeRuneInString(w)
			sb.WriteRune(unicode.ToUpper(r))
			w = w[size:]
		}
		sb.WriteString(w)
	}
	return sb.String()
}
