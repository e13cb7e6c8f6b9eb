/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package action

import (
	"errors"
	"fmt"
)

// Action errors.
var (
	ErrActionNotFound       = errors.New("action not found")
	ErrActionRejected       = errors.New("action execution rejected")
	ErrMissingActionName    = errors.New("action name is missing")
	ErrPackageNotRegistered = errors.New("action package is not registered")
	ErrDuplicateAction      = errors.New("duplicate action name")
)

// NotFoundError is returned when no action with the requested name is registered.
type NotFoundError struct {
	ActionName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No registered action found for name '%s'.", e.ActionName)
}

func (e *NotFoundError) Unwrap() error {
	return ErrActionNotFound
}

// RejectionError may be returned by an action that refuses to handle the request
// (e.g. the form cannot be filled from the latest user message).
type RejectionError struct {
	ActionName string
	Message    string
}

// Reject returns a RejectionError with the given message.
// The action name is filled by the Executor.
func Reject(message string) *RejectionError {
	return &RejectionError{Message: message}
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Custom action '%s' rejected execution.", e.ActionName)
	}
	return e.Message
}

func (e *RejectionError) Unwrap() error {
	return ErrActionRejected
}
