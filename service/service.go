/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"fmt"

	"github.com/acronis/go-actionserver/log"
)

// Service runs a unit until the context is canceled or the unit fails.
// Metrics of the unit are registered in Prometheus client for the lifetime of the service.
type Service struct {
	Unit   Unit
	Logger log.FieldLogger
}

// New creates new Service which will start and stop passing unit.
func New(logger log.FieldLogger, unit Unit) *Service {
	return &Service{Unit: unit, Logger: logger}
}

// Start starts service unit in the separate goroutine and
// blocks until fatal error occurs or the context is canceled.
// On context cancellation the unit is stopped gracefully.
func (s *Service) Start(ctx context.Context) error {
	if mr, ok := s.Unit.(MetricsRegisterer); ok {
		mr.MustRegisterMetrics()
		defer mr.UnregisterMetrics()
	}

	fatalError := make(chan error, 1)

	go s.Unit.Start(fatalError)

	select {
	case <-ctx.Done():
		s.Logger.Info("context is canceled, service will be stopped")
		if err := s.Unit.Stop(true); err != nil {
			return fmt.Errorf("stop service gracefully: %w", err)
		}
	case err := <-fatalError:
		s.Logger.Error("service fatal error", log.Error(err))
		if stopErr := s.Unit.Stop(false); stopErr != nil {
			s.Logger.Warn("failed to stop service after fatal error", log.Error(stopErr))
		}
		return fmt.Errorf("fatal error: %w", err)
	}

	return nil
}
