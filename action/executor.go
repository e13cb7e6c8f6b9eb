/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package action

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/acronis/go-actionserver/log"
)

// ExecutorOpts contains optional parameters for constructing Executor.
type ExecutorOpts struct {
	// Registry is used for resolving the package. DefaultRegistry is used if nil.
	Registry *Registry
	Metrics  *PrometheusMetrics
}

// Executor runs actions of the single action package.
type Executor struct {
	packageName string
	registry    *Registry
	metrics     *PrometheusMetrics
	logger      log.FieldLogger

	mu      sync.RWMutex
	pkg     Package
	actions map[string]Action
}

// NewExecutor creates a new Executor for the package with the given dotted name.
// Empty name means that no actions are served.
func NewExecutor(packageName string, logger log.FieldLogger, opts ExecutorOpts) *Executor {
	registry := opts.Registry
	if registry == nil {
		registry = DefaultRegistry
	}
	return &Executor{
		packageName: packageName,
		registry:    registry,
		metrics:     opts.Metrics,
		logger:      logger,
		actions:     map[string]Action{},
	}
}

// PackageName returns the dotted name of the served package.
func (e *Executor) PackageName() string {
	return e.packageName
}

// Load resolves the action package and loads its actions.
func (e *Executor) Load() error {
	if e.packageName == "" {
		e.logger.Warn("no action package is specified, the server will run without actions")
		return nil
	}
	pkg, err := e.registry.Lookup(e.packageName)
	if err != nil {
		return err
	}
	actions, err := loadActions(pkg)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.pkg = pkg
	e.actions = actions
	e.mu.Unlock()

	e.logger.Info(fmt.Sprintf("registered %d actions from package %q", len(actions), pkg.Name),
		log.Strings("actions", e.ActionNames()))
	return nil
}

// Reload calls the package loader again. Previously loaded actions are kept if the loader fails.
func (e *Executor) Reload() error {
	e.mu.RLock()
	pkg := e.pkg
	e.mu.RUnlock()
	if pkg.Loader == nil {
		return nil
	}

	actions, err := loadActions(pkg)
	if err != nil {
		e.logger.Error("failed to reload action package, previous actions are kept",
			log.String("package", pkg.Name), log.Error(err))
		return err
	}

	e.mu.Lock()
	e.actions = actions
	e.mu.Unlock()

	e.logger.Info("action package is reloaded", log.String("package", pkg.Name), log.Int("actions", len(actions)))
	return nil
}

// WatchPaths returns paths of the package that should be watched for auto-reload.
func (e *Executor) WatchPaths() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.pkg.WatchPaths...)
}

// ActionNames returns sorted names of the loaded actions.
func (e *Executor) ActionNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.actions))
	for name := range e.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the action requested by the webhook call.
func (e *Executor) Run(ctx context.Context, req *Request) (*Response, error) {
	if req.NextAction == "" {
		return nil, ErrMissingActionName
	}

	startTime := time.Now()

	e.mu.RLock()
	act, ok := e.actions[req.NextAction]
	e.mu.RUnlock()
	if !ok {
		e.metrics.observeExecution(req.NextAction, StatusNotFound, startTime)
		return nil, &NotFoundError{ActionName: req.NextAction}
	}

	e.logger.Debug("received request to run action", log.String("action", req.NextAction),
		log.String("sender_id", req.SenderID))

	dispatcher := NewDispatcher()
	events, err := act.Run(ctx, dispatcher, req)
	if err != nil {
		var rejectionErr *RejectionError
		if errors.As(err, &rejectionErr) {
			rejected := *rejectionErr
			if rejected.ActionName == "" {
				rejected.ActionName = req.NextAction
			}
			e.metrics.observeExecution(req.NextAction, StatusRejected, startTime)
			return nil, &rejected
		}
		e.metrics.observeExecution(req.NextAction, StatusError, startTime)
		return nil, fmt.Errorf("run action %q: %w", req.NextAction, err)
	}
	e.metrics.observeExecution(req.NextAction, StatusOK, startTime)

	if events == nil {
		events = []Event{}
	}
	messages := dispatcher.Messages()
	e.logger.Debug("finished running action", log.String("action", req.NextAction),
		log.Int("events", len(events)), log.Int("responses", len(messages)))
	return &Response{Events: events, Responses: messages}, nil
}

func loadActions(pkg Package) (map[string]Action, error) {
	loaded, err := pkg.Loader()
	if err != nil {
		return nil, fmt.Errorf("load action package %q: %w", pkg.Name, err)
	}
	actions := make(map[string]Action, len(loaded))
	for _, act := range loaded {
		if _, ok := actions[act.Name()]; ok {
			return nil, fmt.Errorf("load action package %q: %w: %q", pkg.Name, ErrDuplicateAction, act.Name())
		}
		actions[act.Name()] = act
	}
	return actions, nil
}
