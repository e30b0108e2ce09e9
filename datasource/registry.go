package datasource

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kbukum/iotmarket/errors"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/resilience"
	"github.com/kbukum/iotmarket/validation"
)

// Factory opens the store for datasource id.
type Factory func(ctx context.Context, id string, opts Options, log *logger.Logger) (Store, error)

// Registry maps connector names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register makes a connector available under name, replacing any previous one.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Names lists the registered connectors, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open validates opts and opens a store through the named connector, trying
// up to opts.ConnectAttempts times. Every failure is reported as a
// BACKEND_REGISTRATION_FAILED error.
func (r *Registry) Open(ctx context.Context, id string, opts Options, log *logger.Logger) (Store, error) {
	if err := validation.Validate(opts); err != nil {
		return nil, errors.BackendRegistration(id, opts.Connector, err)
	}

	if appErr := validation.New().OneOf("connector", opts.Connector, r.Names()).Validate(); appErr != nil {
		return nil, errors.BackendRegistration(id, opts.Connector, appErr)
	}
	r.mu.RLock()
	f := r.factories[opts.Connector]
	r.mu.RUnlock()

	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("datasource").WithFields(logger.Fields(
		logger.FieldDataSource, id,
		logger.FieldConnector, opts.Connector,
	))
	policy := resilience.Policy{
		Attempts: opts.ConnectAttempts,
		Backoff:  opts.ConnectBackoff,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			log.Warn("Connector failed, retrying", logger.Fields(
				"attempt", attempt,
				"wait", wait.String(),
				logger.FieldError, err.Error(),
			))
		},
	}
	store, err := resilience.Retry(ctx, policy, func(ctx context.Context) (Store, error) {
		return f(ctx, id, opts, log)
	})
	if err != nil {
		return nil, errors.BackendRegistration(id, opts.Connector, err)
	}
	return store, nil
}

var defaultRegistry = NewRegistry()

// Register adds a connector to the default registry. Connector packages call
// it from init, so importing one makes it available:
//
//	import _ "github.com/kbukum/iotmarket/datasource/memory"
func Register(name string, f Factory) {
	defaultRegistry.Register(name, f)
}

// DefaultRegistry returns the process-wide connector registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
