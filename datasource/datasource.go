package datasource

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/iotmarket/component"
	"github.com/kbukum/iotmarket/logger"
)

// DataSource is a named storage backend attached to a host. It is a
// lifecycle component: Start opens the connector's store, Stop closes it.
type DataSource struct {
	id       string
	opts     Options
	registry *Registry
	log      *logger.Logger

	mu    sync.RWMutex
	store Store
}

var (
	_ component.Component   = (*DataSource)(nil)
	_ component.Describable = (*DataSource)(nil)
)

// New creates an unopened datasource. A nil registry means DefaultRegistry.
func New(id string, opts Options, registry *Registry, log *logger.Logger) *DataSource {
	if registry == nil {
		registry = defaultRegistry
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &DataSource{id: id, opts: opts, registry: registry, log: log}
}

// Name returns the datasource id.
func (d *DataSource) Name() string { return d.id }

// Connector returns the connector name.
func (d *DataSource) Connector() string { return d.opts.Connector }

// Options returns the options the datasource was created with.
func (d *DataSource) Options() Options { return d.opts }

// Store returns the open store, or nil before Start.
func (d *DataSource) Store() Store {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.store
}

// Start opens the store. Starting an open datasource is a no-op.
func (d *DataSource) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.store != nil {
		return nil
	}

	store, err := d.registry.Open(ctx, d.id, d.opts, d.log)
	if err != nil {
		return err
	}
	d.store = store
	d.log.Info("datasource attached", logger.Fields(
		logger.FieldDataSource, d.id,
		logger.FieldConnector, d.opts.Connector,
	))
	return nil
}

// Stop closes the store.
func (d *DataSource) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.store == nil {
		return nil
	}
	err := d.store.Close(ctx)
	d.store = nil
	return err
}

// Health pings the store.
func (d *DataSource) Health(ctx context.Context) component.Health {
	store := d.Store()
	if store == nil {
		return component.Health{Name: d.id, Status: component.StatusUnhealthy, Message: "datasource not attached"}
	}
	if err := store.Ping(ctx); err != nil {
		return component.Health{Name: d.id, Status: component.StatusUnhealthy, Message: fmt.Sprintf("ping failed: %v", err)}
	}
	return component.Health{Name: d.id, Status: component.StatusHealthy}
}

// Describe returns the startup summary line.
func (d *DataSource) Describe() component.Description {
	details := d.opts.Connector
	if addr := d.opts.Addr(); addr != "" {
		details += " " + addr
	}
	return component.Description{
		Name:    d.id,
		Type:    "datasource",
		Details: details,
		Port:    d.opts.Port,
	}
}
