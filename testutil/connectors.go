package testutil

import (
	"context"
	"sync"

	"github.com/kbukum/iotmarket/datasource"
	"github.com/kbukum/iotmarket/datasource/memory"
	"github.com/kbukum/iotmarket/logger"
)

// Connectors is a datasource.Registry whose connectors are backed by the
// memory store and observed by the test.
type Connectors struct {
	registry *datasource.Registry

	mu     sync.Mutex
	opened []string
	stores map[string]*Store
	hooks  []func(id string)
}

// Store wraps a memory store and records Close.
type Store struct {
	datasource.Store

	mu     sync.Mutex
	closed bool
}

// Close closes the wrapped store.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Store.Close(ctx)
}

// NewConnectors registers each name as a memory-backed connector.
func NewConnectors(names ...string) *Connectors {
	c := &Connectors{
		registry: datasource.NewRegistry(),
		stores:   make(map[string]*Store),
	}
	for _, name := range names {
		c.registry.Register(name, c.open)
	}
	return c
}

// Registry returns the registry to hand to a host.
func (c *Connectors) Registry() *datasource.Registry { return c.registry }

// Fail makes connector name fail every open with err.
func (c *Connectors) Fail(name string, err error) {
	c.registry.Register(name, func(context.Context, string, datasource.Options, *logger.Logger) (datasource.Store, error) {
		return nil, err
	})
}

// OnOpen runs fn with the datasource id before each successful open.
func (c *Connectors) OnOpen(fn func(id string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

func (c *Connectors) open(ctx context.Context, id string, opts datasource.Options, log *logger.Logger) (datasource.Store, error) {
	c.mu.Lock()
	hooks := append([]func(string){}, c.hooks...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn(id)
	}

	s, err := memory.Open(ctx, id, opts, log)
	if err != nil {
		return nil, err
	}
	st := &Store{Store: s}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = append(c.opened, id)
	c.stores[id] = st
	return st, nil
}

// Opened lists datasource ids in the order their stores were opened.
func (c *Connectors) Opened() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.opened...)
}

// Closed reports whether the latest store opened for id has been closed.
func (c *Connectors) Closed(id string) bool {
	c.mu.Lock()
	st, ok := c.stores[id]
	c.mu.Unlock()
	if !ok {
		return false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.closed
}
