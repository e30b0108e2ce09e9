package host

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"github.com/kbukum/iotmarket/component"
	"github.com/kbukum/iotmarket/datasource"
	"github.com/kbukum/iotmarket/errors"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/model"
)

// Phase is the lifecycle position of a host.
type Phase string

const (
	PhaseCreated Phase = "created"
	PhaseBooting Phase = "booting"
	PhaseReady   Phase = "ready"
	// PhaseFailed marks a host whose boot sequence aborted.
	PhaseFailed Phase = "failed"
)

// Mountable attaches routes to a router group.
type Mountable interface {
	Mount(r gin.IRouter)
}

// MountFunc adapts a function to Mountable.
type MountFunc func(r gin.IRouter)

// Mount calls f.
func (f MountFunc) Mount(r gin.IRouter) { f(r) }

// MountPoint records something mounted on the host router.
type MountPoint struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

type scopedMiddleware struct {
	path     string
	handlers []gin.HandlerFunc
}

// Host is the application instance the bootstrapper wires: a settings store,
// the attached datasources, the registered models and an HTTP router.
type Host struct {
	state      *State
	engine     *gin.Engine
	dataSource *component.Registry
	connectors *datasource.Registry
	log        *logger.Logger

	mu     sync.RWMutex
	phase  Phase
	models []model.Registration
	byName map[string]int
	scoped []scopedMiddleware
	mounts []MountPoint
}

// Option configures a Host.
type Option func(*Host)

// WithConnectors sets the connector registry used to open datasources.
func WithConnectors(r *datasource.Registry) Option {
	return func(h *Host) { h.connectors = r }
}

// WithLogger sets the host logger.
func WithLogger(l *logger.Logger) Option {
	return func(h *Host) { h.log = l }
}

// New creates a host in PhaseCreated with an empty router.
func New(opts ...Option) *Host {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	h := &Host{
		state:      NewState(),
		engine:     gin.New(),
		dataSource: component.NewRegistry(),
		phase:      PhaseCreated,
		byName:     make(map[string]int),
	}
	h.engine.NoRoute(notFound)
	for _, opt := range opts {
		opt(h)
	}
	if h.connectors == nil {
		h.connectors = datasource.DefaultRegistry()
	}
	if h.log == nil {
		h.log = logger.GetGlobalLogger()
	}
	h.log = h.log.WithComponent("host")
	return h
}

// State returns the settings store.
func (h *Host) State() *State { return h.state }

// Get returns the setting stored under key, or nil.
func (h *Host) Get(key string) any {
	v, _ := h.state.Get(key)
	return v
}

// Set stores a setting.
func (h *Host) Set(key string, value any) {
	h.state.Set(key, value)
}

// Phase returns the lifecycle phase.
func (h *Host) Phase() Phase {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.phase
}

// SetPhase moves the host to p.
func (h *Host) SetPhase(p Phase) {
	h.mu.Lock()
	h.phase = p
	h.mu.Unlock()
	h.log.Debug("phase changed", logger.Fields("phase", string(p)))
}

// Booting reports the booting setting.
func (h *Host) Booting() bool {
	return cast.ToBool(h.Get(KeyBooting))
}

// DataSource opens a datasource through its connector and attaches it.
// Failures are BACKEND_REGISTRATION_FAILED errors; an id already attached
// is ALREADY_EXISTS.
func (h *Host) DataSource(ctx context.Context, id string, opts datasource.Options) error {
	if h.dataSource.Get(id) != nil {
		return errors.AlreadyExists("datasource", id)
	}
	ds := datasource.New(id, opts, h.connectors, h.log)
	if err := h.dataSource.StartAndRegister(ctx, ds); err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return appErr
		}
		return errors.BackendRegistration(id, opts.Connector, err)
	}
	return nil
}

// DataSourceByName returns an attached datasource.
func (h *Host) DataSourceByName(id string) (*datasource.DataSource, bool) {
	ds, ok := h.dataSource.Get(id).(*datasource.DataSource)
	return ds, ok
}

// DataSources returns the attached datasources in registration order.
func (h *Host) DataSources() []*datasource.DataSource {
	all := h.dataSource.All()
	out := make([]*datasource.DataSource, 0, len(all))
	for _, c := range all {
		if ds, ok := c.(*datasource.DataSource); ok {
			out = append(out, ds)
		}
	}
	return out
}

// Model registers def against an attached datasource and asks its store to
// prepare storage for it.
func (h *Host) Model(ctx context.Context, def model.Definition, opts model.Options) error {
	if err := def.Validate(); err != nil {
		return err
	}
	ds, ok := h.DataSourceByName(opts.DataSource)
	if !ok {
		return model.ErrUnknownDataSource(def.Name, opts.DataSource)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.byName[def.Name]; exists {
		return errors.AlreadyExists("model", def.Name)
	}

	store := ds.Store()
	if store == nil {
		return errors.Internal(fmt.Errorf("datasource %s is not attached", ds.Name()))
	}
	if err := store.Define(ctx, def); err != nil {
		return fmt.Errorf("define model %s on %s: %w", def.Name, ds.Name(), err)
	}

	h.byName[def.Name] = len(h.models)
	h.models = append(h.models, model.Registration{
		Definition: def,
		DataSource: opts.DataSource,
		Public:     opts.Public,
	})
	h.log.Debug("model registered", logger.Fields(
		logger.FieldModel, def.Name,
		logger.FieldDataSource, opts.DataSource,
	))
	return nil
}

// Models returns the registered models in registration order.
func (h *Host) Models() []model.Registration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]model.Registration, len(h.models))
	copy(out, h.models)
	return out
}

// ModelByName returns a registered model.
func (h *Host) ModelByName(name string) (model.Registration, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	i, ok := h.byName[name]
	if !ok {
		return model.Registration{}, false
	}
	return h.models[i], true
}

// Use installs middleware for path. An empty path or "/" installs it
// globally. Like any router, middleware only wraps routes added after it.
func (h *Host) Use(path string, handlers ...gin.HandlerFunc) {
	if len(handlers) == 0 {
		return
	}
	path = cleanPath(path)
	if path == "/" {
		h.engine.Use(handlers...)
		return
	}
	h.mu.Lock()
	h.scoped = append(h.scoped, scopedMiddleware{path: path, handlers: handlers})
	h.mu.Unlock()
}

// Mount attaches m under path, wrapped by the middleware installed for
// that path or any of its parents.
func (h *Host) Mount(path string, m Mountable) {
	path = cleanPath(path)

	h.mu.Lock()
	group := h.engine.Group(path)
	for _, sm := range h.scoped {
		if covers(sm.path, path) {
			group.Use(sm.handlers...)
		}
	}
	h.mounts = append(h.mounts, MountPoint{Path: path, Name: mountName(m)})
	h.mu.Unlock()

	m.Mount(group)
}

// Mounts lists what has been mounted, in order.
func (h *Host) Mounts() []MountPoint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]MountPoint, len(h.mounts))
	copy(out, h.mounts)
	return out
}

// Router exposes the gin engine for routes the host itself does not own.
func (h *Host) Router() *gin.Engine { return h.engine }

// Handler returns the host's HTTP handler.
func (h *Host) Handler() http.Handler { return h.engine }

// Routes lists the registered HTTP routes.
func (h *Host) Routes() []component.Route {
	gr := h.engine.Routes()
	routes := make([]component.Route, 0, len(gr))
	for _, r := range gr {
		routes = append(routes, component.Route{Method: r.Method, Path: r.Path, Handler: r.Handler})
	}
	return routes
}

// Components returns the lifecycle components owned by the host.
func (h *Host) Components() []component.Component {
	return h.dataSource.All()
}

// Health reports the health of every attached datasource.
func (h *Host) Health(ctx context.Context) []component.Health {
	return h.dataSource.HealthAll(ctx)
}

// Close detaches every datasource in reverse registration order.
func (h *Host) Close(ctx context.Context) error {
	return h.dataSource.StopAll(ctx)
}

// Port returns the port setting as an integer.
func (h *Host) Port() (int, error) {
	port, err := cast.ToIntE(h.Get(KeyPort))
	if err != nil {
		return 0, errors.InvalidFormat(KeyPort, "port number").WithCause(err)
	}
	if port < 0 || port > 65535 {
		return 0, errors.InvalidInput(KeyPort, fmt.Sprintf("%d is out of range", port))
	}
	return port, nil
}

// Addr returns the listen address built from the host and port settings.
func (h *Host) Addr() (string, error) {
	port, err := h.Port()
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(cast.ToString(h.Get(KeyHost)), cast.ToString(port)), nil
}

// notFound renders unmatched routes with the API error envelope.
func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, errors.NotFound("route", c.Request.URL.Path).ToResponse())
}

func cleanPath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

// covers reports whether middleware installed at prefix applies to path.
func covers(prefix, path string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func mountName(m Mountable) string {
	if n, ok := m.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", m)
}
