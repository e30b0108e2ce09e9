package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/iotmarket/component"
	"github.com/kbukum/iotmarket/datasource"
	"github.com/kbukum/iotmarket/errors"
	"github.com/kbukum/iotmarket/host"
	"github.com/kbukum/iotmarket/logger"
	"github.com/kbukum/iotmarket/model"
	"github.com/kbukum/iotmarket/observability"
	"github.com/kbukum/iotmarket/validation"
)

const ctxKeyErrorCode = "rest.error_code"

// API exposes the host's public models as CRUD routes. It is mounted at the
// API root and reads the model list when mounted.
type API struct {
	host    *host.Host
	metrics *observability.Metrics
	log     *logger.Logger
}

// Option configures an API.
type Option func(*API)

// WithMetrics records request metrics for every model route.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *API) { a.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(a *API) { a.log = l }
}

// New creates the REST surface for h.
func New(h *host.Host, opts ...Option) *API {
	a := &API{host: h}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.GetGlobalLogger()
	}
	a.log = a.log.WithComponent("rest")
	return a
}

// Name identifies the mount.
func (a *API) Name() string { return "rest" }

// Mount registers list, create, get and delete routes for every public model.
func (a *API) Mount(r gin.IRouter) {
	for _, reg := range a.host.Models() {
		if !reg.Public {
			continue
		}
		g := r.Group("/" + reg.Definition.Plural)
		if a.metrics != nil {
			g.Use(a.instrument())
		}
		g.GET("", a.list(reg))
		g.POST("", a.create(reg))
		g.GET("/:id", a.get(reg))
		g.DELETE("/:id", a.remove(reg))

		a.log.Debug("model exposed", logger.Fields(
			logger.FieldModel, reg.Name(),
			"path", "/"+reg.Definition.Plural,
		))
	}
}

// Routes lists the routes Mount generates for reg under root.
func Routes(root string, reg model.Registration) []component.Route {
	if !reg.Public {
		return nil
	}
	base := root + "/" + reg.Definition.Plural
	return []component.Route{
		{Method: http.MethodGet, Path: base, Handler: reg.Name() + ".find"},
		{Method: http.MethodPost, Path: base, Handler: reg.Name() + ".create"},
		{Method: http.MethodGet, Path: base + "/:id", Handler: reg.Name() + ".findById"},
		{Method: http.MethodDelete, Path: base + "/:id", Handler: reg.Name() + ".deleteById"},
	}
}

func (a *API) store(reg model.Registration) (datasource.Store, error) {
	ds, ok := a.host.DataSourceByName(reg.DataSource)
	if !ok {
		return nil, model.ErrUnknownDataSource(reg.Name(), reg.DataSource)
	}
	store := ds.Store()
	if store == nil {
		return nil, errors.Internal(fmt.Errorf("datasource %s is not attached", reg.DataSource))
	}
	return store, nil
}

func (a *API) list(reg model.Registration) gin.HandlerFunc {
	return func(c *gin.Context) {
		store, err := a.store(reg)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		records, err := store.Find(c.Request.Context(), reg.Definition)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		out := make([]datasource.Record, len(records))
		for i, rec := range records {
			out[i] = reg.Definition.Public(rec)
		}
		RespondOKWithMeta(c, out, &Meta{Total: len(out)})
	}
}

func (a *API) create(reg model.Registration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			RespondWithError(c, errors.InvalidInput("body", err.Error()))
			return
		}
		rec, err := reg.Definition.Prepare(body)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		store, err := a.store(reg)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		created, err := store.Create(c.Request.Context(), reg.Definition, rec)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		a.log.WithContext(c.Request.Context()).Debug("record created", logger.Fields(
			logger.FieldModel, reg.Name(),
			"id", created[model.IDField],
		))
		RespondCreated(c, reg.Definition.Public(created))
	}
}

func (a *API) get(reg model.Registration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := validation.ValidateUUID(model.IDField, c.Param("id"))
		if err != nil {
			RespondWithError(c, err)
			return
		}
		store, err := a.store(reg)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		rec, err := store.FindByID(c.Request.Context(), reg.Definition, id.String())
		if err != nil {
			RespondWithError(c, err)
			return
		}
		RespondOK(c, reg.Definition.Public(rec))
	}
}

func (a *API) remove(reg model.Registration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := validation.ValidateUUID(model.IDField, c.Param("id"))
		if err != nil {
			RespondWithError(c, err)
			return
		}
		store, err := a.store(reg)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		if err := store.Delete(c.Request.Context(), reg.Definition, id.String()); err != nil {
			RespondWithError(c, err)
			return
		}
		RespondNoContent(c)
	}
}

func (a *API) instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		a.metrics.RecordRequestStart(ctx)

		c.Next()

		a.metrics.RecordRequestEnd(ctx, c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
		if code := c.GetString(ctxKeyErrorCode); code != "" {
			a.metrics.RecordError(ctx, code, "rest")
		}
	}
}
