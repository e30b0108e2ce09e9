// Package host provides the application instance that bootstrap wires up.
//
// A Host owns a versioned settings store (State, which is also a
// resolve.Source), the attached datasources as lifecycle components, the
// registered models and a gin router. Middleware installed with Use wraps
// only what is mounted afterwards.
//
//	h := host.New()
//	h.Set(host.KeyRestAPIRoot, "/api")
//	if err := h.DataSource(ctx, "demo-memory", datasource.Options{Connector: "memory"}); err != nil {
//		return err
//	}
//	defer h.Close(ctx)
package host
