// Package bootstrap turns an AppConfig into a ready host.
//
// Boot runs eight steps strictly in order: host, port, restApiRoot,
// datasources, models, middleware, components and finalize. Each setting
// is resolved through a precedence chain of environment variables, config
// values, host state and a default; the winning source is logged. Any step
// error aborts the run, closes the datasources attached so far and returns
// no host.
//
//	h, err := bootstrap.Boot(ctx, &config.AppConfig{ServiceConfig: config.ServiceConfig{Name: "demo"}})
//	if err != nil {
//		return err
//	}
//	defer h.Close(ctx)
//
// App wraps Boot with an HTTP server, lifecycle hooks, a startup summary and
// signal-driven shutdown for long-running processes.
package bootstrap
