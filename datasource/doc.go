// Package datasource attaches storage backends to the host.
//
// A connector is a Factory registered under a name ("memory", "mongodb",
// "redis"); importing a connector package registers it with the default
// Registry. A DataSource pairs an id with Options and, once started, an
// open Store that models are persisted through.
//
//	ds := datasource.New("demo-memory", datasource.Options{Connector: "memory"}, nil, log)
//	if err := ds.Start(ctx); err != nil { ... }
//	err := ds.Store().Define(ctx, def)
package datasource
