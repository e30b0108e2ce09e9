// Package testutil provides connector fakes for tests that boot a host.
//
// Connectors serves every registered connector name from a private
// in-memory store and records which datasources were opened and closed:
//
//	conns := testutil.NewConnectors(datasource.ConnectorMemory, datasource.ConnectorMongoDB)
//	conns.Fail(datasource.ConnectorRedis, errors.New("connection refused"))
//	h, err := bootstrap.Boot(ctx, cfg, bootstrap.WithConnectors(conns.Registry()))
//	...
//	if !conns.Closed("demo-memory") { ... }
package testutil
