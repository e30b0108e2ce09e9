// Package component defines the lifecycle contract shared by iotmarket's
// infrastructure: datasources and the HTTP server.
//
// A Registry starts components in registration order and stops them in
// reverse. Components may also implement Describable and RouteProvider to
// appear in the startup summary.
package component
