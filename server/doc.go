// Package server runs the HTTP listener for a booted host, using Gin with
// HTTP/2 cleartext (h2c) support.
//
// The server follows the component pattern with lifecycle management,
// health endpoints and net/http middleware wrapped around the host router.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - RequestContext: request id generation and propagation (gin)
//   - Recovery: panic recovery with structured logging
//   - RequestLogger: request logging with duration tracking
//   - CORS: cross-origin resource sharing configuration
//   - BodySizeLimit: request body size limits
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: datasource health aggregation
//   - /alive: liveness probe
//   - /ready: readiness probe, ready once the host has booted
//   - /info: build information
package server
