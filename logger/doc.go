// Package logger provides structured logging for iotmarket using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("bootstrap")
//	log.Info("port resolved", logger.Fields("port", 3000, "source", "default"))
package logger
