// Package logger provides structured logging for genaikit using zerolog.
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
//	log := logger.WithComponent("httpclient")
//	log.Info("request completed", logger.Fields("status", 200))
package logger
