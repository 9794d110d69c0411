// Package logger provides structured logging for taskflow using zerolog.
//
// It supports JSON and console output, level configuration, and
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
//	log := logger.Get("orchestrator")
//	log.Info("batch completed", logger.Fields("batch", 0, "tasks", 3))
package logger
