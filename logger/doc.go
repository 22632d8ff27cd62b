// Package logger provides structured logging for platform services
// using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields. Logs are written to
// stderr by default so that stdout stays free for process and worker data.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  components:
//	    process: "warn"
//
// # Usage
//
//	log := logger.Get("process")
//	log.Debug("spawned", logger.Fields(logger.FieldPID, pid))
package logger
