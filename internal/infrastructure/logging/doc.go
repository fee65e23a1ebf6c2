// Package logging provides structured logging for zoneshadow.
//
// This package wraps Go's standard log/slog package so that every component
// logs with the same format and default fields.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("zone switched", "device_id", "pump-01", "state", "ON")
//	logger.Error("publish failed", "error", err)
//
// Never log private key material or tokens.
package logging
