// Package logging provides structured logging for the xmlruntime tool.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for log collectors
//   - Text output for terminals
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in the tool's YAML file:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stderr"   # stderr, stdout, discard
//
// Entity records from a document load are logged at debug level, so
// "level: debug" lists every setting, plugin, instance and endpoint found.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version, os.Stdout, os.Stderr)
//	loader, err := xmlruntime.New(xmlruntime.Options{Logger: logger.With("component", "loader")})
//
// # Security
//
// Never log secrets, tokens or passwords. Setting values are logged verbatim
// at debug level; keep credentials out of runtime documents.
package logging
