// Package logging provides structured logging for the robot relay.
//
// It wraps log/slog so every component logs the same way: key/value
// attributes, a service and version field on every entry, and level
// filtering.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "auto"     # json, text, auto
//	  output: "stdout"   # stdout, stderr
//
// With format "auto" the logger writes text when the output is a terminal
// and JSON otherwise, so the same binary is readable in a shell and
// parseable under a supervisor.
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("relay listening", "addr", cfg.Addr())
//
// The relay package depends only on a small Logger interface, which
// *Logger satisfies through its embedded *slog.Logger.
package logging
