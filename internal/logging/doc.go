// Package logging provides structured logging for bdctl.
//
// This package wraps zap with convenience functions for the logging patterns
// used by the device client and the CLI. Logging is silent by default so
// command output stays clean; set BDCTL_LOG_LEVEL to enable it.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: wire-level detail (requests, responses, session lifecycle)
//   - Info: normal operations (login, settings changes)
//   - Warn: non-fatal issues (best-effort logout failures)
//   - Error: fatal issues
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("settings updated",
//	    zap.String("device", "192.168.100.100"),
//	    zap.String("mode", "decode"),
//	)
//
// # Configuration
//
// CLI commands initialize from the environment at startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
