// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) for the sync CLI and its library packages.
//
// # Context Awareness
//
// Sync runs are always scoped to a supplier. The WithSupplier helper attaches
// the supplier code to the log entry, ensuring that all logs related to a
// specific feed can be correlated.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Sync started")
//
//	// In a supplier run:
//	l := logger.WithSupplier(log, source.Code)
//	l.Error("Fetch failed", zap.Error(err))
package logger
