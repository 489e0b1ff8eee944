// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a *zap.Logger (see Logger.Component) rather than a
// package-level logger, so tests can inject zaptest or observer cores.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	reg := registry.New(registry.WithLogger(logger.Component("registry")))
package logging
