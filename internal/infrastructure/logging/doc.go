// Package logging provides structured logging using uber/zap.
//
// Two modes are offered:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Backend starting", zap.String("mode", "dev"))
//	logger.Error("Launch failed", zap.Error(err))
package logging
